package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// OpenWeatherClient implements CurrentProvider using the OpenWeatherMap
// current weather endpoint.
type OpenWeatherClient struct {
	httpClient *http.Client
	now        func() time.Time
	apiKey     string
	baseURL    string
}

// NewOpenWeatherClient creates an OpenWeatherMap client. baseURL is the
// API root, e.g. https://api.openweathermap.org/data/2.5.
func NewOpenWeatherClient(apiKey, baseURL string, timeout time.Duration) *OpenWeatherClient {
	return &OpenWeatherClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now:     time.Now,
		apiKey:  apiKey,
		baseURL: baseURL,
	}
}

// Name identifies the provider in stored records.
func (c *OpenWeatherClient) Name() string { return models.SourceOpenWeatherMap }

// Current fetches present conditions in metric units.
func (c *OpenWeatherClient) Current(ctx context.Context, lat, lon float64) (models.CurrentConditions, error) {
	if c.apiKey == "" {
		return models.CurrentConditions{}, ErrMissingCredentials
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+params.Encode(), nil)
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.CurrentConditions{}, fmt.Errorf("openweathermap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.CurrentConditions{}, &StatusError{Provider: "openweathermap", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var owm weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		return models.CurrentConditions{}, fmt.Errorf("decode response: %w", err)
	}
	return owm.toConditions(c.now()), nil
}

// OpenWeatherMap API response types.

type weatherResponse struct {
	Rain       *precipVolume      `json:"rain"`
	Snow       *precipVolume      `json:"snow"`
	Weather    []weatherCondition `json:"weather"`
	Main       mainReadings       `json:"main"`
	Wind       windReadings       `json:"wind"`
	Clouds     cloudCover         `json:"clouds"`
	Visibility float64            `json:"visibility"`
	Dt         int64              `json:"dt"`
}

type weatherCondition struct {
	Description string `json:"description"`
}

type mainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
}

type windReadings struct {
	Gust  *float64 `json:"gust"`
	Speed float64  `json:"speed"`
	Deg   float64  `json:"deg"`
}

type cloudCover struct {
	All float64 `json:"all"`
}

type precipVolume struct {
	OneHour float64 `json:"1h"`
}

func (r weatherResponse) toConditions(fetchedAt time.Time) models.CurrentConditions {
	observed := fetchedAt.UTC()
	if r.Dt > 0 {
		observed = time.Unix(r.Dt, 0).UTC()
	}

	var description string
	if len(r.Weather) > 0 {
		description = r.Weather[0].Description
	}

	var rain, snow float64
	if r.Rain != nil {
		rain = r.Rain.OneHour
	}
	if r.Snow != nil {
		snow = r.Snow.OneHour
	}

	return models.CurrentConditions{
		ObservedAt: observed,
		Source:     models.SourceOpenWeatherMap,
		Temperature: models.CurrentTemperature{
			Current:   r.Main.Temp,
			FeelsLike: r.Main.FeelsLike,
			Min:       r.Main.TempMin,
			Max:       r.Main.TempMax,
			Humidity:  r.Main.Humidity,
			Pressure:  r.Main.Pressure,
		},
		Precipitation: models.CurrentPrecipitation{
			Description: description,
			Clouds:      r.Clouds.All,
			Rain:        rain,
			Snow:        snow,
		},
		Wind: models.CurrentWind{
			Speed:     r.Wind.Speed,
			Direction: r.Wind.Deg,
			Gust:      r.Wind.Gust,
		},
		// UV index needs a separate One Call request.
		Solar: models.CurrentSolar{
			Visibility: r.Visibility,
		},
	}
}
