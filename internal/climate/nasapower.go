package climate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// NASA POWER daily parameters.
const (
	paramTemperature   = "T2M"
	paramPrecipitation = "PRECTOTCORR"
	paramPrecipLegacy  = "PRECTOT"
	paramWind          = "WS2M"
	paramSolar         = "ALLSKY_SFC_SW_DWN"

	nasaFillValue = -999.0
)

// NASAPowerClient implements HistoricalProvider using the NASA POWER daily
// point API (renewable energy community).
type NASAPowerClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewNASAPowerClient creates a NASA POWER client for the daily point endpoint.
func NewNASAPowerClient(baseURL string, timeout time.Duration) *NASAPowerClient {
	return &NASAPowerClient{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
	}
}

// Name identifies the provider in stored records.
func (c *NASAPowerClient) Name() string { return models.SourceNASAPower }

// Historical fetches daily series for window and reduces them to annual stats.
func (c *NASAPowerClient) Historical(ctx context.Context, lat, lon float64, window Window) (models.HistoricalStats, error) {
	params := url.Values{
		"start":      {window.startDay()},
		"end":        {window.endDay()},
		"latitude":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"longitude":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"community":  {"RE"},
		"parameters": {strings.Join([]string{paramTemperature, paramPrecipitation, paramWind, paramSolar}, ",")},
		"format":     {"JSON"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.HistoricalStats{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.HistoricalStats{}, fmt.Errorf("nasa power request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.HistoricalStats{}, &StatusError{Provider: "nasa_power", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var powerResp powerResponse
	if err := json.NewDecoder(resp.Body).Decode(&powerResp); err != nil {
		return models.HistoricalStats{}, fmt.Errorf("decode response: %w", err)
	}
	return powerResp.stats(), nil
}

// NASA POWER API response types.

type powerResponse struct {
	Header struct {
		FillValue *float64 `json:"fill_value"`
	} `json:"header"`
	Properties struct {
		Parameter map[string]map[string]float64 `json:"parameter"`
	} `json:"properties"`
}

func (r powerResponse) series(names ...string) series {
	fill := nasaFillValue
	if r.Header.FillValue != nil {
		fill = *r.Header.FillValue
	}
	for _, name := range names {
		days, ok := r.Properties.Parameter[name]
		if !ok {
			continue
		}
		values := make(series, 0, len(days))
		for _, v := range days {
			if v == fill || math.IsNaN(v) {
				continue
			}
			values = append(values, v)
		}
		return values
	}
	return nil
}

func (r powerResponse) stats() models.HistoricalStats {
	temp := r.series(paramTemperature)
	precip := r.series(paramPrecipitation, paramPrecipLegacy)
	wind := r.series(paramWind)
	solar := r.series(paramSolar)

	return models.HistoricalStats{
		Source: models.SourceNASAPower,
		Temperature: models.HistoricalTemperature{
			AnnualAvg: temp.mean(),
			Max:       temp.max(),
			Min:       temp.min(),
		},
		Precipitation: models.HistoricalPrecipitation{
			AnnualTotal: precip.sum(),
			AvgDaily:    precip.mean(),
		},
		Wind: models.HistoricalWind{
			Avg: wind.mean(),
			Max: wind.max(),
		},
		Solar: models.HistoricalSolar{
			AvgDaily: solar.mean(),
			Peak:     solar.max(),
		},
	}
}

// series is a daily value list; every reduction of an empty series is 0.
type series []float64

func (s series) sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

func (s series) mean() float64 {
	if len(s) == 0 {
		return 0
	}
	return s.sum() / float64(len(s))
}

func (s series) max() float64 {
	if len(s) == 0 {
		return 0
	}
	m := s[0]
	for _, v := range s[1:] {
		m = math.Max(m, v)
	}
	return m
}

func (s series) min() float64 {
	if len(s) == 0 {
		return 0
	}
	m := s[0]
	for _, v := range s[1:] {
		m = math.Min(m, v)
	}
	return m
}
