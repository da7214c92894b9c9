package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Climate data sources.
const (
	SourceOpenWeatherMap = "openweathermap"
	SourceNASAPower      = "nasa_power"
	SourceSynthetic      = "synthetic"
	SourceRules          = "latitude_rules"
)

// ClimateZone is the coarse climate band derived from absolute latitude.
type ClimateZone string

// Climate zones.
const (
	ZonePolar       ClimateZone = "polar"
	ZoneSubarctic   ClimateZone = "subarctic"
	ZoneTemperate   ClimateZone = "temperate"
	ZoneSubtropical ClimateZone = "subtropical"
	ZoneTropical    ClimateZone = "tropical"
)

// CurrentConditions is a live (or synthetic) weather observation.
type CurrentConditions struct {
	ObservedAt    time.Time            `json:"observed_at"`
	Source        string               `json:"source"`
	Temperature   CurrentTemperature   `json:"temperature"`
	Precipitation CurrentPrecipitation `json:"precipitation"`
	Wind          CurrentWind          `json:"wind"`
	Solar         CurrentSolar         `json:"solar"`
}

// CurrentTemperature holds temperatures in °C, humidity in % and pressure in hPa.
type CurrentTemperature struct {
	Current   float64 `json:"current"`
	FeelsLike float64 `json:"feels_like"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
}

// CurrentPrecipitation holds cloud cover in % and last-hour rain/snow in mm.
type CurrentPrecipitation struct {
	Description string  `json:"description"`
	Clouds      float64 `json:"clouds"`
	Rain        float64 `json:"rain"`
	Snow        float64 `json:"snow"`
}

// CurrentWind holds speeds in m/s and direction in degrees.
type CurrentWind struct {
	Gust      *float64 `json:"gust"`
	Speed     float64  `json:"speed"`
	Direction float64  `json:"direction"`
}

// CurrentSolar holds visibility in meters and the UV index when known.
type CurrentSolar struct {
	UVIndex    *float64 `json:"uv_index"`
	Visibility float64  `json:"visibility"`
}

// HistoricalStats are annual statistics over a trailing daily series.
type HistoricalStats struct {
	Source        string                  `json:"source"`
	Temperature   HistoricalTemperature   `json:"temperature"`
	Precipitation HistoricalPrecipitation `json:"precipitation"`
	Wind          HistoricalWind          `json:"wind"`
	Solar         HistoricalSolar         `json:"solar"`
}

// HistoricalTemperature in °C.
type HistoricalTemperature struct {
	AnnualAvg float64 `json:"annual_avg"`
	Max       float64 `json:"annual_max"`
	Min       float64 `json:"annual_min"`
}

// HistoricalPrecipitation in mm.
type HistoricalPrecipitation struct {
	AnnualTotal float64 `json:"annual_total"`
	AvgDaily    float64 `json:"avg_daily"`
}

// HistoricalWind in m/s.
type HistoricalWind struct {
	Avg float64 `json:"avg_speed"`
	Max float64 `json:"max_speed"`
}

// HistoricalSolar in kWh/m²/day.
type HistoricalSolar struct {
	AvgDaily float64 `json:"avg_radiation"`
	Peak     float64 `json:"peak_radiation"`
}

// ClimatePatterns are the rule-based descriptors for a location.
type ClimatePatterns struct {
	Zone          ClimateZone          `json:"zone"`
	Temperature   TemperaturePattern   `json:"temperature"`
	Precipitation PrecipitationPattern `json:"precipitation"`
	Wind          WindPattern          `json:"wind"`
	Solar         SolarPattern         `json:"solar"`
}

// TemperaturePattern carries the zone so it survives in the stored record.
type TemperaturePattern struct {
	Zone              ClimateZone `json:"zone"`
	SeasonalVariation string      `json:"seasonal_variation"`
	FrostRisk         string      `json:"frost_risk"`
}

// PrecipitationPattern describes the rainfall regime.
type PrecipitationPattern struct {
	Pattern     string `json:"pattern"`
	Seasonality string `json:"seasonality"`
}

// WindPattern describes prevailing winds.
type WindPattern struct {
	Dominant string `json:"dominant"`
	Seasonal string `json:"seasonal"`
}

// SolarPattern describes solar availability.
type SolarPattern struct {
	Availability      string `json:"availability"`
	SeasonalVariation string `json:"seasonal_variation"`
}

// TemperatureGroup is the stored temperature section of a climate record.
type TemperatureGroup struct {
	Current         CurrentTemperature    `json:"current"`
	HistoricalAvg   HistoricalTemperature `json:"historical_avg"`
	MonthlyAverages TemperaturePattern    `json:"monthly_averages"`
}

// PrecipitationGroup is the stored precipitation section of a climate record.
type PrecipitationGroup struct {
	Current        CurrentPrecipitation    `json:"current"`
	Historical     HistoricalPrecipitation `json:"historical"`
	AnnualPatterns PrecipitationPattern    `json:"annual_patterns"`
}

// WindGroup is the stored wind section of a climate record.
type WindGroup struct {
	Current  CurrentWind    `json:"current"`
	Patterns HistoricalWind `json:"patterns"`
	Seasonal WindPattern    `json:"seasonal"`
}

// SolarGroup is the stored solar section of a climate record.
type SolarGroup struct {
	Current        CurrentSolar    `json:"current"`
	Radiation      HistoricalSolar `json:"radiation"`
	YearlyPatterns SolarPattern    `json:"yearly_patterns"`
}

// ClimateSources records which provider produced each part of a record.
type ClimateSources struct {
	Current    string `json:"current"`
	Historical string `json:"historical"`
	Patterns   string `json:"patterns"`
}

// ClimateGroups is the merged output of one aggregation run.
type ClimateGroups struct {
	Temperature   TemperatureGroup   `json:"temperature"`
	Precipitation PrecipitationGroup `json:"precipitation"`
	Wind          WindGroup          `json:"wind"`
	Solar         SolarGroup         `json:"solar"`
	Sources       ClimateSources     `json:"sources"`
}

// ClimateData is the persisted climate record of a site (at most one per site).
type ClimateData struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	EPWFilePath    *string   `json:"epw_file_path"`
	ClimateGroups
	ID             int64 `json:"id"`
	SiteAnalysisID int64 `json:"site_analysis_id"`
}

// Value implements driver.Valuer for jsonb storage.
func (g TemperatureGroup) Value() (driver.Value, error) { return jsonValue(g) }

// Scan implements sql.Scanner for jsonb storage.
func (g *TemperatureGroup) Scan(src interface{}) error { return jsonScan(src, g) }

// Value implements driver.Valuer for jsonb storage.
func (g PrecipitationGroup) Value() (driver.Value, error) { return jsonValue(g) }

// Scan implements sql.Scanner for jsonb storage.
func (g *PrecipitationGroup) Scan(src interface{}) error { return jsonScan(src, g) }

// Value implements driver.Valuer for jsonb storage.
func (g WindGroup) Value() (driver.Value, error) { return jsonValue(g) }

// Scan implements sql.Scanner for jsonb storage.
func (g *WindGroup) Scan(src interface{}) error { return jsonScan(src, g) }

// Value implements driver.Valuer for jsonb storage.
func (g SolarGroup) Value() (driver.Value, error) { return jsonValue(g) }

// Scan implements sql.Scanner for jsonb storage.
func (g *SolarGroup) Scan(src interface{}) error { return jsonScan(src, g) }

// Value implements driver.Valuer for jsonb storage.
func (s ClimateSources) Value() (driver.Value, error) { return jsonValue(s) }

// Scan implements sql.Scanner for jsonb storage.
func (s *ClimateSources) Scan(src interface{}) error { return jsonScan(src, s) }

func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return string(data), nil
}

func jsonScan(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("failed to scan %T: unsupported source type %T", dst, src)
	}
}

// ClimateSummary is an ad-hoc climate report for a coordinate. It is never
// persisted.
type ClimateSummary struct {
	Timestamp       time.Time         `json:"timestamp"`
	ClimateZone     ClimateZone       `json:"climate_zone"`
	Coordinates     Coordinates       `json:"coordinates"`
	CurrentWeather  CurrentConditions `json:"current_weather"`
	ClimatePatterns ClimatePatterns   `json:"climate_patterns"`
}
