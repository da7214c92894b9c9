package climate

import (
	"math"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// Zone classifies a latitude into a coarse climate band. Longitude is unused.
func Zone(lat float64) models.ClimateZone {
	absLat := math.Abs(lat)
	switch {
	case absLat > 66.5:
		return models.ZonePolar
	case absLat > 50:
		return models.ZoneSubarctic
	case absLat > 40:
		return models.ZoneTemperate
	case absLat > 23.5:
		return models.ZoneSubtropical
	default:
		return models.ZoneTropical
	}
}

// PrecipitationPattern names the rainfall regime for a latitude.
// Between 23.5° and 40° the band 30°–40° is mediterranean, the rest temperate.
func PrecipitationPattern(lat float64) string {
	absLat := math.Abs(lat)
	switch {
	case absLat < 10:
		return "equatorial_wet"
	case absLat < 23.5:
		return "tropical_seasonal"
	case absLat < 40:
		if absLat > 30 && absLat < 45 {
			return "mediterranean"
		}
		return "temperate"
	default:
		return "continental"
	}
}

// WindPattern returns the prevailing wind belt for a latitude.
func WindPattern(lat float64) models.WindPattern {
	absLat := math.Abs(lat)
	switch {
	case absLat < 5:
		return models.WindPattern{Dominant: "trade_winds", Seasonal: "monsoon"}
	case absLat < 30:
		return models.WindPattern{Dominant: "trade_winds", Seasonal: "variable"}
	case absLat < 60:
		return models.WindPattern{Dominant: "westerlies", Seasonal: "strong_variation"}
	default:
		return models.WindPattern{Dominant: "polar_easterlies", Seasonal: "extreme_variation"}
	}
}

// Patterns builds the full rule-based classification for (lat, lon).
func Patterns(lat, _ float64) models.ClimatePatterns {
	absLat := math.Abs(lat)
	zone := Zone(lat)

	return models.ClimatePatterns{
		Zone: zone,
		Temperature: models.TemperaturePattern{
			Zone:              zone,
			SeasonalVariation: ternary(absLat > 40, "high", "moderate"),
			FrostRisk:         ternary(absLat > 50, "high", "low"),
		},
		Precipitation: models.PrecipitationPattern{
			Pattern:     PrecipitationPattern(lat),
			Seasonality: ternary(absLat > 23.5, "distinct", "minimal"),
		},
		Wind: WindPattern(lat),
		Solar: models.SolarPattern{
			Availability:      ternary(absLat < 35, "high", "moderate"),
			SeasonalVariation: ternary(absLat > 40, "high", "low"),
		},
	}
}

func ternary(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}
