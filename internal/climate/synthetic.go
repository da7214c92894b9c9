package climate

import (
	"context"
	"math"
	"time"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// baseTemperature is a rough mean temperature (°C) for a latitude.
func baseTemperature(lat float64) float64 {
	return 20 - (math.Abs(lat)-23.5)*0.5
}

// SyntheticCurrent derives plausible present conditions from latitude alone.
// It never fails.
type SyntheticCurrent struct {
	now func() time.Time
}

// NewSyntheticCurrent returns a SyntheticCurrent stamped with now.
func NewSyntheticCurrent(now func() time.Time) *SyntheticCurrent {
	if now == nil {
		now = time.Now
	}
	return &SyntheticCurrent{now: now}
}

// Name identifies the provider in stored records.
func (s *SyntheticCurrent) Name() string { return models.SourceSynthetic }

// Current implements CurrentProvider.
func (s *SyntheticCurrent) Current(_ context.Context, lat, _ float64) (models.CurrentConditions, error) {
	return s.conditions(lat), nil
}

func (s *SyntheticCurrent) conditions(lat float64) models.CurrentConditions {
	base := baseTemperature(lat)
	gust := 8.2
	uv := 6.0

	return models.CurrentConditions{
		ObservedAt: s.now().UTC(),
		Source:     models.SourceSynthetic,
		Temperature: models.CurrentTemperature{
			Current:   base + 5,
			FeelsLike: base + 3,
			Min:       base,
			Max:       base + 10,
			Humidity:  65,
			Pressure:  1013,
		},
		Precipitation: models.CurrentPrecipitation{
			Description: "partly cloudy",
			Clouds:      30,
		},
		Wind: models.CurrentWind{
			Speed:     5.5,
			Direction: 225,
			Gust:      &gust,
		},
		Solar: models.CurrentSolar{
			Visibility: 10000,
			UVIndex:    &uv,
		},
	}
}

// SyntheticHistorical derives annual statistics from latitude alone.
// It never fails.
type SyntheticHistorical struct{}

// Name identifies the provider in stored records.
func (SyntheticHistorical) Name() string { return models.SourceSynthetic }

// Historical implements HistoricalProvider. The window is ignored.
func (SyntheticHistorical) Historical(_ context.Context, lat, _ float64, _ Window) (models.HistoricalStats, error) {
	return syntheticHistorical(lat), nil
}

func syntheticHistorical(lat float64) models.HistoricalStats {
	base := baseTemperature(lat)
	absLat := math.Abs(lat)

	return models.HistoricalStats{
		Source: models.SourceSynthetic,
		Temperature: models.HistoricalTemperature{
			AnnualAvg: base,
			Max:       base + 15,
			Min:       base - 10,
		},
		Precipitation: models.HistoricalPrecipitation{
			AnnualTotal: 800 + (60-absLat)*10,
			AvgDaily:    2.2,
		},
		Wind: models.HistoricalWind{
			Avg: 4.5 + absLat*0.1,
			Max: 12.3,
		},
		Solar: models.HistoricalSolar{
			AvgDaily: 5.5 - absLat*0.05,
			Peak:     8.2,
		},
	}
}
