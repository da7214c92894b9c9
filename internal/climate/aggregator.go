package climate

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/stwalsh4118/siteanalysis/internal/models"
	"golang.org/x/sync/errgroup"
)

// Aggregator fetches the three climate sources concurrently and merges them
// into the stored record shape.
type Aggregator struct {
	current    CurrentProvider
	historical HistoricalProvider
	clock      clockwork.Clock
}

// NewAggregator creates an Aggregator. The providers are expected to carry
// their own fallback so they do not fail in practice.
func NewAggregator(current CurrentProvider, historical HistoricalProvider, clock clockwork.Clock) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{
		current:    current,
		historical: historical,
		clock:      clock,
	}
}

// Aggregate returns the merged climate groups for (lat, lon).
func (a *Aggregator) Aggregate(ctx context.Context, lat, lon float64) (models.ClimateGroups, error) {
	var (
		current    models.CurrentConditions
		historical models.HistoricalStats
		patterns   models.ClimatePatterns
	)
	window := TrailingYear(a.clock.Now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if current, err = a.current.Current(gctx, lat, lon); err != nil {
			return fmt.Errorf("current conditions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if historical, err = a.historical.Historical(gctx, lat, lon, window); err != nil {
			return fmt.Errorf("historical statistics: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		patterns = Patterns(lat, lon)
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ClimateGroups{}, err
	}

	return Merge(current, historical, patterns), nil
}

// Summary reports the zone, present conditions and patterns for a
// coordinate without touching storage.
func (a *Aggregator) Summary(ctx context.Context, lat, lon float64) (models.ClimateSummary, error) {
	current, err := a.current.Current(ctx, lat, lon)
	if err != nil {
		return models.ClimateSummary{}, fmt.Errorf("current conditions: %w", err)
	}
	patterns := Patterns(lat, lon)

	return models.ClimateSummary{
		Timestamp:       a.clock.Now().UTC(),
		ClimateZone:     patterns.Zone,
		Coordinates:     models.Coordinates{Latitude: lat, Longitude: lon},
		CurrentWeather:  current,
		ClimatePatterns: patterns,
	}, nil
}

// Merge arranges the three source results into the four stored groups.
func Merge(current models.CurrentConditions, historical models.HistoricalStats, patterns models.ClimatePatterns) models.ClimateGroups {
	return models.ClimateGroups{
		Temperature: models.TemperatureGroup{
			Current:         current.Temperature,
			HistoricalAvg:   historical.Temperature,
			MonthlyAverages: patterns.Temperature,
		},
		Precipitation: models.PrecipitationGroup{
			Current:        current.Precipitation,
			Historical:     historical.Precipitation,
			AnnualPatterns: patterns.Precipitation,
		},
		Wind: models.WindGroup{
			Current:  current.Wind,
			Patterns: historical.Wind,
			Seasonal: patterns.Wind,
		},
		Solar: models.SolarGroup{
			Current:        current.Solar,
			Radiation:      historical.Solar,
			YearlyPatterns: patterns.Solar,
		},
		Sources: models.ClimateSources{
			Current:    current.Source,
			Historical: historical.Source,
			Patterns:   models.SourceRules,
		},
	}
}
