// Package climate fetches and classifies climate data for a coordinate.
//
// Live providers (OpenWeatherMap, NASA POWER) are wrapped by a Redis cache and
// then by a fallback decorator that retries transient failures and finally
// serves synthetic values derived from latitude, so callers always receive a
// fully populated result.
package climate

import (
	"context"
	"time"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// CurrentProvider returns present weather conditions.
type CurrentProvider interface {
	Name() string
	Current(ctx context.Context, lat, lon float64) (models.CurrentConditions, error)
}

// HistoricalProvider returns annual statistics over a date window.
type HistoricalProvider interface {
	Name() string
	Historical(ctx context.Context, lat, lon float64, window Window) (models.HistoricalStats, error)
}

// Window is an inclusive range of days.
type Window struct {
	Start time.Time
	End   time.Time
}

// TrailingYear is the 365 days ending at now (UTC).
func TrailingYear(now time.Time) Window {
	end := now.UTC()
	return Window{Start: end.AddDate(0, 0, -365), End: end}
}

const dayLayout = "20060102"

func (w Window) startDay() string { return w.Start.Format(dayLayout) }
func (w Window) endDay() string   { return w.End.Format(dayLayout) }
