package climate

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/metrics"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// Metric source labels.
const (
	sourceCurrent    = "current"
	sourceHistorical = "historical"
)

// RetryConfig bounds retries of transient provider failures. Retries counts
// calls after the first one.
type RetryConfig struct {
	Retries         int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetry calls the provider at most attempts times, backing off from 500ms.
func DefaultRetry(attempts int) RetryConfig {
	if attempts < 1 {
		attempts = 1
	}
	return RetryConfig{
		Retries:         attempts - 1,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func withRetry[T any](ctx context.Context, cfg RetryConfig, op func() (T, error)) (T, error) {
	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(cfg.InitialInterval),
		backoff.WithMaxInterval(cfg.MaxInterval),
	)
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)

	return backoff.RetryWithData(func() (T, error) {
		v, err := op()
		if err != nil && !IsTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}

// FallbackCurrent serves the primary provider and switches to the fallback
// when the primary fails after retries.
type FallbackCurrent struct {
	primary  CurrentProvider
	fallback CurrentProvider
	logger   *logger.Logger
	metrics  *metrics.Metrics
	retry    RetryConfig
}

// NewFallbackCurrent wraps primary with fallback.
func NewFallbackCurrent(primary, fallback CurrentProvider, retry RetryConfig, log *logger.Logger, m *metrics.Metrics) *FallbackCurrent {
	return &FallbackCurrent{
		primary:  primary,
		fallback: fallback,
		logger:   log.WithComponent("climate"),
		metrics:  m,
		retry:    retry,
	}
}

// Name reports the primary provider.
func (f *FallbackCurrent) Name() string { return f.primary.Name() }

// Current implements CurrentProvider. It only fails if the fallback does.
func (f *FallbackCurrent) Current(ctx context.Context, lat, lon float64) (models.CurrentConditions, error) {
	result, err := withRetry(ctx, f.retry, func() (models.CurrentConditions, error) {
		return f.primary.Current(ctx, lat, lon)
	})
	if err == nil {
		f.metrics.ClimateResult(sourceCurrent, metrics.ResultLive)
		return result, nil
	}

	f.logger.Warn("Current weather unavailable, using fallback", logger.Fields{
		"provider":  f.primary.Name(),
		"fallback":  f.fallback.Name(),
		"latitude":  lat,
		"longitude": lon,
		"error":     err.Error(),
	})
	f.metrics.ClimateResult(sourceCurrent, metrics.ResultFallback)
	return f.fallback.Current(ctx, lat, lon)
}

// FallbackHistorical is FallbackCurrent for historical statistics.
type FallbackHistorical struct {
	primary  HistoricalProvider
	fallback HistoricalProvider
	logger   *logger.Logger
	metrics  *metrics.Metrics
	retry    RetryConfig
}

// NewFallbackHistorical wraps primary with fallback.
func NewFallbackHistorical(primary, fallback HistoricalProvider, retry RetryConfig, log *logger.Logger, m *metrics.Metrics) *FallbackHistorical {
	return &FallbackHistorical{
		primary:  primary,
		fallback: fallback,
		logger:   log.WithComponent("climate"),
		metrics:  m,
		retry:    retry,
	}
}

// Name reports the primary provider.
func (f *FallbackHistorical) Name() string { return f.primary.Name() }

// Historical implements HistoricalProvider. It only fails if the fallback does.
func (f *FallbackHistorical) Historical(ctx context.Context, lat, lon float64, window Window) (models.HistoricalStats, error) {
	result, err := withRetry(ctx, f.retry, func() (models.HistoricalStats, error) {
		return f.primary.Historical(ctx, lat, lon, window)
	})
	if err == nil {
		f.metrics.ClimateResult(sourceHistorical, metrics.ResultLive)
		return result, nil
	}

	f.logger.Warn("Historical climate data unavailable, using fallback", logger.Fields{
		"provider":  f.primary.Name(),
		"fallback":  f.fallback.Name(),
		"latitude":  lat,
		"longitude": lon,
		"error":     err.Error(),
	})
	f.metrics.ClimateResult(sourceHistorical, metrics.ResultFallback)
	return f.fallback.Historical(ctx, lat, lon, window)
}
