package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/stwalsh4118/siteanalysis/internal/logger"
	"github.com/stwalsh4118/siteanalysis/internal/metrics"
	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// FeatureSource returns raw map features around a point.
type FeatureSource interface {
	Features(ctx context.Context, lat, lon float64, radius int) ([]models.RawFeature, error)
}

// Extractor turns provider records into classified feature records.
type Extractor struct {
	source  FeatureSource
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewExtractor creates an Extractor reading from source.
func NewExtractor(source FeatureSource, log *logger.Logger, m *metrics.Metrics) *Extractor {
	return &Extractor{
		source:  source,
		logger:  log.WithComponent("extractor"),
		metrics: m,
	}
}

// Extract queries the source once and normalizes and classifies each record.
// Records that cannot be normalized are logged and skipped; a source failure
// is returned.
func (e *Extractor) Extract(ctx context.Context, lat, lon float64, radius int) ([]models.FeatureRecord, error) {
	fields := logger.Fields{"latitude": lat, "longitude": lon, "radius": radius}

	// Query the map-feature provider
	raws, err := e.source.Features(ctx, lat, lon, radius)
	if err != nil {
		e.logger.Error("Feature extraction failed", err, fields)
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	if len(raws) == 0 {
		e.logger.Warn("No features found in the specified area", fields)
		return []models.FeatureRecord{}, nil
	}

	// Normalize and classify each record, skipping the malformed ones
	records := make([]models.FeatureRecord, 0, len(raws))
	skipped := 0
	for _, raw := range raws {
		record, err := buildRecord(raw)
		if err != nil {
			skipped++
			e.logger.Warn("Skipping feature", logger.Fields{
				"external_id": fmt.Sprint(raw.ExternalID),
				"error":       err.Error(),
			})
			continue
		}
		records = append(records, record)
	}

	// Log results
	e.metrics.AddExtracted(len(records))
	e.metrics.AddSkipped("malformed", skipped)
	e.logger.Info("Extracted features", logger.Fields{
		"latitude":  lat,
		"longitude": lon,
		"radius":    radius,
		"extracted": len(records),
		"skipped":   skipped,
	})
	return records, nil
}

func buildRecord(raw models.RawFeature) (models.FeatureRecord, error) {
	id, err := SurrogateID(raw.ExternalID)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	normalized, err := NormalizeFeature(raw)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	return models.FeatureRecord{
		Properties:  normalized.Properties,
		FeatureType: ClassifyFeature(normalized.Properties),
		GeometryWKT: normalized.GeometryWKT,
		OSMID:       id,
	}, nil
}

// SurrogateID maps a provider identifier to an int64. Integral values are
// kept; anything else is hashed with xxhash64 over its string form and the
// sign bit cleared, so the same identifier always maps to the same id.
func SurrogateID(externalID interface{}) (int64, error) {
	if externalID == nil {
		return 0, ErrMissingID
	}

	switch v := externalID.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, nil
		}
		if f, err := v.Float64(); err == nil {
			if n, ok := integral(f); ok {
				return n, nil
			}
		}
	case float64:
		if n, ok := integral(v); ok {
			return n, nil
		}
	case float32:
		if n, ok := integral(float64(v)); ok {
			return n, nil
		}
	default:
		rv := reflect.ValueOf(externalID)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if u := rv.Uint(); u <= math.MaxInt64 {
				return int64(u), nil
			}
		}
	}

	return int64(xxhash.Sum64String(fmt.Sprint(externalID)) &^ (1 << 63)), nil
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
