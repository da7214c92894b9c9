package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// Normalization errors. Records failing with these are skipped, never fatal.
var (
	ErrEmptyGeometry = errors.New("geometry is missing or empty")
	ErrMissingID     = errors.New("external id is missing")
)

// geometryAttribute is never copied into properties.
const geometryAttribute = "geometry"

// NormalizedFeature is a raw record reduced to serializable parts.
type NormalizedFeature struct {
	Properties  models.Tags
	GeometryWKT string
}

// NormalizeFeature renders the geometry as WKT and keeps every non-missing
// attribute as a scalar tag.
func NormalizeFeature(raw models.RawFeature) (NormalizedFeature, error) {
	if models.IsEmptyGeometry(raw.Geometry) {
		return NormalizedFeature{}, ErrEmptyGeometry
	}

	text, err := wkt.Marshal(raw.Geometry)
	if err != nil {
		return NormalizedFeature{}, fmt.Errorf("failed to encode geometry: %w", err)
	}

	props := make(models.Tags, len(raw.Attributes))
	for key, value := range raw.Attributes {
		if key == geometryAttribute {
			continue
		}
		if tag, ok := toTagValue(value); ok {
			props[key] = tag
		}
	}

	return NormalizedFeature{Properties: props, GeometryWKT: text}, nil
}

// toTagValue unwraps numeric wrappers and sized numbers into a TagValue.
// Missing values (nil, NaN) report false. Non-scalars fall back to their
// string form.
func toTagValue(value interface{}) (models.TagValue, bool) {
	switch v := value.(type) {
	case nil:
		return models.TagValue{}, false
	case models.TagValue:
		return v, !v.IsMissing()
	case string:
		return models.StringTag(v), true
	case bool:
		return models.BoolTag(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return models.StringTag(v.String()), true
		}
		return numberTag(f)
	case float64:
		return numberTag(v)
	case float32:
		return numberTag(float64(v))
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return models.NumberTag(float64(rv.Int())), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return models.NumberTag(float64(rv.Uint())), true
	case reflect.Float32, reflect.Float64:
		return numberTag(rv.Float())
	case reflect.String:
		return models.StringTag(rv.String()), true
	case reflect.Bool:
		return models.BoolTag(rv.Bool()), true
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return models.TagValue{}, false
		}
		return toTagValue(rv.Elem().Interface())
	default:
		return models.StringTag(fmt.Sprint(value)), true
	}
}

func numberTag(f float64) (models.TagValue, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return models.TagValue{}, false
	}
	return models.NumberTag(f), true
}
