package models

import "github.com/twpayne/go-geom"

// RawFeature is a record as delivered by the map-feature provider, before
// normalization. ExternalID is whatever the provider uses to identify the
// record (an integer or a string); Attributes may hold any JSON-ish value.
type RawFeature struct {
	ExternalID interface{}
	Geometry   geom.T
	Attributes map[string]interface{}
}
