package models

import "fmt"

// FeatureType is the single category assigned to an environmental feature.
type FeatureType string

// Feature categories.
const (
	FeatureTypeLanduse  FeatureType = "landuse"
	FeatureTypeNatural  FeatureType = "natural"
	FeatureTypeLeisure  FeatureType = "leisure"
	FeatureTypeHighway  FeatureType = "highway"
	FeatureTypeBuilding FeatureType = "building"
	FeatureTypeAmenity  FeatureType = "amenity"
	FeatureTypeOther    FeatureType = "other"
)

// FeatureTypes lists every category in catalogue order.
var FeatureTypes = []FeatureType{
	FeatureTypeLanduse,
	FeatureTypeNatural,
	FeatureTypeLeisure,
	FeatureTypeHighway,
	FeatureTypeBuilding,
	FeatureTypeAmenity,
	FeatureTypeOther,
}

var featureTypeDescriptions = map[FeatureType]string{
	FeatureTypeLanduse:  "Land Use",
	FeatureTypeNatural:  "Natural Feature",
	FeatureTypeLeisure:  "Leisure Area",
	FeatureTypeHighway:  "Transportation",
	FeatureTypeBuilding: "Building",
	FeatureTypeAmenity:  "Amenity",
	FeatureTypeOther:    "Other",
}

// FeatureTypeInfo describes a category for catalogue listings.
type FeatureTypeInfo struct {
	Value       FeatureType `json:"value"`
	Description string      `json:"description"`
}

// Valid reports whether t is one of the known categories.
func (t FeatureType) Valid() bool {
	_, ok := featureTypeDescriptions[t]
	return ok
}

// Description returns the human readable label for t.
func (t FeatureType) Description() string {
	return featureTypeDescriptions[t]
}

// ParseFeatureType validates s as a category name.
func ParseFeatureType(s string) (FeatureType, error) {
	t := FeatureType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown feature type %q", s)
	}
	return t, nil
}
