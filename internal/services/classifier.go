package services

import "github.com/stwalsh4118/siteanalysis/internal/models"

// classificationOrder is checked top to bottom; the first tag present wins.
var classificationOrder = []struct {
	key         string
	featureType models.FeatureType
}{
	{key: "landuse", featureType: models.FeatureTypeLanduse},
	{key: "natural", featureType: models.FeatureTypeNatural},
	{key: "leisure", featureType: models.FeatureTypeLeisure},
	{key: "amenity", featureType: models.FeatureTypeAmenity},
	{key: "highway", featureType: models.FeatureTypeHighway},
}

// ClassifyFeature assigns exactly one category to a tag set.
func ClassifyFeature(tags models.Tags) models.FeatureType {
	for _, rule := range classificationOrder {
		if tags.Has(rule.key) {
			return rule.featureType
		}
	}
	return models.FeatureTypeOther
}
