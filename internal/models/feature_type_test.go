package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureTypeCatalogue(t *testing.T) {
	assert.Len(t, FeatureTypes, 7)
	for _, ft := range FeatureTypes {
		assert.True(t, ft.Valid(), ft)
		assert.NotEmpty(t, ft.Description(), ft)
	}
	assert.Equal(t, "Transportation", FeatureTypeHighway.Description())
}

func TestParseFeatureType(t *testing.T) {
	ft, err := ParseFeatureType("natural")
	assert.NoError(t, err)
	assert.Equal(t, FeatureTypeNatural, ft)

	_, err = ParseFeatureType("waterway")
	assert.Error(t, err)
}

func TestDefaultSiteName(t *testing.T) {
	assert.Equal(t, "Site at 30.2672, -97.7431", DefaultSiteName(30.267153, -97.743061))
}
