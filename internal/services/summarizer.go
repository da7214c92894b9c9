package services

import (
	"math"

	"github.com/stwalsh4118/siteanalysis/internal/models"
)

// squareMetersPerSquareDegree is a flat-earth conversion (111 km per degree
// on both axes). It overstates areas away from the equator.
const squareMetersPerSquareDegree = 111000.0 * 111000.0

// Summarize counts a site's features by type and approximates their area.
func Summarize(site *models.SiteAnalysis, features []models.EnvironmentalFeature) models.AnalysisSummary {
	counts := make(map[models.FeatureType]int)
	var area float64
	for _, f := range features {
		counts[f.FeatureType]++
		area += f.Geometry.Area() * squareMetersPerSquareDegree
	}

	return models.AnalysisSummary{
		FeatureCounts:           counts,
		CenterCoordinates:       site.Coordinates(),
		TotalFeatures:           len(features),
		ApproximateTotalAreaSqm: math.Round(area*100) / 100,
		AnalysisRadius:          site.Radius,
	}
}
