package models

// AnalysisSummary aggregates a site's persisted features.
// ApproximateTotalAreaSqm rescales degree² areas by a fixed planar factor and
// is only meaningful near the equator and for small radii.
type AnalysisSummary struct {
	FeatureCounts           map[FeatureType]int `json:"feature_counts"`
	CenterCoordinates       Coordinates         `json:"center_coordinates"`
	TotalFeatures           int                 `json:"total_features"`
	ApproximateTotalAreaSqm float64             `json:"approximate_total_area_sqm"`
	AnalysisRadius          int                 `json:"analysis_radius"`
}
