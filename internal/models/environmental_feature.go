package models

import "time"

// EnvironmentalFeature is a classified map feature found within a site's radius.
// (SiteAnalysisID, OSMID) is unique.
type EnvironmentalFeature struct {
	CreatedAt      time.Time   `json:"created_at"`
	Properties     Tags        `json:"properties"`
	Geometry       Geometry    `json:"geometry"`
	FeatureType    FeatureType `json:"feature_type"`
	ID             int64       `json:"id"`
	SiteAnalysisID int64       `json:"site_analysis_id"`
	OSMID          int64       `json:"osm_id"`
}

// FeatureRecord is a normalized, classified feature ready to be persisted.
type FeatureRecord struct {
	Properties  Tags
	FeatureType FeatureType
	GeometryWKT string
	OSMID       int64
}
