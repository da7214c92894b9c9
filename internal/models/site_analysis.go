package models

import (
	"fmt"
	"time"
)

// SiteAnalysis is one analysis request anchored at a WGS84 point.
// The point is stored as geometry(Point,4326); it is exposed here as
// separate latitude and longitude.
type SiteAnalysis struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	ID        int64     `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Radius    int       `json:"radius"`
}

// Coordinates returns the site's center point.
func (s *SiteAnalysis) Coordinates() Coordinates {
	return Coordinates{Latitude: s.Latitude, Longitude: s.Longitude}
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultSiteName is used when an analysis is created without a name.
func DefaultSiteName(lat, lon float64) string {
	return fmt.Sprintf("Site at %.4f, %.4f", lat, lon)
}
