package models

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// SRID is the spatial reference used for every stored geometry (WGS84).
const SRID = 4326

// Geometry wraps a go-geom geometry so it can travel through pgx and JSON.
// Reads expect ST_AsGeoJSON output; writes produce WKT for ST_GeomFromText.
type Geometry struct {
	geom.T
}

// NewGeometry wraps g.
func NewGeometry(g geom.T) Geometry {
	return Geometry{T: g}
}

// ParseWKT parses a well-known-text geometry.
func ParseWKT(s string) (Geometry, error) {
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return Geometry{}, fmt.Errorf("failed to parse WKT: %w", err)
	}
	return Geometry{T: g}, nil
}

// WKT renders the geometry as well-known text.
func (g Geometry) WKT() (string, error) {
	if g.T == nil {
		return "", fmt.Errorf("geometry is nil")
	}
	return wkt.Marshal(g.T)
}

// IsEmpty reports whether the geometry is absent or has no coordinates.
func (g Geometry) IsEmpty() bool {
	return IsEmptyGeometry(g.T)
}

// Area returns the planar area in squared coordinate units (degrees² for
// WGS84). Points and lines have zero area.
func (g Geometry) Area() float64 {
	return areaOf(g.T)
}

// IsEmptyGeometry reports whether g is nil or carries no coordinates.
func IsEmptyGeometry(g geom.T) bool {
	return g == nil || g.Empty()
}

func areaOf(g geom.T) float64 {
	switch t := g.(type) {
	case *geom.Polygon:
		return polygonArea(t)
	case *geom.MultiPolygon:
		var total float64
		for i := 0; i < t.NumPolygons(); i++ {
			total += polygonArea(t.Polygon(i))
		}
		return total
	case *geom.GeometryCollection:
		var total float64
		for _, child := range t.Geoms() {
			total += areaOf(child)
		}
		return total
	default:
		return 0
	}
}

// polygonArea subtracts holes from the shell. go-geom areas are signed by
// ring orientation, which OSM does not normalize.
func polygonArea(p *geom.Polygon) float64 {
	var area float64
	for i := 0; i < p.NumLinearRings(); i++ {
		ring := math.Abs(p.LinearRing(i).Area())
		if i == 0 {
			area += ring
		} else {
			area -= ring
		}
	}
	return math.Max(area, 0)
}

// Scan implements sql.Scanner for ST_AsGeoJSON output.
func (g *Geometry) Scan(value interface{}) error {
	if value == nil {
		g.T = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to scan Geometry: expected []byte or string, got %T", value)
	}

	var parsed geom.T
	if err := geojson.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}
	g.T = parsed
	return nil
}

// Value implements driver.Valuer. It returns WKT for use with ST_GeomFromText.
func (g Geometry) Value() (driver.Value, error) {
	if g.T == nil {
		return nil, nil
	}
	s, err := g.WKT()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry to WKT: %w", err)
	}
	return s, nil
}

// MarshalJSON renders the geometry as a GeoJSON geometry object.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.T == nil {
		return []byte("null"), nil
	}
	return geojson.Marshal(g.T)
}

// UnmarshalJSON parses a GeoJSON geometry object.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.T = nil
		return nil
	}
	var parsed geom.T
	if err := geojson.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal geometry: %w", err)
	}
	g.T = parsed
	return nil
}
