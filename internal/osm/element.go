package osm

import (
	"fmt"

	"github.com/stwalsh4118/siteanalysis/internal/models"
	"github.com/twpayne/go-geom"
)

// response is the Overpass JSON envelope.
type response struct {
	Remark   string    `json:"remark"`
	Elements []element `json:"elements"`
}

type element struct {
	Tags     map[string]string `json:"tags"`
	Lat      *float64          `json:"lat"`
	Lon      *float64          `json:"lon"`
	Type     string            `json:"type"`
	Geometry []latLon          `json:"geometry"`
	Members  []member          `json:"members"`
	ID       int64             `json:"id"`
}

type member struct {
	Type     string   `json:"type"`
	Role     string   `json:"role"`
	Geometry []latLon `json:"geometry"`
	Ref      int64    `json:"ref"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Tags that never form an area on a closed way unless area=yes is present.
var linearKeys = []string{"highway", "barrier", "railway", "waterway"}

var linearNaturalValues = map[string]bool{
	"coastline": true,
	"cliff":     true,
	"ridge":     true,
	"arete":     true,
	"tree_row":  true,
}

// toRawFeature converts an element into a provider-neutral record. Elements
// whose geometry cannot be built get a nil geometry so normalization drops
// them. Node, way and relation ids are separate namespaces, so the external
// id is the "type/id" pair.
func (e element) toRawFeature() models.RawFeature {
	attrs := make(map[string]interface{}, len(e.Tags)+2)
	for k, v := range e.Tags {
		attrs[k] = v
	}
	attrs["element_type"] = e.Type
	attrs["osmid"] = e.ID

	return models.RawFeature{
		ExternalID: e.externalID(),
		Geometry:   e.geometry(),
		Attributes: attrs,
	}
}

func (e element) externalID() string {
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

func (e element) geometry() geom.T {
	switch e.Type {
	case "node":
		if e.Lat == nil || e.Lon == nil {
			return nil
		}
		return geom.NewPointFlat(geom.XY, []float64{*e.Lon, *e.Lat}).SetSRID(models.SRID)
	case "way":
		return wayGeometry(e.Geometry, e.isArea())
	case "relation":
		if t := e.Tags["type"]; t != "multipolygon" && t != "boundary" {
			return nil
		}
		return relationGeometry(e.Members)
	default:
		return nil
	}
}

func (e element) isArea() bool {
	switch e.Tags["area"] {
	case "yes":
		return true
	case "no":
		return false
	}
	for _, k := range linearKeys {
		if _, ok := e.Tags[k]; ok {
			return false
		}
	}
	return !linearNaturalValues[e.Tags["natural"]]
}

func wayGeometry(points []latLon, area bool) geom.T {
	if len(points) < 2 {
		return nil
	}
	flat := flatCoords(points)
	if area && len(points) >= 4 && isClosed(points) {
		return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(models.SRID)
	}
	return geom.NewLineStringFlat(geom.XY, flat).SetSRID(models.SRID)
}

// relationGeometry assembles outer and inner member ways into rings and
// returns a MultiPolygon. Inner rings are attached to the first outer ring
// that contains their first vertex.
func relationGeometry(members []member) geom.T {
	var outerParts, innerParts [][]latLon
	for _, m := range members {
		if m.Type != "way" || len(m.Geometry) < 2 {
			continue
		}
		if m.Role == "inner" {
			innerParts = append(innerParts, m.Geometry)
		} else {
			outerParts = append(outerParts, m.Geometry)
		}
	}

	outers := assembleRings(outerParts)
	if len(outers) == 0 {
		return nil
	}
	inners := assembleRings(innerParts)

	holes := make([][][]latLon, len(outers))
	for _, inner := range inners {
		for i, outer := range outers {
			if ringContains(outer, inner[0]) {
				holes[i] = append(holes[i], inner)
				break
			}
		}
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(models.SRID)
	for i, outer := range outers {
		var flat []float64
		var ends []int
		flat = append(flat, flatCoords(outer)...)
		ends = append(ends, len(flat))
		for _, hole := range holes[i] {
			flat = append(flat, flatCoords(hole)...)
			ends = append(ends, len(flat))
		}
		if err := mp.Push(geom.NewPolygonFlat(geom.XY, flat, ends)); err != nil {
			return nil
		}
	}
	return mp
}

// assembleRings joins way segments end to end into closed rings. Segments
// that never close are dropped.
func assembleRings(parts [][]latLon) [][]latLon {
	remaining := make([][]latLon, len(parts))
	copy(remaining, parts)

	var rings [][]latLon
	for len(remaining) > 0 {
		ring := append([]latLon(nil), remaining[0]...)
		remaining = remaining[1:]

		for !isClosed(ring) {
			joined := false
			for i, part := range remaining {
				end := ring[len(ring)-1]
				switch {
				case part[0] == end:
					ring = append(ring, part[1:]...)
				case part[len(part)-1] == end:
					ring = append(ring, reversed(part)[1:]...)
				default:
					continue
				}
				remaining = append(remaining[:i], remaining[i+1:]...)
				joined = true
				break
			}
			if !joined {
				break
			}
		}

		if isClosed(ring) && len(ring) >= 4 {
			rings = append(rings, ring)
		}
	}
	return rings
}

// ringContains is a ray-casting point-in-polygon test in lon/lat space.
func ringContains(ring []latLon, p latLon) bool {
	inside := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) &&
			p.Lon < (b.Lon-a.Lon)*(p.Lat-a.Lat)/(b.Lat-a.Lat)+a.Lon {
			inside = !inside
		}
	}
	return inside
}

func isClosed(points []latLon) bool {
	return len(points) > 1 && points[0] == points[len(points)-1]
}

func reversed(points []latLon) []latLon {
	out := make([]latLon, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func flatCoords(points []latLon) []float64 {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.Lon, p.Lat)
	}
	return flat
}
