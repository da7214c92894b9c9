package osm

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TagRule selects elements carrying Key. An empty Values list accepts any
// value; otherwise the tag value must be one of Values.
type TagRule struct {
	Key    string
	Values []string
}

// TagFilter is the union of its rules.
type TagFilter []TagRule

// DefaultTagFilter selects the environmental features of interest: any
// landuse, natural or leisure tag, plus green amenities and foot/cycle paths.
var DefaultTagFilter = TagFilter{
	{Key: "landuse"},
	{Key: "natural"},
	{Key: "leisure"},
	{Key: "amenity", Values: []string{"park", "playground", "garden"}},
	{Key: "highway", Values: []string{"footway", "path", "cycleway"}},
}

// BuildQuery renders an Overpass QL query for every element matching filter
// within radius meters of (lat, lon), with inline geometry.
func BuildQuery(lat, lon float64, radius int, filter TagFilter, timeout time.Duration) string {
	around := fmt.Sprintf("(around:%d,%.7f,%.7f)", radius, lat, lon)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", int(timeout.Seconds()))
	for _, rule := range filter {
		fmt.Fprintf(&b, "  nwr%s%s;\n", rule.selector(), around)
	}
	b.WriteString(");\nout geom;")
	return b.String()
}

func (r TagRule) selector() string {
	if len(r.Values) == 0 {
		return fmt.Sprintf("[%q]", r.Key)
	}
	quoted := make([]string, len(r.Values))
	for i, v := range r.Values {
		quoted[i] = regexp.QuoteMeta(v)
	}
	return fmt.Sprintf("[%q~\"^(%s)$\"]", r.Key, strings.Join(quoted, "|"))
}
