package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
)

// TagKind identifies which scalar a TagValue holds.
type TagKind uint8

const (
	// TagMissing is the zero TagValue; it never appears in a normalized Tags map.
	TagMissing TagKind = iota
	TagString
	TagNumber
	TagBool
)

// TagValue is a single OSM attribute value: a string, a number or a boolean.
type TagValue struct {
	kind TagKind
	str  string
	num  float64
	b    bool
}

// StringTag returns a string-valued tag.
func StringTag(s string) TagValue {
	return TagValue{kind: TagString, str: s}
}

// NumberTag returns a number-valued tag.
func NumberTag(n float64) TagValue {
	return TagValue{kind: TagNumber, num: n}
}

// BoolTag returns a boolean-valued tag.
func BoolTag(b bool) TagValue {
	return TagValue{kind: TagBool, b: b}
}

// Kind reports which scalar the value holds.
func (v TagValue) Kind() TagKind {
	return v.kind
}

// IsMissing reports whether the value is the zero TagValue.
func (v TagValue) IsMissing() bool {
	return v.kind == TagMissing
}

// Str returns the string payload and whether the value is a string.
func (v TagValue) Str() (string, bool) {
	return v.str, v.kind == TagString
}

// Number returns the numeric payload and whether the value is a number.
func (v TagValue) Number() (float64, bool) {
	return v.num, v.kind == TagNumber
}

// Bool returns the boolean payload and whether the value is a boolean.
func (v TagValue) Bool() (bool, bool) {
	return v.b, v.kind == TagBool
}

// String renders the value the way it would appear in an OSM tag.
func (v TagValue) String() string {
	switch v.kind {
	case TagString:
		return v.str
	case TagNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case TagBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns the payload as a plain Go value (string, float64, bool or nil).
func (v TagValue) Interface() interface{} {
	switch v.kind {
	case TagString:
		return v.str
	case TagNumber:
		return v.num
	case TagBool:
		return v.b
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v TagValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON implements json.Unmarshaler. Only JSON scalars are accepted.
func (v *TagValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("failed to unmarshal tag value: %w", err)
	}

	switch val := raw.(type) {
	case nil:
		*v = TagValue{}
	case string:
		*v = StringTag(val)
	case bool:
		*v = BoolTag(val)
	case json.Number:
		n, err := val.Float64()
		if err != nil {
			return fmt.Errorf("invalid numeric tag value %q: %w", val, err)
		}
		*v = NumberTag(n)
	default:
		return fmt.Errorf("tag values must be scalars, got %T", raw)
	}
	return nil
}

// Tags is the attribute bag of a feature.
type Tags map[string]TagValue

// Has reports whether key is present with a non-missing value.
func (t Tags) Has(key string) bool {
	v, ok := t[key]
	return ok && !v.IsMissing()
}

// Get returns the value for key, or the zero TagValue.
func (t Tags) Get(key string) TagValue {
	return t[key]
}

// Map flattens the tags into plain Go values, e.g. for GeoJSON properties.
func (t Tags) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(t))
	for k, v := range t {
		out[k] = v.Interface()
	}
	return out
}

// Value implements driver.Valuer; tags are stored as jsonb.
func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner for jsonb columns.
func (t *Tags) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case map[string]interface{}:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return fmt.Errorf("failed to scan tags: %w", err)
		}
	default:
		return fmt.Errorf("failed to scan Tags: unsupported type %T", value)
	}

	parsed := Tags{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	*t = parsed
	return nil
}
