package geojson

import (
	"encoding/json"
	"strconv"
)

// Geometry types recognized by this package.
const (
	TypePoint           = "Point"
	TypeLineString      = "LineString"
	TypePolygon         = "Polygon"
	TypeMultiPoint      = "MultiPoint"
	TypeMultiLineString = "MultiLineString"
	TypeMultiPolygon    = "MultiPolygon"
)

// Geometry is a GeoJSON geometry object. Coordinates keeps the raw nesting
// as decoded from JSON so values from arbitrary payloads survive round-trips
// into MongoDB and back.
type Geometry struct {
	Type        string `json:"type" bson:"type"`
	Coordinates any    `json:"coordinates" bson:"coordinates"`
}

// NewPoint builds a Point geometry in GeoJSON axis order, longitude first.
func NewPoint(lon, lat float64) *Geometry {
	return &Geometry{
		Type:        TypePoint,
		Coordinates: []any{lon, lat},
	}
}

// FromMap builds a Geometry from a generic decoded JSON object. It returns
// nil when the value does not carry a string "type" member.
func FromMap(m map[string]any) *Geometry {
	typ, ok := m["type"].(string)
	if !ok {
		return nil
	}
	return &Geometry{Type: typ, Coordinates: m["coordinates"]}
}

// Valid reports whether the coordinates nesting matches the declared type.
// It checks structure only: ring closure, winding and coordinate ranges are
// out of scope here.
func (g *Geometry) Valid() bool {
	if g == nil {
		return false
	}
	switch g.Type {
	case TypePoint:
		return isPosition(g.Coordinates)
	case TypeLineString, TypeMultiPoint:
		return isPositionSeq(g.Coordinates)
	case TypePolygon, TypeMultiLineString:
		return isNestedSeq(g.Coordinates, isPositionSeq)
	case TypeMultiPolygon:
		return isNestedSeq(g.Coordinates, func(v any) bool {
			return isNestedSeq(v, isPositionSeq)
		})
	}
	return false
}

// CoordinatesInRange reports whether every position lies within WGS-84
// bounds (longitude ±180, latitude ±90). Geometry resolution deliberately
// does not apply this check; callers that need range validation opt in.
func (g *Geometry) CoordinatesInRange() bool {
	if !g.Valid() {
		return false
	}
	return inRange(g.Coordinates)
}

func inRange(v any) bool {
	if isPosition(v) {
		s, _ := asSlice(v)
		lon, _ := toFloat(s[0])
		lat, _ := toFloat(s[1])
		return lon >= -180 && lon <= 180 && lat >= -90 && lat <= 90
	}
	s, ok := asSlice(v)
	if !ok {
		return false
	}
	for _, elem := range s {
		if !inRange(elem) {
			return false
		}
	}
	return len(s) > 0
}

// isPosition accepts a [lon, lat] or [lon, lat, elevation] coordinate.
func isPosition(v any) bool {
	s, ok := asSlice(v)
	if !ok || len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, c := range s {
		if _, ok := toFloat(c); !ok {
			return false
		}
	}
	return true
}

func isPositionSeq(v any) bool {
	return isNestedSeq(v, isPosition)
}

func isNestedSeq(v any, elemValid func(any) bool) bool {
	s, ok := asSlice(v)
	if !ok || len(s) == 0 {
		return false
	}
	for _, elem := range s {
		if !elemValid(elem) {
			return false
		}
	}
	return true
}

func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []float64:
		out := make([]any, len(s))
		for i, f := range s {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	}
	return 0, false
}
