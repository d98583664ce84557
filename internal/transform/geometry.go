package transform

import (
	"encoding/json"
	"strings"

	"github.com/lekaf974/qc-bike-path/internal/geojson"
)

// ResolveGeometry extracts an optional GeoJSON geometry from one raw record.
// Strategies are tried in fixed priority order: an embedded geometry object
// under one of the known keys (string values are parsed as JSON first), then
// a synthesized Point from latitude/longitude aliases. A record with neither
// yields nil, which is a valid terminal state, not an error.
func ResolveGeometry(record map[string]any) *geojson.Geometry {
	for _, key := range geometryKeys {
		raw, ok := record[key]
		if !ok || raw == nil {
			continue
		}

		candidate := raw
		if s, isStr := raw.(string); isStr {
			if strings.TrimSpace(s) == "" {
				continue
			}
			var parsed any
			if err := json.Unmarshal([]byte(s), &parsed); err != nil {
				// Unparseable candidate; fall through to the next key.
				continue
			}
			candidate = parsed
		}

		m, isMap := candidate.(map[string]any)
		if !isMap {
			continue
		}
		if g := geojson.FromMap(m); g.Valid() {
			return g
		}
	}

	lat, latOK := lookupNumber(record, latKeys)
	lon, lonOK := lookupNumber(record, lonKeys)
	if latOK && lonOK {
		// No range validation here: out-of-range coordinates still
		// produce a syntactically valid Point. Callers that care use
		// Geometry.CoordinatesInRange separately.
		return geojson.NewPoint(lon, lat)
	}

	return nil
}

func lookupNumber(record map[string]any, keys []string) (float64, bool) {
	for _, key := range keys {
		if value, ok := record[key]; ok {
			if f, ok := NormalizeNumber(value); ok {
				return f, true
			}
		}
	}
	return 0, false
}
