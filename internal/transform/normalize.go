package transform

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// sentinelTokens are text values that mean "no data" despite being present.
// Matching is case-insensitive after trimming.
var sentinelTokens = map[string]struct{}{
	"":     {},
	"n/a":  {},
	"null": {},
	"none": {},
}

// Canonical field aliases, in precedence order: earlier keys win when a raw
// record carries several of them. The portal mixes English and French field
// names depending on the dataset revision.
var (
	idAliases      = []string{"id", "_id"}
	nameAliases    = []string{"name", "nom", "title"}
	typeAliases    = []string{"type", "type_piste", "category"}
	surfaceAliases = []string{"surface", "revetement", "material"}
	lengthAliases  = []string{"length_km", "longueur_km", "length"}

	geometryKeys = []string{"geometry", "geom", "shape", "coordinates"}
	latKeys      = []string{"latitude", "lat", "y", "coord_y"}
	lonKeys      = []string{"longitude", "lon", "lng", "x", "coord_x"}
)

// consumedKeys is the union of every key the transformer interprets, plus
// the canonical output field names. Anything else in a raw record lands in
// the residual properties verbatim.
var consumedKeys = buildConsumedKeys()

func buildConsumedKeys() map[string]struct{} {
	keys := make(map[string]struct{})
	for _, group := range [][]string{
		idAliases, nameAliases, typeAliases, surfaceAliases, lengthAliases,
		geometryKeys, latKeys, lonKeys,
		{"source_url", "extraction_timestamp", "last_updated", "properties"},
	} {
		for _, k := range group {
			keys[k] = struct{}{}
		}
	}
	return keys
}

// NormalizeText cleans a raw field value into canonical text. Absent input,
// whitespace-only input and sentinel tokens all yield ok=false. Non-string
// input is coerced to its string form first.
func NormalizeText(value any) (string, bool) {
	if value == nil {
		return "", false
	}
	s, isStr := value.(string)
	if !isStr {
		s = fmt.Sprintf("%v", value)
	}
	s = strings.TrimSpace(s)
	if _, sentinel := sentinelTokens[strings.ToLower(s)]; sentinel {
		return "", false
	}
	return s, true
}

// NormalizeNumber cleans a raw field value into a finite float. Unparseable
// input yields ok=false rather than an error; that is a deliberate
// lossy-clean policy, not a validation failure.
func NormalizeNumber(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if _, sentinel := sentinelTokens[strings.ToLower(s)]; sentinel {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// textField resolves a canonical text field from the first alias whose
// normalized value is present.
func textField(record map[string]any, aliases []string) *string {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok {
			continue
		}
		if s, ok := NormalizeText(value); ok {
			return &s
		}
	}
	return nil
}

// numberField resolves a canonical numeric field from the first alias whose
// normalized value is present.
func numberField(record map[string]any, aliases []string) *float64 {
	for _, key := range aliases {
		value, ok := record[key]
		if !ok {
			continue
		}
		if f, ok := NormalizeNumber(value); ok {
			return &f
		}
	}
	return nil
}

// residualProperties copies every raw key the transformer did not consume.
func residualProperties(record map[string]any) map[string]any {
	props := make(map[string]any)
	for key, value := range record {
		if _, consumed := consumedKeys[key]; consumed {
			continue
		}
		props[key] = value
	}
	return props
}
