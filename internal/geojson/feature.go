package geojson

import "time"

// Feature wraps a geometry with its descriptive properties.
type Feature struct {
	Type       string         `json:"type" bson:"type"`
	Geometry   *Geometry      `json:"geometry" bson:"geometry"`
	Properties map[string]any `json:"properties" bson:"properties"`
}

// NewFeature builds a Feature around the given geometry.
func NewFeature(geometry *Geometry, properties map[string]any) Feature {
	return Feature{
		Type:       "Feature",
		Geometry:   geometry,
		Properties: properties,
	}
}

// Metadata describes the batch a FeatureCollection was derived from.
type Metadata struct {
	TotalFeatures       int       `json:"total_features" bson:"total_features"`
	ExtractionTimestamp time.Time `json:"extraction_timestamp" bson:"extraction_timestamp"`
	Source              string    `json:"source" bson:"source"`
}

// FeatureCollection is a GeoJSON FeatureCollection plus run-level metadata.
type FeatureCollection struct {
	Type     string    `json:"type" bson:"type"`
	Features []Feature `json:"features" bson:"features"`
	Metadata Metadata  `json:"metadata" bson:"metadata"`
}

// NewFeatureCollection assembles a FeatureCollection for one extraction run.
func NewFeatureCollection(features []Feature, extractedAt time.Time, source string) *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: Metadata{
			TotalFeatures:       len(features),
			ExtractionTimestamp: extractedAt,
			Source:              source,
		},
	}
}
