package model

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lekaf974/qc-bike-path/internal/geojson"
)

// BikePathRecord is the canonical representation of one bike path entity.
// It is assembled by the transformer from a raw portal record and is
// immutable afterwards.
type BikePathRecord struct {
	ID       *string  `json:"id,omitempty" bson:"id,omitempty"`
	Name     *string  `json:"name,omitempty" bson:"name,omitempty"`
	Type     *string  `json:"type,omitempty" bson:"type,omitempty"`
	Surface  *string  `json:"surface,omitempty" bson:"surface,omitempty"`
	LengthKm *float64 `json:"length_km,omitempty" bson:"length_km,omitempty" validate:"omitempty,gte=0"`

	Geometry *geojson.Geometry `json:"geometry,omitempty" bson:"geometry,omitempty"`

	// Properties holds every raw source field not consumed by a canonical
	// field or by geometry extraction, preserved verbatim.
	Properties map[string]any `json:"properties" bson:"properties"`

	SourceURL           string     `json:"source_url" bson:"source_url" validate:"required"`
	ExtractionTimestamp time.Time  `json:"extraction_timestamp" bson:"extraction_timestamp" validate:"required"`
	LastUpdated         *time.Time `json:"last_updated,omitempty" bson:"last_updated,omitempty"`
}

// canonicalFieldNames are the named fields of BikePathRecord; the Properties
// map must never shadow one of them.
var canonicalFieldNames = map[string]struct{}{
	"id":                   {},
	"name":                 {},
	"type":                 {},
	"surface":              {},
	"length_km":            {},
	"geometry":             {},
	"properties":           {},
	"source_url":           {},
	"extraction_timestamp": {},
	"last_updated":         {},
}

// NewValidator returns a validator with the BikePathRecord invariants
// registered on top of the field tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(recordStructLevel, BikePathRecord{})
	return v
}

func recordStructLevel(sl validator.StructLevel) {
	rec := sl.Current().Interface().(BikePathRecord)

	if rec.Geometry != nil && !rec.Geometry.Valid() {
		sl.ReportError(rec.Geometry, "Geometry", "geometry", "geojson", "")
	}
	if rec.LengthKm != nil && (math.IsNaN(*rec.LengthKm) || math.IsInf(*rec.LengthKm, 0)) {
		sl.ReportError(rec.LengthKm, "LengthKm", "length_km", "finite", "")
	}
	for key := range rec.Properties {
		if _, clash := canonicalFieldNames[key]; clash {
			sl.ReportError(rec.Properties, "Properties", "properties", "canonicalkey", key)
		}
	}
}
