package transform

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/lekaf974/qc-bike-path/internal/geojson"
	"github.com/lekaf974/qc-bike-path/internal/model"
	"github.com/lekaf974/qc-bike-path/internal/worker"
)

// sourceLabel is the fixed provenance label carried by derived
// FeatureCollections.
const sourceLabel = "Quebec Open Data Portal"

// ErrNoRecords is returned when a non-empty input batch yields zero valid
// records. Individual record failures are ordinary data noise; losing the
// whole batch indicates a structural mismatch in the payload.
var ErrNoRecords = errors.New("no records were successfully transformed")

// Transformer turns raw portal records into canonical BikePathRecords.
// One Transformer represents one batch run: every record it produces shares
// the same extraction timestamp, so a batch is a single point-in-time
// snapshot.
type Transformer struct {
	sourceURL   string
	extractedAt time.Time
	workers     int
	validate    *validator.Validate
	log         zerolog.Logger
}

// New creates a Transformer for one batch run. sourceURL is recorded as
// provenance on every record. workers > 1 enables parallel record
// transformation; output ordering still follows input ordering.
func New(sourceURL string, workers int, log zerolog.Logger) *Transformer {
	if workers < 1 {
		workers = 1
	}
	return &Transformer{
		sourceURL:   sourceURL,
		extractedAt: time.Now().UTC(),
		workers:     workers,
		validate:    model.NewValidator(),
		log:         log,
	}
}

// ExtractedAt returns the shared snapshot timestamp for this run.
func (t *Transformer) ExtractedAt() time.Time {
	return t.extractedAt
}

// Record transforms a single raw record. A non-nil error means the record
// was dropped; Batch counts drops instead of propagating them.
func (t *Transformer) Record(raw map[string]any) (*model.BikePathRecord, error) {
	if raw == nil {
		// JSON null entries decode to nil maps.
		return nil, errors.New("record is not an object")
	}

	lengthKm := numberField(raw, lengthAliases)
	if lengthKm != nil && *lengthKm < 0 {
		// Invalid source lengths become absent, never an error.
		lengthKm = nil
	}

	rec := &model.BikePathRecord{
		ID:                  textField(raw, idAliases),
		Name:                textField(raw, nameAliases),
		Type:                textField(raw, typeAliases),
		Surface:             textField(raw, surfaceAliases),
		LengthKm:            lengthKm,
		Geometry:            ResolveGeometry(raw),
		Properties:          residualProperties(raw),
		SourceURL:           t.sourceURL,
		ExtractionTimestamp: t.extractedAt,
	}

	if err := t.validate.Struct(rec); err != nil {
		return nil, fmt.Errorf("record validation: %w", err)
	}
	return rec, nil
}

// Batch transforms raw records in input order, dropping and counting
// records that fail. It returns an error only when a non-empty input
// produced no output at all.
func (t *Transformer) Batch(raws []map[string]any) ([]*model.BikePathRecord, model.BatchStats, error) {
	stats := model.BatchStats{Attempted: len(raws)}

	type outcome struct {
		rec *model.BikePathRecord
		err error
	}
	results := worker.Map(t.workers, raws, func(raw map[string]any) outcome {
		rec, err := t.Record(raw)
		return outcome{rec: rec, err: err}
	})

	records := make([]*model.BikePathRecord, 0, len(raws))
	for i, res := range results {
		if res.err != nil {
			t.log.Warn().Err(res.err).Int("index", i).Msg("dropped record")
			stats.Failed++
			continue
		}
		records = append(records, res.rec)
	}
	stats.Succeeded = len(records)

	if len(raws) > 0 && len(records) == 0 {
		return nil, stats, ErrNoRecords
	}

	t.log.Info().
		Int("total_records", stats.Attempted).
		Int("successful", stats.Succeeded).
		Int("failed", stats.Failed).
		Msg("batch transformation completed")

	return records, stats, nil
}

// FeatureCollection projects records with geometry into a GeoJSON
// FeatureCollection. Records without geometry stay out of the features but
// remain part of the transformed output for persistence.
func (t *Transformer) FeatureCollection(records []*model.BikePathRecord) *geojson.FeatureCollection {
	features := make([]geojson.Feature, 0, len(records))
	for _, rec := range records {
		if rec.Geometry == nil {
			continue
		}
		features = append(features, geojson.NewFeature(rec.Geometry, t.featureProperties(rec)))
	}

	fc := geojson.NewFeatureCollection(features, t.extractedAt, sourceLabel)
	t.log.Info().Int("feature_count", len(features)).Msg("created GeoJSON FeatureCollection")
	return fc
}

// featureProperties merges residual properties with the canonical scalar
// fields. Named fields win on key collisions.
func (t *Transformer) featureProperties(rec *model.BikePathRecord) map[string]any {
	props := make(map[string]any, len(rec.Properties)+7)
	for key, value := range rec.Properties {
		props[key] = value
	}
	props["id"] = strOrNil(rec.ID)
	props["name"] = strOrNil(rec.Name)
	props["type"] = strOrNil(rec.Type)
	props["surface"] = strOrNil(rec.Surface)
	props["length_km"] = floatOrNil(rec.LengthKm)
	props["source_url"] = rec.SourceURL
	props["extraction_timestamp"] = rec.ExtractionTimestamp.Format(time.RFC3339)
	return props
}

func strOrNil(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
