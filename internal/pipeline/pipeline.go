// Package pipeline orchestrates the extract, transform and load phases of
// one ETL run.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lekaf974/qc-bike-path/internal/config"
	"github.com/lekaf974/qc-bike-path/internal/extract"
	"github.com/lekaf974/qc-bike-path/internal/geojson"
	"github.com/lekaf974/qc-bike-path/internal/model"
	"github.com/lekaf974/qc-bike-path/internal/transform"
)

// probeLimit bounds the extraction probe so health checks stay cheap.
const probeLimit = 1

// Extractor fetches one raw batch from the open data portal.
type Extractor interface {
	Fetch(ctx context.Context, limit int) (*extract.Payload, error)
}

// Loader persists canonical records and the derived FeatureCollection.
type Loader interface {
	SaveBatch(ctx context.Context, records []*model.BikePathRecord) (*model.LoadStats, error)
	SaveFeatureCollection(ctx context.Context, fc *geojson.FeatureCollection) error
	Stats(ctx context.Context) (*model.CollectionStats, error)
}

// Pipeline sequences the ETL phases. Phases run strictly one after another;
// a failing phase aborts the run with a PhaseError and no cross-phase retry.
type Pipeline struct {
	extractor Extractor
	loader    Loader
	cfg       *config.Config
	log       zerolog.Logger
}

// New creates a Pipeline around its two external collaborators.
func New(extractor Extractor, loader Loader, cfg *config.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		loader:    loader,
		cfg:       cfg,
		log:       log,
	}
}

// Run executes a full extract → transform → load cycle. The returned stats
// are populated even on failure, with the elapsed time and captured error.
func (p *Pipeline) Run(ctx context.Context, limit int) (*model.RunStats, error) {
	stats := &model.RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := p.log.With().Str("run_id", stats.RunID).Logger()
	log.Info().Msg("starting ETL pipeline")

	payload, err := p.runExtract(ctx, log, limit)
	if err != nil {
		return p.fail(log, stats, phaseErr(PhaseExtract, err))
	}

	records, fc, err := p.runTransform(log, payload)
	if err != nil {
		return p.fail(log, stats, phaseErr(PhaseTransform, err))
	}

	loadStats, err := p.runLoad(ctx, log, records, fc)
	if err != nil {
		return p.fail(log, stats, phaseErr(PhaseLoad, err))
	}

	stats.Success = true
	stats.DurationSeconds = elapsedSeconds(stats.StartedAt)
	stats.RecordsProcessed = len(records)
	stats.RecordsInserted = loadStats.Inserted
	stats.RecordsUpdated = loadStats.Updated
	stats.LoadErrors = loadStats.Errors
	stats.GeoJSONSaved = true

	log.Info().
		Float64("execution_time_seconds", stats.DurationSeconds).
		Int("records_processed", stats.RecordsProcessed).
		Int("records_inserted", stats.RecordsInserted).
		Int("records_updated", stats.RecordsUpdated).
		Int("load_errors", stats.LoadErrors).
		Msg("ETL pipeline completed successfully")

	return stats, nil
}

func (p *Pipeline) runExtract(ctx context.Context, log zerolog.Logger, limit int) (*extract.Payload, error) {
	log.Info().Msg("starting data extraction phase")
	payload, err := p.extractor.Fetch(ctx, limit)
	if err != nil {
		return nil, err
	}
	log.Info().Int("record_count", len(payload.Result.Records)).Msg("data extraction completed")
	return payload, nil
}

func (p *Pipeline) runTransform(log zerolog.Logger, payload *extract.Payload) ([]*model.BikePathRecord, *geojson.FeatureCollection, error) {
	log.Info().Msg("starting data transformation phase")

	t := transform.New(p.cfg.API.BaseURL, p.cfg.Transform.Workers, log)
	records, batchStats, err := t.Batch(payload.Result.Records)
	if err != nil {
		return nil, nil, err
	}
	fc := t.FeatureCollection(records)

	log.Info().
		Int("transformed_count", batchStats.Succeeded).
		Int("dropped_count", batchStats.Failed).
		Int("geojson_features", len(fc.Features)).
		Msg("data transformation completed")

	return records, fc, nil
}

func (p *Pipeline) runLoad(ctx context.Context, log zerolog.Logger, records []*model.BikePathRecord, fc *geojson.FeatureCollection) (*model.LoadStats, error) {
	log.Info().Msg("starting data loading phase")

	loadStats, err := p.loader.SaveBatch(ctx, records)
	if err != nil {
		return nil, err
	}
	if err := p.loader.SaveFeatureCollection(ctx, fc); err != nil {
		return nil, err
	}

	log.Info().
		Int("inserted", loadStats.Inserted).
		Int("updated", loadStats.Updated).
		Int("errors", loadStats.Errors).
		Msg("data loading completed")

	return loadStats, nil
}

func (p *Pipeline) fail(log zerolog.Logger, stats *model.RunStats, err *PhaseError) (*model.RunStats, error) {
	stats.DurationSeconds = elapsedSeconds(stats.StartedAt)
	stats.Error = err.Error()

	log.Error().
		Str("phase", string(err.Phase)).
		Err(err.Err).
		Float64("execution_time_seconds", stats.DurationSeconds).
		Msg("ETL pipeline failed")

	return stats, err
}

// HealthCheck probes the extractor with a bounded fetch and the store with
// a stats read. A store failure outweighs an extraction failure.
func (p *Pipeline) HealthCheck(ctx context.Context) *model.HealthStatus {
	status := &model.HealthStatus{
		Pipeline:   model.HealthHealthy,
		Components: make(map[string]string),
		CheckedAt:  time.Now().UTC(),
	}

	if _, err := p.extractor.Fetch(ctx, probeLimit); err != nil {
		p.log.Warn().Err(err).Msg("health check failed for extraction")
		status.Components["extraction"] = fmt.Sprintf("unhealthy: %v", err)
		status.Pipeline = model.HealthDegraded
	} else {
		status.Components["extraction"] = "healthy"
	}

	if _, err := p.loader.Stats(ctx); err != nil {
		p.log.Warn().Err(err).Msg("health check failed for database")
		status.Components["database"] = fmt.Sprintf("unhealthy: %v", err)
		status.Pipeline = model.HealthUnhealthy
	} else {
		status.Components["database"] = "healthy"
	}

	p.log.Info().Str("status", string(status.Pipeline)).Msg("health check completed")
	return status
}

func elapsedSeconds(start time.Time) float64 {
	return math.Round(time.Since(start).Seconds()*100) / 100
}
