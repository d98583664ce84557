package model

import "time"

// RunStats aggregates the outcome of one pipeline run. It is owned by the
// run that produced it and is never shared across runs.
type RunStats struct {
	RunID            string    `json:"run_id"`
	Success          bool      `json:"success"`
	StartedAt        time.Time `json:"started_at"`
	DurationSeconds  float64   `json:"execution_time_seconds"`
	RecordsProcessed int       `json:"records_processed"`
	RecordsInserted  int       `json:"records_inserted"`
	RecordsUpdated   int       `json:"records_updated"`
	LoadErrors       int       `json:"load_errors"`
	GeoJSONSaved     bool      `json:"geojson_saved"`
	Error            string    `json:"error,omitempty"`
}

// BatchStats counts per-record outcomes of one batch transformation.
type BatchStats struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// LoadStats counts the outcome of one batch upsert.
type LoadStats struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// CollectionStats summarizes the store collection for health probes.
type CollectionStats struct {
	TotalDocuments   int64      `json:"total_documents"`
	StorageSizeBytes int64      `json:"storage_size_bytes"`
	IndexCount       int64      `json:"index_count"`
	LatestExtraction *time.Time `json:"latest_extraction,omitempty"`
}

// Health is the aggregate health classification of the pipeline.
type Health string

const (
	HealthHealthy Health = "healthy"
	// HealthDegraded means the extraction probe failed but the store is
	// reachable; typically a transient portal issue.
	HealthDegraded Health = "degraded"
	// HealthUnhealthy means the store probe failed; store failures are
	// weighted worse than extraction failures.
	HealthUnhealthy Health = "unhealthy"
)

// HealthStatus carries the aggregate and per-component health results.
type HealthStatus struct {
	Pipeline   Health            `json:"pipeline"`
	Components map[string]string `json:"components"`
	CheckedAt  time.Time         `json:"checked_at"`
}
