// Package load persists canonical records and derived GeoJSON to MongoDB.
package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lekaf974/qc-bike-path/internal/config"
	"github.com/lekaf974/qc-bike-path/internal/geojson"
	"github.com/lekaf974/qc-bike-path/internal/model"
)

// Loader writes bike path data to MongoDB. Upserts are keyed by the
// canonical id when present; records without one fall back to a
// store-assigned key.
type Loader struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	collName   string
	log        zerolog.Logger
}

// Connect establishes the MongoDB connection, verifies it with a ping and
// bootstraps the collection indexes.
func Connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Loader, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(cfg.Mongo.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(cfg.Mongo.Database)
	l := &Loader{
		client:     client,
		db:         db,
		collection: db.Collection(cfg.Mongo.Collection),
		collName:   cfg.Mongo.Collection,
		log:        log,
	}

	log.Info().
		Str("database", cfg.Mongo.Database).
		Str("collection", cfg.Mongo.Collection).
		Msg("connected to MongoDB")

	if err := l.ensureIndexes(ctx); err != nil {
		// Index bootstrap is best effort; queries still work without it.
		log.Warn().Err(err).Msg("failed to create some indexes")
	}

	return l, nil
}

// Close disconnects from MongoDB.
func (l *Loader) Close(ctx context.Context) error {
	return l.client.Disconnect(ctx)
}

func (l *Loader) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "geometry", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "extraction_timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "type", Value: "text"}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "surface", Value: 1}}},
	}

	if _, err := l.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	l.log.Info().Msg("database indexes created")
	return nil
}

// SaveBatch upserts a batch of records with a single unordered bulk write.
// Partial bulk failures are reported through LoadStats.Errors rather than
// failing the batch.
func (l *Loader) SaveBatch(ctx context.Context, records []*model.BikePathRecord) (*model.LoadStats, error) {
	if len(records) == 0 {
		return &model.LoadStats{}, nil
	}

	ops := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		var filter bson.D
		if rec.ID != nil {
			filter = bson.D{{Key: "id", Value: *rec.ID}}
		} else {
			// No stable id: match a fresh ObjectID so the upsert
			// always inserts under a store-assigned key.
			filter = bson.D{{Key: "_id", Value: primitive.NewObjectID()}}
		}
		ops = append(ops, mongo.NewReplaceOneModel().
			SetFilter(filter).
			SetReplacement(rec).
			SetUpsert(true))
	}

	res, err := l.collection.BulkWrite(ctx, ops, options.BulkWrite().SetOrdered(false))
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) && res != nil {
			stats := &model.LoadStats{
				Inserted: int(res.UpsertedCount),
				Updated:  int(res.ModifiedCount),
				Errors:   len(bulkErr.WriteErrors),
			}
			l.log.Warn().
				Int("inserted", stats.Inserted).
				Int("updated", stats.Updated).
				Int("errors", stats.Errors).
				Msg("bulk write completed with errors")
			return stats, nil
		}
		return nil, fmt.Errorf("bulk write: %w", err)
	}

	stats := &model.LoadStats{
		Inserted: int(res.UpsertedCount),
		Updated:  int(res.ModifiedCount),
	}
	l.log.Info().
		Int("total_records", len(records)).
		Int("inserted", stats.Inserted).
		Int("updated", stats.Updated).
		Msg("batch save completed")
	return stats, nil
}

// SaveFeatureCollection replaces the single derived GeoJSON document in the
// companion collection; only the latest snapshot is kept.
func (l *Loader) SaveFeatureCollection(ctx context.Context, fc *geojson.FeatureCollection) error {
	coll := l.db.Collection(l.collName + "_geojson")

	doc := bson.M{
		"type":      fc.Type,
		"features":  fc.Features,
		"metadata":  fc.Metadata,
		"stored_at": time.Now().UTC(),
	}

	_, err := coll.ReplaceOne(ctx, bson.D{}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save geojson: %w", err)
	}
	l.log.Info().Int("feature_count", len(fc.Features)).Msg("GeoJSON data saved")
	return nil
}

// Stats summarizes the record collection; used by the health check's store
// probe.
func (l *Loader) Stats(ctx context.Context) (*model.CollectionStats, error) {
	var collStats bson.M
	cmd := bson.D{{Key: "collStats", Value: l.collName}}
	if err := l.db.RunCommand(ctx, cmd).Decode(&collStats); err != nil {
		return nil, fmt.Errorf("collection stats: %w", err)
	}

	count, err := l.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	stats := &model.CollectionStats{
		TotalDocuments:   count,
		StorageSizeBytes: asInt64(collStats["storageSize"]),
		IndexCount:       asInt64(collStats["nindexes"]),
	}

	var latest struct {
		ExtractionTimestamp time.Time `bson:"extraction_timestamp"`
	}
	findOpts := options.FindOne().SetSort(bson.D{{Key: "extraction_timestamp", Value: -1}})
	err = l.collection.FindOne(ctx, bson.D{}, findOpts).Decode(&latest)
	switch {
	case err == nil:
		stats.LatestExtraction = &latest.ExtractionTimestamp
	case errors.Is(err, mongo.ErrNoDocuments):
		// Empty collection; nothing to report.
	default:
		return nil, fmt.Errorf("latest record: %w", err)
	}

	return stats, nil
}

// CleanupOldRecords deletes records whose extraction timestamp is older
// than the given number of days and returns how many were removed.
func (l *Loader) CleanupOldRecords(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	res, err := l.collection.DeleteMany(ctx, bson.M{
		"extraction_timestamp": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup old records: %w", err)
	}

	l.log.Info().
		Int64("deleted_count", res.DeletedCount).
		Time("cutoff_date", cutoff).
		Msg("cleaned up old records")
	return res.DeletedCount, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
