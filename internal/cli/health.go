package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekaf974/qc-bike-path/internal/config"
	"github.com/lekaf974/qc-bike-path/internal/extract"
	"github.com/lekaf974/qc-bike-path/internal/geojson"
	"github.com/lekaf974/qc-bike-path/internal/load"
	"github.com/lekaf974/qc-bike-path/internal/logging"
	"github.com/lekaf974/qc-bike-path/internal/model"
	"github.com/lekaf974/qc-bike-path/internal/pipeline"
)

var healthTimeout time.Duration

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the pipeline components and report aggregate health",
	Long: `Health runs a bounded extraction probe against the portal and a
stats probe against MongoDB. The aggregate status is "healthy" when both
succeed, "degraded" when only extraction fails, and "unhealthy" when the
store probe fails. Anything but healthy exits non-zero.`,
	Args: cobra.NoArgs,
	RunE: runHealthCheck,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", time.Minute, "health check timeout")
}

func runHealthCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
	defer cancel()

	var loader pipeline.Loader
	mongoLoader, err := load.Connect(ctx, cfg, log)
	if err == nil {
		defer func() { _ = mongoLoader.Close(context.Background()) }()
		loader = mongoLoader
	} else {
		// Keep probing: the unreachable store is itself a finding.
		loader = unreachableLoader{err: err}
	}

	p := pipeline.New(extract.NewClient(cfg, log), loader, cfg, log)
	status := p.HealthCheck(ctx)

	out, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal health status: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))

	if status.Pipeline != model.HealthHealthy {
		return fmt.Errorf("pipeline is %s", status.Pipeline)
	}
	return nil
}

// unreachableLoader stands in for the store when the connection itself
// failed, so the health check can still report per-component status.
type unreachableLoader struct {
	err error
}

func (u unreachableLoader) SaveBatch(ctx context.Context, records []*model.BikePathRecord) (*model.LoadStats, error) {
	return nil, u.err
}

func (u unreachableLoader) SaveFeatureCollection(ctx context.Context, fc *geojson.FeatureCollection) error {
	return u.err
}

func (u unreachableLoader) Stats(ctx context.Context) (*model.CollectionStats, error) {
	return nil, u.err
}
