package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekaf974/qc-bike-path/internal/config"
	"github.com/lekaf974/qc-bike-path/internal/extract"
	"github.com/lekaf974/qc-bike-path/internal/load"
	"github.com/lekaf974/qc-bike-path/internal/logging"
	"github.com/lekaf974/qc-bike-path/internal/pipeline"
)

var (
	runLimit   int
	runTimeout time.Duration
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full extract-transform-load pipeline",
	Long: `Run fetches one batch of bike path records from the portal,
transforms it into canonical records plus a GeoJSON FeatureCollection, and
upserts both into MongoDB.

Example:
  qc-bike-path run
  qc-bike-path run --limit 100
  QC_BIKE_PATH_API_RESOURCE_ID=<uuid> qc-bike-path run`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runLimit, "limit", 0, "maximum number of records to extract (0 = portal default)")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "overall run timeout")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)

	// Configuration failure: refuse to start before any network call.
	if cfg.API.ResourceID == "" {
		return fmt.Errorf("bike path resource id is not configured: set QC_BIKE_PATH_API_RESOURCE_ID")
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	loader, err := load.Connect(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = loader.Close(context.Background()) }()

	p := pipeline.New(extract.NewClient(cfg, log), loader, cfg, log)

	stats, err := p.Run(ctx, runLimit)
	if err != nil {
		// The pipeline already emitted a structured error record with
		// phase and cause; the non-zero exit comes from here.
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Processed %d records in %.2fs\n", stats.RecordsProcessed, stats.DurationSeconds)
		fmt.Fprintf(os.Stderr, "✓ Inserted %d, updated %d, load errors %d\n", stats.RecordsInserted, stats.RecordsUpdated, stats.LoadErrors)
		fmt.Fprintf(os.Stderr, "✓ GeoJSON saved: %v\n", stats.GeoJSONSaved)
	}

	return nil
}
