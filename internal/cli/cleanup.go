package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/lekaf974/qc-bike-path/internal/config"
	"github.com/lekaf974/qc-bike-path/internal/load"
	"github.com/lekaf974/qc-bike-path/internal/logging"
)

var cleanupDays int

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete records older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Log.Level, cfg.Log.Format)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		loader, err := load.Connect(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = loader.Close(context.Background()) }()

		deleted, err := loader.CleanupOldRecords(ctx, cleanupDays)
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Deleted %d records older than %d days\n", deleted, cleanupDays)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "number of days of records to keep")
}
