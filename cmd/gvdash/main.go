// gvdash prepares the data files behind the gun violence dashboard.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/gv-dashboard-data/internal/config"
	"github.com/couchcryptid/gv-dashboard-data/internal/observability"
	"github.com/couchcryptid/gv-dashboard-data/internal/store"
)

func main() {
	// Local credentials and overrides; absent in production.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "gvdash",
		Short:         "Data processing for the gun violence dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDailyUpdateCmd(), newScrapeCourtsCmd(), newSaveLayersCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app bundles the pieces every command starts from.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	store   *store.Store
}

func newApp(debug bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	logger := observability.NewLogger(cfg)
	return &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		store:   store.New(cfg.DataDir, logger),
	}, nil
}
