package main

import (
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	cartoadapter "github.com/couchcryptid/gv-dashboard-data/internal/adapter/carto"
	"github.com/couchcryptid/gv-dashboard-data/internal/adapter/gcs"
	kafkaadapter "github.com/couchcryptid/gv-dashboard-data/internal/adapter/kafka"
	ppdadapter "github.com/couchcryptid/gv-dashboard-data/internal/adapter/ppd"
	"github.com/couchcryptid/gv-dashboard-data/internal/geo"
	"github.com/couchcryptid/gv-dashboard-data/internal/pipeline"
)

func newDailyUpdateCmd() *cobra.Command {
	var (
		debug               bool
		ignoreChecks        bool
		homicidesOnly       bool
		shootingsOnly       bool
		forceHomicideUpdate bool
	)

	cmd := &cobra.Command{
		Use:   "daily-update",
		Short: "Run the daily pre-processing update",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(debug)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			source := cartoadapter.NewClient(a.cfg, a.metrics, a.logger)

			deps := pipeline.Deps{
				Source:         source,
				HomicideSource: ppdadapter.NewClient(a.cfg, a.metrics, a.logger),
				Store:          a.store,
				UpperTolerance: a.cfg.UpperTolerance,
				LowerTolerance: a.cfg.LowerTolerance,
				Logger:         a.logger,
				Metrics:        a.metrics,
			}

			// Only the shootings branch needs the boundary and layer files;
			// a homicides-only run must not require them.
			if !homicidesOnly {
				boundary, err := geo.LoadBoundary(filepath.Join(a.store.RawDir(), "city_limits.geojson"))
				if err != nil {
					return err
				}
				layers := make([]*geo.Layer, 0, len(geo.DefaultLayers))
				for _, spec := range geo.DefaultLayers {
					layer, err := geo.LoadLayer(filepath.Join(a.store.RawDir(), spec.File), spec.Name, spec.Field)
					if err != nil {
						return err
					}
					layers = append(layers, layer)
				}
				deps.Enricher = geo.NewEnricher(boundary, layers, source, a.logger)
			}

			if a.cfg.PublishEnabled {
				publisher, err := gcs.NewPublisher(ctx, a.cfg, a.logger)
				if err != nil {
					return err
				}
				defer publisher.Close()
				deps.Publisher = publisher
			} else {
				a.logger.Info("publication disabled, writing locally only")
			}

			if a.cfg.KafkaNotifyEnabled {
				notifier := kafkaadapter.NewNotifier(a.cfg, a.logger)
				defer notifier.Close()
				deps.Notifier = notifier
			}

			return pipeline.New(deps).Run(ctx, pipeline.Options{
				IgnoreChecks:        ignoreChecks,
				HomicidesOnly:       homicidesOnly,
				ShootingsOnly:       shootingsOnly,
				ForceHomicideUpdate: forceHomicideUpdate,
			})
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Log debug statements")
	cmd.Flags().BoolVar(&ignoreChecks, "ignore-checks", false, "Ignore validation and anomaly checks")
	cmd.Flags().BoolVar(&homicidesOnly, "homicides-only", false, "Only process the homicide data")
	cmd.Flags().BoolVar(&shootingsOnly, "shootings-only", false, "Only process the shooting data")
	cmd.Flags().BoolVar(&forceHomicideUpdate, "force-homicide-update", false, "Accept a decreasing homicide total")
	return cmd
}
