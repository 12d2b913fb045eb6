package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	cartoadapter "github.com/couchcryptid/gv-dashboard-data/internal/adapter/carto"
	"github.com/couchcryptid/gv-dashboard-data/internal/geo"
)

func newSaveLayersCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "save-layers",
		Short: "Save the boundary layers the dashboard renders",
		Long: "Writes each boundary layer to processed/geo/<name>.geojson, downloading\n" +
			"raw layer files that are not present locally.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(debug)
			if err != nil {
				return err
			}
			if err := a.store.EnsureLayout(); err != nil {
				return err
			}

			source := cartoadapter.NewClient(a.cfg, a.metrics, a.logger)
			geoDir, err := a.store.GeoDir()
			if err != nil {
				return err
			}

			for _, spec := range geo.DefaultLayers {
				rawPath := filepath.Join(a.store.RawDir(), spec.File)
				if _, err := os.Stat(rawPath); os.IsNotExist(err) {
					a.logger.Info("downloading layer", "layer", spec.Name)
					data, err := source.FetchLayer(cmd.Context(), spec.Name)
					if err != nil {
						return err
					}
					if err := os.WriteFile(rawPath, data, 0o644); err != nil {
						return err
					}
				}

				layer, err := geo.LoadLayer(rawPath, spec.Name, spec.Field)
				if err != nil {
					return err
				}
				data, err := json.Marshal(layer.FeatureCollection())
				if err != nil {
					return err
				}
				outPath := filepath.Join(geoDir, spec.Name+".geojson")
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return err
				}
				a.logger.Info("saved layer", "layer", spec.Name, "regions", len(layer.Regions))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Log debug statements")
	return cmd
}
