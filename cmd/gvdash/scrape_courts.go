package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/gv-dashboard-data/internal/courts"
)

func newScrapeCourtsCmd() *cobra.Command {
	var (
		debug       bool
		dryRun      bool
		sample      int
		resultsFile string
	)

	cmd := &cobra.Command{
		Use:   "scrape-courts",
		Short: "Merge court case scrape results into the court index",
		Long: "Computes the incident numbers still needing a court case lookup and merges\n" +
			"the results of an external portal scrape back into the index. A key already\n" +
			"recorded with a court case is never re-scraped or demoted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(debug)
			if err != nil {
				return err
			}

			records, err := a.store.LoadExisting()
			if err != nil {
				return err
			}
			index, err := courts.Load(a.store.CourtIndexPath())
			if err != nil {
				return err
			}

			unresolved := index.Unresolved(records)
			if sample > 0 && sample < len(unresolved) {
				unresolved = unresolved[:sample]
			}
			a.logger.Info("court case lookup set computed",
				"records", len(records),
				"resolved", index.Len(),
				"unresolved", len(unresolved),
			)

			if dryRun {
				for _, key := range unresolved {
					fmt.Println(key)
				}
				return nil
			}
			if resultsFile == "" {
				return errors.New("--results is required unless --dry-run is set")
			}

			var scraper courts.Scraper = resultsFileScraper{path: resultsFile}
			results, err := scraper.Scrape(cmd.Context(), unresolved)
			if err != nil {
				return err
			}
			index.Apply(results)

			if err := a.store.EnsureLayout(); err != nil {
				return err
			}
			if err := index.Save(a.store.CourtIndexPath()); err != nil {
				return err
			}
			a.logger.Info("court index updated", "resolved", index.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Log debug statements")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the unresolved incident numbers and exit")
	cmd.Flags().IntVar(&sample, "sample", 0, "Limit to the first N unresolved incident numbers")
	cmd.Flags().StringVar(&resultsFile, "results", "", "JSON file listing the incident numbers found with court cases")
	return cmd
}

// resultsFileScraper satisfies courts.Scraper from a file produced by the
// external portal scraper: a JSON array of the dc_key strings found with at
// least one associated court case.
type resultsFileScraper struct {
	path string
}

func (s resultsFileScraper) Scrape(_ context.Context, dcKeys []string) (map[string]bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read scrape results: %w", err)
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode scrape results: %w", err)
	}
	withCases := make(map[string]bool, len(keys))
	for _, k := range keys {
		withCases[k] = true
	}

	results := make(map[string]bool, len(dcKeys))
	for _, k := range dcKeys {
		results[k] = withCases[k]
	}
	return results, nil
}
