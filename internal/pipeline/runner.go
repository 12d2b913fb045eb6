// Package pipeline orchestrates the daily update: fetch, normalize, validate,
// enrich, merge side tables, persist, publish.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/gv-dashboard-data/internal/courts"
	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
	"github.com/couchcryptid/gv-dashboard-data/internal/geo"
	"github.com/couchcryptid/gv-dashboard-data/internal/homicides"
	"github.com/couchcryptid/gv-dashboard-data/internal/hotspots"
	"github.com/couchcryptid/gv-dashboard-data/internal/observability"
	"github.com/couchcryptid/gv-dashboard-data/internal/store"
)

// metaTimeLayout is the timestamp format of meta.json stamps.
const metaTimeLayout = "2006-01-02 15:04:05"

// IncidentSource fetches the raw shooting victims table.
type IncidentSource interface {
	Shootings(ctx context.Context) ([]domain.RawIncident, error)
}

// Publisher uploads a local data file under an object name.
type Publisher interface {
	Publish(ctx context.Context, localPath, object string) error
}

// Notifier announces an uploaded year partition.
type Notifier interface {
	PartitionPublished(ctx context.Context, year int, object string, rows int) error
}

// Options are the per-run flags of the daily update.
type Options struct {
	IgnoreChecks        bool
	HomicidesOnly       bool
	ShootingsOnly       bool
	ForceHomicideUpdate bool
}

// Deps are the collaborators of a Runner. Publisher and Notifier are
// optional; nil disables publication or notification. Enricher is only
// consulted by the shootings branch and may be nil on homicides-only runs.
type Deps struct {
	Source         IncidentSource
	HomicideSource homicides.Source
	Enricher       *geo.Enricher
	Store          *store.Store
	Publisher      Publisher
	Notifier       Notifier
	UpperTolerance int
	LowerTolerance int
	Logger         *slog.Logger
	Metrics        *observability.Metrics
}

// Runner executes daily update runs. Any stage failure aborts the run before
// anything is persisted or published for that branch.
type Runner struct {
	deps Deps
}

// New creates a Runner from its collaborators.
func New(deps Deps) *Runner {
	return &Runner{deps: deps}
}

// Run executes one daily update. The homicide and shootings branches are
// independent; flags select one or both. meta.json records a stamp per branch
// that completed.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	d := r.deps
	start := time.Now()
	d.Metrics.PipelineRunning.Set(1)
	defer d.Metrics.PipelineRunning.Set(0)
	defer func() {
		d.Metrics.RunDuration.Observe(time.Since(start).Seconds())
	}()

	if err := d.Store.EnsureLayout(); err != nil {
		return err
	}

	processAll := !opts.HomicidesOnly && !opts.ShootingsOnly
	stamps := make(map[string]string)
	now := domain.Now().Format(metaTimeLayout)

	if processAll || opts.HomicidesOnly {
		if err := r.updateHomicides(ctx, opts.ForceHomicideUpdate); err != nil {
			return err
		}
		stamps["last_updated_homicides"] = now
	}

	if processAll || opts.ShootingsOnly {
		if err := r.updateShootings(ctx, opts.IgnoreChecks); err != nil {
			return err
		}
		stamps["last_updated_shootings"] = now
	}

	if err := d.Store.UpdateMeta(stamps); err != nil {
		return err
	}
	if d.Publisher != nil {
		if err := d.Publisher.Publish(ctx, d.Store.MetaPath(), "meta.json"); err != nil {
			return err
		}
	}

	d.Logger.Info("daily update complete", "stamps", len(stamps))
	return nil
}

// updateHomicides fetches a fresh snapshot and rewrites the daily series and
// the per-year totals projection.
func (r *Runner) updateHomicides(ctx context.Context, force bool) error {
	d := r.deps

	snap, err := d.HomicideSource.Fetch(ctx)
	if err != nil {
		return err
	}

	series, err := homicides.LoadSeries(d.Store.HomicideSeriesPath())
	if err != nil {
		return err
	}

	updated, err := homicides.Update(series, snap, force)
	if err != nil {
		return err
	}

	if err := homicides.SaveSeries(d.Store.HomicideSeriesPath(), updated); err != nil {
		return err
	}
	if err := homicides.SaveTotals(d.Store.HomicideTotalsPath(), homicides.Totals(snap)); err != nil {
		return err
	}

	if d.Publisher != nil {
		if err := d.Publisher.Publish(ctx, d.Store.HomicideTotalsPath(), "homicide_totals.json"); err != nil {
			return err
		}
	}

	d.Logger.Info("homicide series updated",
		"as_of", snap.AsOfDate.Format("2006-01-02"),
		"rows", len(updated),
	)
	return nil
}

// updateShootings runs the full shootings branch: fetch, normalize, validate,
// anomaly check, enrich, merge side tables, persist, publish.
func (r *Runner) updateShootings(ctx context.Context, ignoreChecks bool) error {
	d := r.deps

	raws, err := d.Source.Shootings(ctx)
	if err != nil {
		return err
	}
	d.Metrics.RowsFetched.Add(float64(len(raws)))

	records := domain.Normalize(raws, d.Logger)

	warnings, err := domain.ValidateBatch(records, ignoreChecks)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		d.Logger.Warn("schema check downgraded", "finding", w)
	}
	d.Metrics.ValidationWarnings.Add(float64(len(warnings)))

	oldCount, err := d.Store.CountExisting()
	if err != nil {
		return err
	}
	// No baseline on the very first run.
	if oldCount > 0 && !ignoreChecks {
		if err := domain.CheckAnomaly(len(records), oldCount, d.UpperTolerance, d.LowerTolerance); err != nil {
			return err
		}
	}

	enriched, err := d.Enricher.Enrich(ctx, records)
	if err != nil {
		return err
	}

	segments, err := hotspots.Load(d.Store.HotspotTablePath())
	if err != nil {
		return err
	}
	enriched = segments.Merge(enriched)

	index, err := courts.Load(d.Store.CourtIndexPath())
	if err != nil {
		return err
	}
	enriched = index.Merge(enriched)

	partitions, err := d.Store.SaveYearPartitions(enriched)
	if err != nil {
		return err
	}
	d.Metrics.RowsPublished.Add(float64(len(enriched)))

	for _, p := range partitions {
		d.Metrics.PartitionRows.Observe(float64(p.Rows))
		if d.Publisher == nil {
			continue
		}
		if err := d.Publisher.Publish(ctx, p.Path, p.Object); err != nil {
			return err
		}
		if d.Notifier != nil {
			if err := d.Notifier.PartitionPublished(ctx, p.Year, p.Object, p.Rows); err != nil {
				return err
			}
		}
	}
	if d.Publisher != nil {
		if err := d.Publisher.Publish(ctx, d.Store.DataYearsPath(), "data_years.json"); err != nil {
			return err
		}
	}

	d.Logger.Info("shootings dataset updated", "rows", len(enriched), "partitions", len(partitions))
	return nil
}
