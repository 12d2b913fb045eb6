package geo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// PointSource recovers point locations for incidents whose geometry is
// missing, keyed by dc_key. Implemented by the carto adapter against the
// citywide criminal incidents table.
type PointSource interface {
	RecoverPoints(ctx context.Context, dcKeys []string) (map[string]orb.Point, error)
}

// Enricher assigns each incident to zero-or-one region per boundary layer.
type Enricher struct {
	city   *Boundary
	layers []*Layer
	points PointSource // nil disables geometry recovery
	logger *slog.Logger
}

// NewEnricher creates an enricher over a city-limits mask and an ordered list
// of boundary layers.
func NewEnricher(city *Boundary, layers []*Layer, points PointSource, logger *slog.Logger) *Enricher {
	return &Enricher{city: city, layers: layers, points: points, logger: logger}
}

// Enrich returns a new batch with one region column populated per layer,
// preserving row count exactly.
//
// Steps: clear geometry outside the city limits, recover cleared/missing
// points from the point source, join each layer in order with a first-match
// tie-break, then force geometry back to empty for any record that did not
// land in a neighborhood. A record is either confidently located in all
// layers or treated as unlocated in all of them.
func (e *Enricher) Enrich(ctx context.Context, records []domain.IncidentRecord) ([]domain.IncidentRecord, error) {
	before := len(records)

	out := make([]domain.IncidentRecord, len(records))
	copy(out, records)

	outside := 0
	for i := range out {
		if out[i].Located() && !e.city.Contains(out[i].Geometry.Point) {
			out[i].Geometry = domain.EmptyGeometry()
			outside++
		}
	}
	if outside > 0 {
		e.logger.Info("shootings outside city limits", "count", outside)
	}

	if err := e.recoverMissing(ctx, out); err != nil {
		return nil, err
	}

	for _, layer := range e.layers {
		if err := assignRegion(out, layer); err != nil {
			return nil, err
		}
	}

	// A record without a neighborhood is not confidently located anywhere.
	for i := range out {
		if out[i].Neighborhood == nil {
			out[i].Geometry = domain.EmptyGeometry()
			clearRegions(&out[i])
		}
	}

	if len(out) != before {
		return nil, &domain.JoinInvariantViolation{Stage: "region assignment", Before: before, After: len(out)}
	}
	return out, nil
}

// recoverMissing looks up a point for every unlocated record in one batched
// query. Records that remain unmatched keep empty geometry for this run.
func (e *Enricher) recoverMissing(ctx context.Context, records []domain.IncidentRecord) error {
	if e.points == nil {
		return nil
	}

	var missing []string
	for i := range records {
		if !records[i].Located() && records[i].DCKey != "" {
			missing = append(missing, records[i].DCKey)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	recovered, err := e.points.RecoverPoints(ctx, missing)
	if err != nil {
		return fmt.Errorf("recover missing geometries: %w", err)
	}
	e.logger.Info("recovered missing geometries", "matches", len(recovered), "missing", len(missing))

	for i := range records {
		if records[i].Located() {
			continue
		}
		if p, ok := recovered[records[i].DCKey]; ok {
			records[i].Geometry = domain.PointGeometry(p)
		}
	}
	return nil
}

// assignRegion performs the containment join for one layer. Unlocated records
// keep a nil assignment; located records take the first matching region.
func assignRegion(records []domain.IncidentRecord, layer *Layer) error {
	for i := range records {
		if !records[i].Located() {
			continue
		}
		value, ok := layer.Find(records[i].Geometry.Point)
		if !ok {
			continue
		}
		v := value
		if err := setRegionField(&records[i], layer.Field, &v); err != nil {
			return err
		}
	}
	return nil
}

// setRegionField maps a layer field name onto the record column it populates.
func setRegionField(rec *domain.IncidentRecord, field string, value *string) error {
	switch field {
	case "zip_code":
		rec.ZIPCode = value
	case "police_district":
		rec.PoliceDistrict = value
	case "council_district":
		rec.CouncilDistrict = value
	case "neighborhood":
		rec.Neighborhood = value
	case "school_name":
		rec.SchoolName = value
	case "house_district":
		rec.HouseDistrict = value
	case "senate_district":
		rec.SenateDistrict = value
	case "segment_id":
		rec.SegmentID = value
	default:
		return fmt.Errorf("unknown boundary layer field %q", field)
	}
	return nil
}

func clearRegions(rec *domain.IncidentRecord) {
	rec.ZIPCode = nil
	rec.PoliceDistrict = nil
	rec.CouncilDistrict = nil
	rec.Neighborhood = nil
	rec.SchoolName = nil
	rec.HouseDistrict = nil
	rec.SenateDistrict = nil
	rec.SegmentID = nil
}
