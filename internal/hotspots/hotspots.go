// Package hotspots merges the externally maintained street-segment hot spot
// assignments into the enriched dataset. The hot spot detection itself runs
// in a separate subsystem; this package only consumes its dc_key -> segment_id
// side table.
package hotspots

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// Table is the dc_key -> segment_id side table.
type Table struct {
	segments map[string]string
}

// NewTable builds a table from an in-memory mapping. Empty segment ids are
// treated as unassigned.
func NewTable(segments map[string]string) *Table {
	t := &Table{segments: make(map[string]string, len(segments))}
	for k, v := range segments {
		if v == "" {
			continue
		}
		t.segments[k] = v
	}
	return t
}

// Load reads the side table from a two-column CSV (dc_key,segment_id). A
// missing file yields an empty table.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewTable(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open hotspot table: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read hotspot table: %w", err)
	}

	segments := make(map[string]string, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) >= 1 && row[0] == "dc_key" {
			continue
		}
		if len(row) < 2 {
			continue
		}
		segments[row[0]] = row[1]
	}
	return NewTable(segments), nil
}

// Len returns the number of assigned keys.
func (t *Table) Len() int {
	return len(t.segments)
}

// Merge left-joins segment ids into the batch. A table match overrides any
// prior assignment; unmatched rows keep whatever the geographic join set,
// nil for fresh rows. Returns a new batch; merging twice yields the same
// result.
func (t *Table) Merge(records []domain.IncidentRecord) []domain.IncidentRecord {
	out := make([]domain.IncidentRecord, len(records))
	copy(out, records)
	for i := range out {
		if segment, ok := t.segments[out[i].DCKey]; ok {
			s := segment
			out[i].SegmentID = &s
		}
	}
	return out
}
