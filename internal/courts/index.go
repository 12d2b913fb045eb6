// Package courts maintains the persisted dc_key -> has_court_case index and
// merges it into the enriched dataset.
//
// The index follows a closed-world assumption: a dc_key absent from the index
// yields has_court_case=false, not "unknown", until a scrape resolves it. The
// index only ever narrows: once a key is recorded true it stays true, and
// re-scrapes never overwrite a true with a stale negative.
package courts

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// Scraper resolves court-case existence for a set of incident numbers. The
// scraping mechanics live outside the core; implementations must accept only
// the unresolved keys handed to them and report every key they were given.
type Scraper interface {
	Scrape(ctx context.Context, dcKeys []string) (map[string]bool, error)
}

// Index is the persisted court-case mapping, read fully at the start of a run
// and rewritten fully at the end.
type Index struct {
	cases map[string]bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{cases: make(map[string]bool)}
}

// Load reads the index snapshot from a two-column CSV (dc_key,has_court_case).
// A missing file yields an empty index, not an error: the first run starts
// from a closed world.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewIndex(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open court index: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read court index: %w", err)
	}

	idx := NewIndex()
	for i, row := range rows {
		if i == 0 && len(row) >= 1 && row[0] == "dc_key" {
			continue
		}
		if len(row) < 2 {
			continue
		}
		value, err := strconv.ParseBool(row[1])
		if err != nil {
			return nil, fmt.Errorf("court index row %d: bad has_court_case %q", i, row[1])
		}
		idx.cases[row[0]] = value
	}
	return idx, nil
}

// Save writes the full index snapshot, sorted by dc_key for stable diffs.
func (idx *Index) Save(path string) error {
	keys := make([]string, 0, len(idx.cases))
	for k := range idx.cases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write court index: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"dc_key", "has_court_case"}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := w.Write([]string{k, strconv.FormatBool(idx.cases[k])}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Has reports whether the key is recorded with a court case.
func (idx *Index) Has(dcKey string) bool {
	return idx.cases[dcKey]
}

// Len returns the number of resolved keys.
func (idx *Index) Len() int {
	return len(idx.cases)
}

// Merge left-joins the index into the batch, filling absent keys with false.
// It returns a new batch and is idempotent.
func (idx *Index) Merge(records []domain.IncidentRecord) []domain.IncidentRecord {
	out := make([]domain.IncidentRecord, len(records))
	copy(out, records)
	for i := range out {
		out[i].HasCourtCase = idx.cases[out[i].DCKey]
	}
	return out
}

// Unresolved returns the deduplicated keys from the batch that are not yet
// recorded true, in batch order. These are the only keys a scraper should be
// handed: keys already true never need re-scraping.
func (idx *Index) Unresolved(records []domain.IncidentRecord) []string {
	seen := make(map[string]bool, len(records))
	var keys []string
	for _, rec := range records {
		if rec.DCKey == "" || seen[rec.DCKey] {
			continue
		}
		seen[rec.DCKey] = true
		if idx.cases[rec.DCKey] {
			continue
		}
		keys = append(keys, rec.DCKey)
	}
	return keys
}

// Apply merges scrape results back additively. A true always wins; a false
// never demotes a previously recorded true.
func (idx *Index) Apply(results map[string]bool) {
	for key, value := range results {
		if idx.cases[key] {
			continue
		}
		idx.cases[key] = value
	}
}
