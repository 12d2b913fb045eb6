// Package store persists the enriched shooting victims dataset as
// year-partitioned GeoJSON files plus the small JSON artifacts the dashboard
// reads alongside them.
//
// The discipline is "read full snapshot, compute full output, overwrite":
// each year partition is a full replacement, never an append, because the
// pipeline recomputes the complete dataset every run. Concurrent runs against
// the same data directory are unsupported and must be serialized externally.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// Partition describes one written year file.
type Partition struct {
	Year   int
	Path   string
	Object string // publication object name
	Rows   int
}

// Store writes and reads the processed data directory.
type Store struct {
	dataDir string
	logger  *slog.Logger
}

// New creates a store rooted at dataDir. Processed outputs live under
// dataDir/processed.
func New(dataDir string, logger *slog.Logger) *Store {
	return &Store{dataDir: dataDir, logger: logger}
}

// ProcessedDir returns the processed output directory, creating it if needed.
func (s *Store) ProcessedDir() (string, error) {
	dir := filepath.Join(s.dataDir, "processed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create processed dir: %w", err)
	}
	return dir, nil
}

// GeoDir returns the published boundary layer directory, creating it if needed.
func (s *Store) GeoDir() (string, error) {
	dir := filepath.Join(s.dataDir, "processed", "geo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create geo dir: %w", err)
	}
	return dir, nil
}

// RawDir returns the raw input directory.
func (s *Store) RawDir() string {
	return filepath.Join(s.dataDir, "raw")
}

// EnsureLayout creates the data directory tree.
func (s *Store) EnsureLayout() error {
	for _, dir := range []string{
		s.RawDir(),
		filepath.Join(s.dataDir, "processed"),
		filepath.Join(s.dataDir, "processed", "geo"),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Well-known file locations inside the data directory.

func (s *Store) MetaPath() string {
	return filepath.Join(s.dataDir, "meta.json")
}

func (s *Store) DataYearsPath() string {
	return filepath.Join(s.dataDir, "processed", "data_years.json")
}

func (s *Store) HomicideSeriesPath() string {
	return filepath.Join(s.RawDir(), "homicide_totals_daily.csv")
}

func (s *Store) HomicideTotalsPath() string {
	return filepath.Join(s.dataDir, "processed", "homicide_totals.json")
}

func (s *Store) CourtIndexPath() string {
	return filepath.Join(s.dataDir, "processed", "scraped_courts_data.csv")
}

func (s *Store) HotspotTablePath() string {
	return filepath.Join(s.RawDir(), "hotspot_segments.csv")
}

// partitionPath returns the local path of one year file.
func (s *Store) partitionPath(year int) string {
	return filepath.Join(s.dataDir, "processed", fmt.Sprintf("shootings_%d.json", year))
}

// SaveYearPartitions splits the batch by the year component of each record
// date and fully replaces each year's file, then rewrites data_years.json
// with the years present sorted descending. Records with an unparseable date
// year are rejected rather than silently bucketed.
func (s *Store) SaveYearPartitions(records []domain.IncidentRecord) ([]Partition, error) {
	if _, err := s.ProcessedDir(); err != nil {
		return nil, err
	}

	byYear := make(map[int][]domain.IncidentRecord)
	for _, rec := range records {
		year := rec.Year()
		if year == 0 {
			return nil, fmt.Errorf("record %s has unparseable date %q", rec.DCKey, rec.Date)
		}
		byYear[year] = append(byYear[year], rec)
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	partitions := make([]Partition, 0, len(years))
	for _, year := range years {
		path := s.partitionPath(year)
		rows := byYear[year]
		if err := writePartition(path, rows); err != nil {
			return nil, err
		}
		s.logger.Debug("saved year partition", "year", year, "rows", len(rows))
		partitions = append(partitions, Partition{
			Year:   year,
			Path:   path,
			Object: filepath.Base(path),
			Rows:   len(rows),
		})
	}

	if err := writeJSON(s.DataYearsPath(), years); err != nil {
		return nil, fmt.Errorf("write data_years.json: %w", err)
	}

	return partitions, nil
}

// LoadYearPartition reads one year file back into records.
func (s *Store) LoadYearPartition(year int) ([]domain.IncidentRecord, error) {
	data, err := os.ReadFile(s.partitionPath(year))
	if err != nil {
		return nil, fmt.Errorf("read partition %d: %w", year, err)
	}
	records, err := decodePartition(data)
	if err != nil {
		return nil, fmt.Errorf("decode partition %d: %w", year, err)
	}
	return records, nil
}

// LoadExisting reads every persisted year partition into one batch, oldest
// year first. Used as the previous snapshot for the anomaly check and as the
// key source for the court scraper.
func (s *Store) LoadExisting() ([]domain.IncidentRecord, error) {
	years, err := s.DataYears()
	if err != nil {
		return nil, err
	}
	sort.Ints(years)

	var all []domain.IncidentRecord
	for _, year := range years {
		records, err := s.LoadYearPartition(year)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// CountExisting returns the total row count across persisted partitions.
// Missing partitions count as zero rows: the first run has no snapshot.
func (s *Store) CountExisting() (int, error) {
	records, err := s.LoadExisting()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// DataYears reads data_years.json. A missing file means no data yet.
func (s *Store) DataYears() ([]int, error) {
	data, err := os.ReadFile(s.DataYearsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data_years.json: %w", err)
	}
	var years []int
	if err := json.Unmarshal(data, &years); err != nil {
		return nil, fmt.Errorf("decode data_years.json: %w", err)
	}
	return years, nil
}

// UpdateMeta merges subsystem last-updated stamps into meta.json, preserving
// unrelated keys. The legacy unified "last_updated" key is dropped on write.
func (s *Store) UpdateMeta(stamps map[string]string) error {
	path := s.MetaPath()

	meta := make(map[string]string)
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("decode meta.json: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read meta.json: %w", err)
	}

	delete(meta, "last_updated")
	for k, v := range stamps {
		meta[k] = v
	}

	if err := writeJSON(path, meta); err != nil {
		return fmt.Errorf("write meta.json: %w", err)
	}
	return nil
}

func writePartition(path string, records []domain.IncidentRecord) error {
	data, err := encodePartition(records)
	if err != nil {
		return fmt.Errorf("encode partition %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write partition %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
