// Package homicides maintains the citywide homicide count series scraped from
// the police department's crime statistics site.
//
// Two outputs are derived from each upstream snapshot: an append-only daily
// series of (date, year-to-date total) rows, and a per-year projection of
// annual and year-to-date totals. The daily series is strictly ascending by
// date with at most one row per date, and a same-year total must never
// decrease between runs unless a data-correction override is supplied.
package homicides

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/gv-dashboard-data/internal/domain"
)

// seriesTimeLayout is the timestamp format of homicide_totals_daily.csv.
const seriesTimeLayout = "2006-01-02 15:04:05"

// SeriesPoint is one row of the daily series: the year-to-date total as of a
// given observation time.
type SeriesPoint struct {
	Date  time.Time
	Total int
}

// Snapshot is one upstream observation: annual totals for past years and the
// year-to-date total for the in-progress year, stamped with an as-of date.
// The transport that produced it (HTML scrape or JSON API) is deliberately
// opaque to this package.
type Snapshot struct {
	AsOfDate time.Time
	Annual   map[int]int // year -> full-year total; current year usually absent
	YTD      map[int]int // year -> year-to-date total
}

// Source fetches a fresh homicide snapshot from the upstream site.
type Source interface {
	Fetch(ctx context.Context) (Snapshot, error)
}

// Update produces the next daily series from the existing one and a fresh
// snapshot. If the last row carries the same as-of date it is replaced
// (same-day correction); otherwise a new row is appended. A same-year
// decrease fails with *domain.MonotonicityViolation unless force is set.
// The result is deduplicated by date (keep last) and ascending.
func Update(series []SeriesPoint, snap Snapshot, force bool) ([]SeriesPoint, error) {
	year := snap.AsOfDate.Year()
	ytd, ok := snap.YTD[year]
	if !ok {
		return nil, fmt.Errorf("snapshot has no YTD total for %d", year)
	}

	out := make([]SeriesPoint, len(series))
	copy(out, series)
	sortSeries(out)

	// Same-day correction: replace rather than append.
	if n := len(out); n > 0 && out[n-1].Date.Equal(snap.AsOfDate) {
		out = out[:n-1]
	}

	out = append(out, SeriesPoint{Date: snap.AsOfDate, Total: ytd})

	if n := len(out); n >= 2 {
		prev, curr := out[n-2], out[n-1]
		sameYear := prev.Date.Year() == curr.Date.Year()
		if sameYear && curr.Total < prev.Total && !force {
			return nil, &domain.MonotonicityViolation{
				Year:     curr.Date.Year(),
				Previous: prev.Total,
				Current:  curr.Total,
			}
		}
	}

	return dedupeByDate(out), nil
}

// YearTotals is the per-year projection row.
type YearTotals struct {
	Annual *int `json:"annual"`
	YTD    *int `json:"ytd"`
}

// Totals merges the snapshot's annual and year-to-date tables into one
// per-year projection. It is a pure function of the snapshot and carries no
// invariants beyond its inputs.
func Totals(snap Snapshot) map[int]YearTotals {
	out := make(map[int]YearTotals)
	for year, total := range snap.Annual {
		t := total
		row := out[year]
		row.Annual = &t
		out[year] = row
	}
	for year, total := range snap.YTD {
		t := total
		row := out[year]
		row.YTD = &t
		out[year] = row
	}
	return out
}

// LoadSeries reads homicide_totals_daily.csv and returns it sorted ascending
// by date. A missing file yields an empty series.
func LoadSeries(path string) ([]SeriesPoint, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open homicide series: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read homicide series: %w", err)
	}

	var series []SeriesPoint
	for i, row := range rows {
		if i == 0 && len(row) >= 1 && row[0] == "date" {
			continue
		}
		if len(row) < 2 {
			continue
		}
		date, err := time.Parse(seriesTimeLayout, row[0])
		if err != nil {
			return nil, fmt.Errorf("homicide series row %d: bad date %q", i, row[0])
		}
		total, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("homicide series row %d: bad total %q", i, row[1])
		}
		series = append(series, SeriesPoint{Date: date, Total: total})
	}

	sortSeries(series)
	return series, nil
}

// SaveSeries writes the full series snapshot, deduplicated and ascending.
func SaveSeries(path string, series []SeriesPoint) error {
	out := make([]SeriesPoint, len(series))
	copy(out, series)
	sortSeries(out)
	out = dedupeByDate(out)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write homicide series: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "total"}); err != nil {
		return err
	}
	for _, p := range out {
		if err := w.Write([]string{p.Date.Format(seriesTimeLayout), strconv.Itoa(p.Total)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func sortSeries(series []SeriesPoint) {
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})
}

// dedupeByDate keeps the last row for each date, preserving ascending order.
func dedupeByDate(series []SeriesPoint) []SeriesPoint {
	byDate := make(map[time.Time]int, len(series))
	for _, p := range series {
		byDate[p.Date] = p.Total
	}
	out := make([]SeriesPoint, 0, len(byDate))
	seen := make(map[time.Time]bool, len(byDate))
	for _, p := range series {
		if seen[p.Date] {
			continue
		}
		seen[p.Date] = true
		out = append(out, SeriesPoint{Date: p.Date, Total: byDate[p.Date]})
	}
	return out
}
