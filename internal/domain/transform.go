package domain

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"
)

// feedTimeLayout parses the combined "date time" string assembled from the
// upstream date_ and time columns.
const feedTimeLayout = "2006-01-02 15:04:05"

// Normalize converts a raw upstream batch into IncidentRecords. It drops
// officer-involved rows and rows dated in the future (with a warning),
// normalizes keys, race codes, and timestamps, derives age groups, and sorts
// the batch date-descending. It never fails: malformed values surface later
// through ValidateBatch.
func Normalize(raws []RawIncident, logger *slog.Logger) []IncidentRecord {
	now := clock.Now()
	records := make([]IncidentRecord, 0, len(raws))
	futureDates := 0

	for _, raw := range raws {
		if raw.OfficerInvolved != "N" {
			continue
		}

		date, ok := parseIncidentTime(raw.Date, raw.Time)
		if ok && date.After(now) {
			futureDates++
			continue
		}

		rec := IncidentRecord{
			DCKey:       NormalizeDCKey(raw.DCKey),
			Race:        normalizeRace(raw.Race, raw.Latino),
			Sex:         strings.TrimSpace(raw.Sex),
			Fatal:       raw.Fatal == 1,
			Age:         raw.Age,
			AgeGroup:    deriveAgeGroup(raw.Age),
			Geometry:    EmptyGeometry(),
			StreetName:  raw.StreetName,
			BlockNumber: raw.BlockNumber,
		}
		if ok {
			rec.Date = date.Format(DateLayout)
		}
		if raw.Point != nil {
			rec.Geometry = PointGeometry(*raw.Point)
		}
		records = append(records, rec)
	}

	if futureDates > 0 {
		logger.Warn("dropped future-dated rows from upstream feed", "count", futureDates)
	}

	// DateLayout sorts lexicographically in chronological order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date > records[j].Date
	})

	return records
}

// NormalizeDCKey reformats float-styled keys like "202012345.0" as plain
// integer strings. Keys that are not numeric, or already plain, pass through
// unchanged.
func NormalizeDCKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" || !strings.ContainsAny(key, ".eE") {
		return key
	}
	f, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return key
	}
	return strconv.FormatInt(int64(f), 10)
}

// ParseDate parses a canonical DateLayout timestamp.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// parseIncidentTime combines the date_ column (ISO, first 10 characters) with
// the time column. "<Null>" and empty times mean midnight.
func parseIncidentTime(dateStr, timeStr string) (time.Time, bool) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" || timeStr == "<Null>" {
		timeStr = "00:00:00"
	}
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) > 10 {
		dateStr = dateStr[:10]
	}

	t, err := time.Parse(feedTimeLayout, dateStr+" "+timeStr)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// normalizeRace applies the latino override, then collapses anything outside
// the published code set to "Other/Unknown".
func normalizeRace(race string, latino int) string {
	race = strings.TrimSpace(race)
	if latino == 1 {
		race = RaceHispanic
	}
	switch race {
	case RaceBlack, RaceHispanic, RaceWhite, RaceAsian:
		return race
	default:
		return RaceOther
	}
}

// deriveAgeGroup buckets the optional age column.
func deriveAgeGroup(age *float64) string {
	switch {
	case age == nil:
		return AgeUnknown
	case *age <= 17:
		return AgeUnder18
	case *age <= 30:
		return Age18To30
	case *age <= 45:
		return Age31To45
	default:
		return AgeOver45
	}
}
