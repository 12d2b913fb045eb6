package domain

import (
	"fmt"
	"strings"
	"time"
)

var (
	validRaces = map[string]bool{
		RaceBlack:    true,
		RaceHispanic: true,
		RaceWhite:    true,
		RaceAsian:    true,
		RaceOther:    true,
	}
	validSexes = map[string]bool{"M": true, "F": true}
	validAgeGroups = map[string]bool{
		AgeUnder18: true,
		Age18To30:  true,
		Age31To45:  true,
		AgeOver45:  true,
		AgeUnknown: true,
	}
)

// ValidateBatch enforces the incident record contract before enrichment runs.
// In tolerant mode, missing dc_key rows are downgraded to returned warnings;
// enumerated-domain and format violations are unconditional fatals. The batch
// itself is never modified.
func ValidateBatch(records []IncidentRecord, tolerant bool) ([]string, error) {
	var sv SchemaViolation
	var warnings []string

	for i, rec := range records {
		switch {
		case rec.DCKey == "":
			if tolerant {
				warnings = append(warnings, fmt.Sprintf("row %d: missing dc_key", i))
			} else {
				sv.add(i, rec.DCKey, "dc_key", "missing")
			}
		case strings.HasSuffix(rec.DCKey, ".0"):
			sv.add(i, rec.DCKey, "dc_key", "bad string formatting")
		}

		if !validRaces[rec.Race] {
			sv.add(i, rec.DCKey, "race", fmt.Sprintf("value %q outside allowed set", rec.Race))
		}
		if !validSexes[rec.Sex] {
			sv.add(i, rec.DCKey, "sex", fmt.Sprintf("value %q outside allowed set", rec.Sex))
		}
		if !validAgeGroups[rec.AgeGroup] {
			sv.add(i, rec.DCKey, "age_group", fmt.Sprintf("value %q outside allowed set", rec.AgeGroup))
		}
		if _, err := time.Parse(DateLayout, rec.Date); err != nil {
			sv.add(i, rec.DCKey, "date", fmt.Sprintf("value %q is not in %s format", rec.Date, DateLayout))
		}
	}

	if len(sv.Violations) > 0 {
		return warnings, &sv
	}
	return warnings, nil
}
