package homicides

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// SaveTotals writes the per-year projection as homicide_totals.json, keyed by
// year: {"2024": {"annual": 410, "ytd": 102}}. Unknown values serialize as
// null so the dashboard can distinguish "no full-year total yet" from zero.
func SaveTotals(path string, totals map[int]YearTotals) error {
	keyed := make(map[string]YearTotals, len(totals))
	for year, row := range totals {
		keyed[strconv.Itoa(year)] = row
	}

	data, err := json.Marshal(keyed)
	if err != nil {
		return fmt.Errorf("encode homicide totals: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write homicide totals: %w", err)
	}
	return nil
}
