package domain

import (
	"fmt"
	"strings"
)

// FieldViolation is one failed check on one row of a batch.
type FieldViolation struct {
	Row     int
	DCKey   string
	Field   string
	Message string
}

// SchemaViolation reports every row/field in a batch that failed the incident
// record contract.
type SchemaViolation struct {
	Violations []FieldViolation
}

func (e *SchemaViolation) add(row int, dcKey, field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Row: row, DCKey: dcKey, Field: field, Message: message})
}

func (e *SchemaViolation) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schema violation: %d check(s) failed", len(e.Violations))
	for i, v := range e.Violations {
		if i == 5 {
			fmt.Fprintf(&b, "; and %d more", len(e.Violations)-i)
			break
		}
		fmt.Fprintf(&b, "; row %d field %s: %s", v.Row, v.Field, v.Message)
	}
	return b.String()
}

// AnomalyDetected halts a run when the batch size swings implausibly against
// the previous snapshot. Large swings usually indicate an upstream outage or
// schema break, not real new incidents.
type AnomalyDetected struct {
	NewCount  int
	OldCount  int
	Tolerance int
	Reason    string // "too many new rows" or "too few rows"
}

func (e *AnomalyDetected) Error() string {
	return fmt.Sprintf(
		"%s: new data has %d rows, previous snapshot had %d (tolerance %d); please manually confirm new data is correct",
		e.Reason, e.NewCount, e.OldCount, e.Tolerance,
	)
}

// JoinInvariantViolation means a spatial join added or dropped rows. This is a
// fan-out bug in enrichment, not a data-quality issue, and is never downgradable.
type JoinInvariantViolation struct {
	Stage  string
	Before int
	After  int
}

func (e *JoinInvariantViolation) Error() string {
	return fmt.Sprintf("data corrupted during enrichment: %s changed row count from %d to %d", e.Stage, e.Before, e.After)
}

// MonotonicityViolation means a same-year cumulative homicide total decreased
// without a data-correction override.
type MonotonicityViolation struct {
	Year     int
	Previous int
	Current  int
}

func (e *MonotonicityViolation) Error() string {
	return fmt.Sprintf("new YTD homicide total (%d) is less than previous YTD total (%d) for %d", e.Current, e.Previous, e.Year)
}

// UpstreamUnavailable wraps a failed or timed-out collaborator fetch. The core
// never retries; a human reviews failures before the next scheduled run.
type UpstreamUnavailable struct {
	Source string
	Err    error
}

func (e *UpstreamUnavailable) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *UpstreamUnavailable) Unwrap() error {
	return e.Err
}
