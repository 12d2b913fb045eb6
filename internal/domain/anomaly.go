package domain

// Default batch-size swing tolerances against the previous snapshot.
const (
	DefaultUpperTolerance = 100
	DefaultLowerTolerance = 10
)

// CheckAnomaly compares the fresh batch size to the previously persisted
// snapshot and rejects implausible volume swings. Non-positive tolerances
// fall back to the defaults. Returns *AnomalyDetected on failure.
func CheckAnomaly(newCount, oldCount, upper, lower int) error {
	if upper <= 0 {
		upper = DefaultUpperTolerance
	}
	if lower <= 0 {
		lower = DefaultLowerTolerance
	}

	if newCount-oldCount > upper {
		return &AnomalyDetected{
			NewCount:  newCount,
			OldCount:  oldCount,
			Tolerance: upper,
			Reason:    "too many new rows",
		}
	}
	if oldCount-newCount > lower {
		return &AnomalyDetected{
			NewCount:  newCount,
			OldCount:  oldCount,
			Tolerance: lower,
			Reason:    "too few rows",
		}
	}
	return nil
}
