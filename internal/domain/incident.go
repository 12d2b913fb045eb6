package domain

import "github.com/paulmach/orb"

// DateLayout is the canonical string format for incident timestamps in the
// published dataset.
const DateLayout = "2006/01/02 15:04:05"

// Race/ethnicity codes kept in the published dataset. Any other value
// collapses to RaceOther after the latino override.
const (
	RaceBlack    = "B"
	RaceHispanic = "H"
	RaceWhite    = "W"
	RaceAsian    = "A"
	RaceOther    = "Other/Unknown"
)

// Age group buckets derived from the optional age column.
const (
	AgeUnder18 = "Younger than 18"
	Age18To30  = "18 to 30"
	Age31To45  = "31 to 45"
	AgeOver45  = "Older than 45"
	AgeUnknown = "Unknown"
)

// Geometry is a point location with an explicit empty state. A record with no
// recoverable location carries Empty=true rather than a missing field.
type Geometry struct {
	Point orb.Point
	Empty bool
}

// PointGeometry wraps a lon/lat point.
func PointGeometry(p orb.Point) Geometry {
	return Geometry{Point: p}
}

// EmptyGeometry returns the unlocated sentinel.
func EmptyGeometry() Geometry {
	return Geometry{Empty: true}
}

// RawIncident mirrors one row of the upstream shooting victims table before
// any normalization. Field semantics follow the feed conventions in the
// package documentation.
type RawIncident struct {
	DCKey           string
	Date            string // date_ column, ISO timestamp
	Time            string // "HH:MM:SS" or "<Null>"
	Race            string
	Sex             string
	Fatal           int // 1 = fatal
	Age             *float64
	Latino          int // 1 overrides race to "H"
	OfficerInvolved string
	StreetName      *string
	BlockNumber     *float64
	Point           *orb.Point // nil when the feed has no location
}

// IncidentRecord is one shooting-victim event in its published form. Records
// are created fresh each run and never mutated in place afterward; the region
// fields are filled by the geo package and the side-table flags by the
// hotspots and courts packages.
type IncidentRecord struct {
	DCKey    string
	Date     string // DateLayout
	Race     string
	Sex      string
	Fatal    bool
	Age      *float64
	AgeGroup string
	Geometry Geometry

	StreetName  *string
	BlockNumber *float64

	// Region assignments, one per boundary layer. Nil means unassigned.
	ZIPCode         *string
	CouncilDistrict *string
	PoliceDistrict  *string
	Neighborhood    *string
	SchoolName      *string
	HouseDistrict   *string
	SenateDistrict  *string
	SegmentID       *string

	HasCourtCase bool
}

// Year returns the year component of the record date, or 0 when the date is
// unparseable.
func (r IncidentRecord) Year() int {
	t, err := ParseDate(r.Date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Located reports whether the record carries a usable point.
func (r IncidentRecord) Located() bool {
	return !r.Geometry.Empty
}
