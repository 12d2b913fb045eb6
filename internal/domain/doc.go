// Package domain models the shooting-victim incident records behind the
// city gun-violence dashboard.
//
// # Data Source
//
// Incident rows come from the police department's public shooting victims
// table, one row per victim. The feed is live and externally mutable: every
// run downloads the full table and rebuilds the published dataset from
// scratch, so every transform in this package must be safe to repeat.
//
// # Feed Conventions
//
// DC key:
//
//	The unique incident number assigned by the police department, and the
//	primary join key across all side tables. The feed sometimes delivers it
//	as a float ("202012345.0"); [NormalizeDCKey] reformats it as a plain
//	integer string. A key ending in ".0" is a formatting bug, never valid.
//
// Date and time:
//
//	The date_ column is an ISO timestamp whose time portion is unreliable;
//	the separate time column holds "HH:MM:SS" or the literal "<Null>".
//	The two are combined and reformatted as "YYYY/MM/DD HH:MM:SS"
//	([DateLayout]). Rows dated in the future are dropped with a warning.
//
// Race/ethnicity:
//
//	"B" = Black, Non-Hispanic, "H" = Hispanic, "W" = White, Non-Hispanic,
//	"A" = Asian. A latino flag of 1 overrides the race column to "H".
//	After the override, anything outside {B, H, W, A} collapses to
//	"Other/Unknown".
//
// Age groups:
//
//	<18, 18 to 30, 31 to 45, older than 45, derived from the optional age
//	column; missing ages bucket to "Unknown".
//
// Geometry:
//
//	A record with no recoverable point location carries an explicit empty
//	geometry sentinel ([Geometry].Empty), never a missing field. Region
//	assignments (zip code, districts, neighborhood, catchment) are filled
//	by the geo package and stay nil for unlocated records.
//
// Court cases:
//
//	has_court_case follows a closed-world assumption: absence from the
//	court index means false until a scrape proves otherwise.
package domain
