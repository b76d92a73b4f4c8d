package timeres

import "time"

// Scheme names a historical DST rule set usable by patch overrides.
type Scheme string

const (
	SchemeNone Scheme = "none"
	// SchemeUSStandard is the pre-1967 convention many US localities kept:
	// last Sunday of April 02:00 through last Sunday of October 02:00.
	SchemeUSStandard Scheme = "us_standard"
	// SchemeChicagoHistorical matches SchemeUSStandard today; tagged
	// separately because Chicago-area sources report it distinctly.
	SchemeChicagoHistorical Scheme = "chicago_historical"
)

func knownScheme(s Scheme) bool {
	switch s {
	case SchemeNone, SchemeUSStandard, SchemeChicagoHistorical:
		return true
	}
	return false
}

// lastSunday returns the date of the last Sunday of the given month.
func lastSunday(year int, month time.Month) time.Time {
	// Last day of month: day 0 of the next month.
	t := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := int(t.Weekday()) // Sunday == 0
	return t.AddDate(0, 0, -offset)
}

// schemeActive reports whether DST is in force for a local civil datetime
// under the named scheme.
func schemeActive(s Scheme, c civil) bool {
	switch s {
	case SchemeUSStandard, SchemeChicagoHistorical:
		start := lastSunday(c.year, time.April).Add(2 * time.Hour)
		end := lastSunday(c.year, time.October).Add(2 * time.Hour)
		t := c.asUTC()
		return !t.Before(start) && t.Before(end)
	default:
		return false
	}
}
