package timeres

import "strings"

// zoneAbbrev is one entry of the fixed table of non-IANA abbreviations the
// as_entered profile honors verbatim.
type zoneAbbrev struct {
	offsetSeconds int
	dst           bool
}

var zoneAbbrevs = map[string]zoneAbbrev{
	"EST": {-5 * 3600, false},
	"EDT": {-4 * 3600, true},
	"CST": {-6 * 3600, false},
	"CDT": {-5 * 3600, true},
	"MST": {-7 * 3600, false},
	"MDT": {-6 * 3600, true},
	"PST": {-8 * 3600, false},
	"PDT": {-7 * 3600, true},
}

func lookupAbbrev(name string) (zoneAbbrev, bool) {
	a, ok := zoneAbbrevs[strings.ToUpper(strings.TrimSpace(name))]
	return a, ok
}
