package timeres

import (
	"fmt"
	"math"
)

// lonSplit assigns a zone to a longitudinal slice of a region box. Slices are
// checked in order; the first containing slice wins.
type lonSplit struct {
	minLon, maxLon float64
	zone           string
}

// regionOverride is a rectangular bounding box for a region whose zone
// history is too tangled for nearest-city lookup to get right, subdivided by
// longitude. These take priority over every other lookup layer.
type regionOverride struct {
	name           string
	minLat, maxLat float64
	minLon, maxLon float64
	splits         []lonSplit
}

var regionOverrides = []regionOverride{
	{
		// Kentucky: counties moved between Central and Eastern through the
		// 1940s-60s; the modern boundary runs roughly along -86.3.
		name:   "kentucky",
		minLat: 36.49, maxLat: 39.15,
		minLon: -89.57, maxLon: -81.96,
		splits: []lonSplit{
			{-89.57, -86.30, "America/Chicago"},
			{-86.30, -81.96, "America/Kentucky/Louisville"},
		},
	},
	{
		// Indiana: most of the state follows Indianapolis; the northwest
		// corner is Chicago time.
		name:   "indiana",
		minLat: 37.77, maxLat: 41.76,
		minLon: -88.10, maxLon: -84.78,
		splits: []lonSplit{
			{-88.10, -87.00, "America/Chicago"},
			{-87.00, -84.78, "America/Indiana/Indianapolis"},
		},
	},
	{
		// Arizona: no DST since 1967, distinct from the rest of Mountain time.
		name:   "arizona",
		minLat: 31.30, maxLat: 37.00,
		minLon: -114.80, maxLon: -109.05,
		splits: []lonSplit{
			{-114.80, -109.05, "America/Phoenix"},
		},
	},
}

// lookupRegion returns the override zone for a coordinate, if any box
// contains it.
func lookupRegion(lat, lon float64) (zone, region string, ok bool) {
	for _, r := range regionOverrides {
		if lat < r.minLat || lat > r.maxLat || lon < r.minLon || lon > r.maxLon {
			continue
		}
		for _, s := range r.splits {
			if lon >= s.minLon && lon <= s.maxLon {
				return s.zone, r.name, true
			}
		}
	}
	return "", "", false
}

// lookupBand is the coarse fallback: a 15-degree longitude band mapped to the
// matching Etc/GMT zone. Note the Etc convention inverts the sign.
func lookupBand(lon float64) string {
	n := int(math.Round(lon / 15.0))
	switch {
	case n > 0:
		return fmt.Sprintf("Etc/GMT-%d", n)
	case n < 0:
		return fmt.Sprintf("Etc/GMT+%d", -n)
	default:
		return "Etc/GMT"
	}
}
