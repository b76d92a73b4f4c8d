package astro

import (
	"math"
	"time"
)

// J2000 is the Julian day number of the J2000.0 epoch (2000-01-01 12:00 TT).
const J2000 = 2451545.0

// JulianCentury is the number of days in a Julian century.
const JulianCentury = 36525.0

// JulianDay converts an instant to its Julian day number.
func JulianDay(t time.Time) float64 {
	utc := t.UTC()
	year := utc.Year()
	month := int(utc.Month())
	day := utc.Day()

	if month <= 2 {
		year--
		month += 12
	}

	a := year / 100
	b := 2 - a + a/4

	jd := math.Floor(365.25*float64(year+4716)) +
		math.Floor(30.6001*float64(month+1)) +
		float64(day) + float64(b) - 1524.5

	// The integer-day terms above land on the midnight JD (fraction .5), so
	// the time of day is added from midnight, not from noon.
	hour := float64(utc.Hour())
	minute := float64(utc.Minute())
	second := float64(utc.Second()) + float64(utc.Nanosecond())/1e9
	jd += hour/24.0 + minute/1440.0 + second/86400.0

	return jd
}

// JulianDayToTime converts a Julian day number back to a UTC instant, rounded
// to the nearest second.
func JulianDayToTime(jd float64) time.Time {
	z := math.Floor(jd + 0.5)
	f := jd + 0.5 - z

	var a float64
	if z < 2299161 {
		a = z
	} else {
		alpha := math.Floor((z - 1867216.25) / 36524.25)
		a = z + 1 + alpha - math.Floor(alpha/4)
	}

	b := a + 1524
	c := math.Floor((b - 122.1) / 365.25)
	d := math.Floor(365.25 * c)
	e := math.Floor((b - d) / 30.6001)

	day := int(b - d - math.Floor(30.6001*e))
	var month int
	if e < 14 {
		month = int(e - 1)
	} else {
		month = int(e - 13)
	}
	var year int
	if month > 2 {
		year = int(c - 4716)
	} else {
		year = int(c - 4715)
	}

	secs := f * 86400.0
	hour := int(secs / 3600)
	minute := int(secs/60) % 60
	second := int(math.Round(secs)) % 60
	// Rounding may carry into the next minute.
	if second == 60 {
		second = 0
		minute++
		if minute == 60 {
			minute = 0
			hour++
		}
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

// JulianCenturies returns the time argument T used by precession and
// ayanamsha polynomials: Julian centuries since J2000.0.
func JulianCenturies(jd float64) float64 {
	return (jd - J2000) / JulianCentury
}
