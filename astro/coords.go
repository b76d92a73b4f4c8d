package astro

import "math"

// Frame is the coordinate frame positions are reported in.
type Frame string

// Epoch is the reference epoch of the reporting frame.
type Epoch string

const (
	EclipticOfDate Frame = "ecliptic_of_date"
	Equatorial     Frame = "equatorial"

	OfDate     Epoch = "of_date"
	EpochJ2000 Epoch = "J2000"
)

// LegalFramePair reports whether the frame/epoch combination is one of the
// two supported pairs: (ecliptic_of_date, of_date) and (equatorial, J2000).
func LegalFramePair(f Frame, e Epoch) bool {
	switch f {
	case EclipticOfDate:
		return e == OfDate
	case Equatorial:
		return e == EpochJ2000
	}
	return false
}

// obliquityJ2000Deg is the mean obliquity of the ecliptic at J2000.0.
const obliquityJ2000Deg = 23.4392911

// generalPrecessionDegPerCy is the accumulated general precession in ecliptic
// longitude, degrees per Julian century (5029.0966 arcsec/cy).
const generalPrecessionDegPerCy = 5029.0966 / 3600.0

// MeanObliquity returns the mean obliquity of the ecliptic in degrees for the
// time argument T in Julian centuries since J2000.0 (Laskar polynomial,
// truncated to the cubic term).
func MeanObliquity(t float64) float64 {
	return 23.4392911 - (46.8150*t+0.00059*t*t-0.001813*t*t*t)/3600.0
}

// EclipticToEquatorial converts ecliptic coordinates (degrees) to right
// ascension (hours) and declination (degrees) for the given obliquity.
func EclipticToEquatorial(lonDeg, latDeg, obliquityDeg float64) (raHours, decDeg float64) {
	lon := lonDeg * math.Pi / 180.0
	lat := latDeg * math.Pi / 180.0
	eps := obliquityDeg * math.Pi / 180.0

	sinDec := math.Sin(lat)*math.Cos(eps) + math.Cos(lat)*math.Sin(eps)*math.Sin(lon)
	dec := math.Asin(sinDec)

	y := math.Sin(lon)*math.Cos(eps) - math.Tan(lat)*math.Sin(eps)
	x := math.Cos(lon)
	ra := math.Atan2(y, x)
	if ra < 0 {
		ra += 2 * math.Pi
	}

	return ra * 12.0 / math.Pi, dec * 180.0 / math.Pi
}

// EquatorialToEcliptic is the inverse of EclipticToEquatorial.
func EquatorialToEcliptic(raHours, decDeg, obliquityDeg float64) (lonDeg, latDeg float64) {
	ra := raHours * math.Pi / 12.0
	dec := decDeg * math.Pi / 180.0
	eps := obliquityDeg * math.Pi / 180.0

	sinLat := math.Sin(dec)*math.Cos(eps) - math.Cos(dec)*math.Sin(eps)*math.Sin(ra)
	lat := math.Asin(sinLat)

	y := math.Sin(ra)*math.Cos(eps) + math.Tan(dec)*math.Sin(eps)
	x := math.Cos(ra)
	lon := math.Atan2(y, x)

	return Norm360(lon * 180.0 / math.Pi), lat * 180.0 / math.Pi
}

// GreenwichSiderealTime returns the mean sidereal time at Greenwich in
// degrees for a Julian day (UT).
func GreenwichSiderealTime(jd float64) float64 {
	t := JulianCenturies(jd)
	theta := 280.46061837 + 360.98564736629*(jd-J2000) +
		0.000387933*t*t - t*t*t/38710000.0
	return Norm360(theta)
}

// PrecessToJ2000 removes the accumulated general precession from an
// ecliptic-of-date longitude, yielding the longitude referred to the J2000
// ecliptic. Latitude is unchanged at the precision reported by the service.
func PrecessToJ2000(lonDeg float64, t float64) float64 {
	return Norm360(lonDeg - generalPrecessionDegPerCy*t)
}

// EquatorialJ2000 converts ecliptic-of-date coordinates to equatorial
// coordinates referred to the J2000 equator and equinox.
func EquatorialJ2000(lonDeg, latDeg float64, t float64) (raHours, decDeg float64) {
	lon2000 := PrecessToJ2000(lonDeg, t)
	return EclipticToEquatorial(lon2000, latDeg, obliquityJ2000Deg)
}
