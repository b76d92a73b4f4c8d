package serving

import (
	"math"

	"github.com/involution-sh/involution/astro"
)

const (
	earthEquatorialRadiusKm = 6378.14
	kmPerAU                 = 149597870.7
	// Flattening term for the geodetic-to-geocentric latitude reduction.
	earthFlatteningRatio = 0.99664719
)

// topocentricEcliptic shifts geocentric ecliptic coordinates to the observer.
// Only the Moon is close enough for the shift to exceed the service's
// reported precision, so the post-processing step applies this to the Moon
// alone. The correction works in the equatorial frame (diurnal parallax in
// hour angle) and converts back.
func topocentricEcliptic(lonDeg, latDeg, distAU, jd, obsLatDeg, obsLonDeg, elevM float64) (float64, float64) {
	t := astro.JulianCenturies(jd)
	eps := astro.MeanObliquity(t)

	raHours, decDeg := astro.EclipticToEquatorial(lonDeg, latDeg, eps)
	ra := raHours * math.Pi / 12.0
	dec := decDeg * math.Pi / 180.0

	// Observer's geocentric position terms.
	phi := obsLatDeg * math.Pi / 180.0
	u := math.Atan(earthFlatteningRatio * math.Tan(phi))
	hFac := elevM / 1000.0 / earthEquatorialRadiusKm
	rhoSin := earthFlatteningRatio*math.Sin(u) + hFac*math.Sin(phi)
	rhoCos := math.Cos(u) + hFac*math.Cos(phi)

	sinPar := earthEquatorialRadiusKm / (distAU * kmPerAU)

	// Local hour angle, east longitudes positive.
	lstDeg := astro.Norm360(astro.GreenwichSiderealTime(jd) + obsLonDeg)
	h := lstDeg*math.Pi/180.0 - ra

	dRA := math.Atan2(-rhoCos*sinPar*math.Sin(h),
		math.Cos(dec)-rhoCos*sinPar*math.Cos(h))
	raTopo := ra + dRA
	decTopo := math.Atan2((math.Sin(dec)-rhoSin*sinPar)*math.Cos(dRA),
		math.Cos(dec)-rhoCos*sinPar*math.Cos(h))

	return astro.EquatorialToEcliptic(raTopo*12.0/math.Pi, decTopo*180.0/math.Pi, eps)
}
