package astro

import "math"

// ZodiacSystem selects the reference frame of reported longitudes.
type ZodiacSystem string

const (
	Tropical ZodiacSystem = "tropical"
	Sidereal ZodiacSystem = "sidereal"
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Norm360 normalizes an angle in degrees to [0, 360).
func Norm360(deg float64) float64 {
	d := math.Mod(deg, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// Sign returns the zodiac sign name containing the given ecliptic longitude.
func Sign(lonDeg float64) string {
	idx := int(Norm360(lonDeg) / 30.0)
	if idx > 11 {
		idx = 11
	}
	return signNames[idx]
}

// DegreeInSign returns the longitude measured from the start of its sign.
func DegreeInSign(lonDeg float64) float64 {
	return math.Mod(Norm360(lonDeg), 30.0)
}

// DMS splits an angle into whole degrees, minutes and seconds of arc.
// The sign of the angle is carried on the degrees component.
func DMS(deg float64) (d, m, s int) {
	neg := deg < 0
	abs := math.Abs(deg)
	d = int(abs)
	rem := (abs - float64(d)) * 60.0
	m = int(rem)
	s = int(math.Round((rem - float64(m)) * 60.0))
	if s == 60 {
		s = 0
		m++
	}
	if m == 60 {
		m = 0
		d++
	}
	if neg {
		d = -d
	}
	return d, m, s
}
