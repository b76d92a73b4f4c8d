package ephemeris

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/pkg/errors"
)

// SeriesFunc produces the three series values for an instant: unwrapped
// ecliptic longitude (degrees, monotone across record boundaries), latitude
// (degrees) and geocentric distance (AU). The longitude must not be reduced
// modulo 360 by the model; the reader normalizes after interpolation.
type SeriesFunc func(jd float64) (lonDeg, latDeg, distAU float64)

// WriteKernel fits fn over [startJD, endJD] in stepDays-sized records of
// nCoeff Chebyshev coefficients per component and writes the result to path.
// Used by bundle tooling and test fixtures.
func WriteKernel(path string, bodyID uint32, startJD, endJD, stepDays float64, nCoeff int, fn SeriesFunc) error {
	if endJD <= startJD || stepDays <= 0 {
		return errors.New("invalid coverage span")
	}
	if nCoeff < 2 || nCoeff > 64 {
		return errors.Errorf("coefficient count %d out of range", nCoeff)
	}
	recCount := uint32(math.Ceil((endJD - startJD) / stepDays))
	// Snap the end so coverage is an exact multiple of the step.
	endJD = startJD + float64(recCount)*stepDays

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create kernel")
	}
	defer func() { _ = f.Close() }()

	h := header{
		BodyID:   bodyID,
		StartJD:  startJD,
		EndJD:    endJD,
		StepDays: stepDays,
		NCoeff:   uint32(nCoeff),
		NComp:    nComponents,
		RecCount: recCount,
	}
	if err := writeHeader(f, h); err != nil {
		return errors.Wrap(err, "write header")
	}

	raw := make([]byte, nComponents*nCoeff*8)
	comps := [nComponents]func(jd float64) float64{
		func(jd float64) float64 { lon, _, _ := fn(jd); return lon },
		func(jd float64) float64 { _, lat, _ := fn(jd); return lat },
		func(jd float64) float64 { _, _, dist := fn(jd); return dist },
	}
	for r := uint32(0); r < recCount; r++ {
		a := startJD + float64(r)*stepDays
		b := a + stepDays
		off := 0
		for c := 0; c < nComponents; c++ {
			coeffs := chebFit(a, b, nCoeff, comps[c])
			for _, v := range coeffs {
				binary.LittleEndian.PutUint64(raw[off:], math.Float64bits(v))
				off += 8
			}
		}
		if _, err := f.Write(raw); err != nil {
			return errors.Wrap(err, "write record")
		}
	}
	return nil
}
