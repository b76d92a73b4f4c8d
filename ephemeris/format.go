// Package ephemeris implements the numerical compute primitive: a reader for
// Involution kernel (.ivk) files holding Chebyshev coefficient series for the
// supported bodies. The layout follows the JPL development-ephemeris scheme of
// fixed-length coefficient records per time step, with a simplified header.
//
// An Engine keeps per-file record caches and is NOT safe for concurrent use.
// Callers are expected to give each worker its own Engine.
package ephemeris

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

// KernelExt is the file extension of Involution kernels.
const KernelExt = ".ivk"

var magic = [4]byte{'I', 'V', 'K', '1'}

// nComponents is the number of series per record: ecliptic-of-date longitude
// (degrees, unwrapped), ecliptic latitude (degrees) and geocentric distance
// (AU).
const nComponents = 3

const headerSize = 4 + 4 + 8 + 8 + 8 + 4 + 4 + 4

var byteOrder = binary.LittleEndian

// header describes one kernel file.
type header struct {
	BodyID   uint32
	StartJD  float64
	EndJD    float64
	StepDays float64
	NCoeff   uint32
	NComp    uint32
	RecCount uint32
}

func readHeader(f *os.File) (header, error) {
	var h header
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return h, errors.Wrap(ErrCorruptKernel, "short header")
	}
	if buf[0] != magic[0] || buf[1] != magic[1] || buf[2] != magic[2] || buf[3] != magic[3] {
		return h, errors.Wrap(ErrCorruptKernel, "bad magic")
	}
	h.BodyID = byteOrder.Uint32(buf[4:8])
	h.StartJD = float64frombits(buf[8:16])
	h.EndJD = float64frombits(buf[16:24])
	h.StepDays = float64frombits(buf[24:32])
	h.NCoeff = byteOrder.Uint32(buf[32:36])
	h.NComp = byteOrder.Uint32(buf[36:40])
	h.RecCount = byteOrder.Uint32(buf[40:44])

	if h.NComp != nComponents {
		return h, errors.Wrapf(ErrCorruptKernel, "unexpected component count %d", h.NComp)
	}
	if h.NCoeff < 2 || h.NCoeff > 64 {
		return h, errors.Wrapf(ErrCorruptKernel, "unreasonable coefficient count %d", h.NCoeff)
	}
	if h.StepDays <= 0 || h.EndJD <= h.StartJD || h.RecCount == 0 {
		return h, errors.Wrap(ErrCorruptKernel, "inconsistent coverage fields")
	}
	return h, nil
}

func writeHeader(f *os.File, h header) error {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic[:])
	byteOrder.PutUint32(buf[4:8], h.BodyID)
	putFloat64(buf[8:16], h.StartJD)
	putFloat64(buf[16:24], h.EndJD)
	putFloat64(buf[24:32], h.StepDays)
	byteOrder.PutUint32(buf[32:36], h.NCoeff)
	byteOrder.PutUint32(buf[36:40], h.NComp)
	byteOrder.PutUint32(buf[40:44], h.RecCount)
	_, err := f.Write(buf)
	return err
}

func float64frombits(b []byte) float64 {
	return math.Float64frombits(byteOrder.Uint64(b))
}

func putFloat64(b []byte, v float64) {
	byteOrder.PutUint64(b, math.Float64bits(v))
}
