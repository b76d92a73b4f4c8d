package ephemeris

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// State is the raw output of a position computation: geocentric
// ecliptic-of-date coordinates plus rates.
type State struct {
	LonDeg    float64 // ecliptic longitude, [0, 360)
	LatDeg    float64 // ecliptic latitude
	DistAU    float64 // geocentric distance
	LonSpeed  float64 // degrees per day, signed
	LatSpeed  float64 // degrees per day
	DistSpeed float64 // AU per day
}

// Coverage is the time span a kernel series is valid for.
type Coverage struct {
	StartJD float64
	EndJD   float64
}

// kernelFile is one open .ivk file plus its single-record cache. The cache
// mirrors the JPL reader design: sequential queries near the same epoch hit
// the buffered record and avoid the seek+read.
type kernelFile struct {
	f       *os.File
	hdr     header
	recSize int64
	curRec  int64
	buf     []float64
	raw     []byte
}

// Engine reads positions out of a directory of kernel files. One file per
// body series. Not safe for concurrent use: the record caches mutate on read.
type Engine struct {
	dir     string
	kernels map[uint32]*kernelFile
}

// Open loads every .ivk file under dir. Files that fail structural checks
// abort the open; a bundle is loaded whole or not at all.
func Open(dir string) (*Engine, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read kernel directory %s", dir)
	}
	e := &Engine{dir: dir, kernels: make(map[uint32]*kernelFile)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), KernelExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		kf, err := openKernelFile(path)
		if err != nil {
			e.Close()
			return nil, errors.Wrapf(err, "kernel %s", entry.Name())
		}
		if _, dup := e.kernels[kf.hdr.BodyID]; dup {
			e.Close()
			_ = kf.f.Close()
			return nil, errors.Wrapf(ErrCorruptKernel, "duplicate series for body id %d in %s", kf.hdr.BodyID, entry.Name())
		}
		e.kernels[kf.hdr.BodyID] = kf
	}
	if len(e.kernels) == 0 {
		return nil, errors.Wrapf(ErrCorruptKernel, "no kernel files in %s", dir)
	}
	return e, nil
}

func openKernelFile(path string) (*kernelFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	hdr, err := readHeader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	coeffsPerRec := int64(hdr.NComp) * int64(hdr.NCoeff)
	kf := &kernelFile{
		f:       f,
		hdr:     hdr,
		recSize: coeffsPerRec * 8,
		curRec:  -1,
		buf:     make([]float64, coeffsPerRec),
	}
	kf.raw = make([]byte, kf.recSize)

	// Cheap structural check: the file must hold exactly recCount records.
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "stat")
	}
	want := int64(headerSize) + int64(hdr.RecCount)*kf.recSize
	if fi.Size() != want {
		_ = f.Close()
		return nil, errors.Wrapf(ErrCorruptKernel, "size %d, want %d", fi.Size(), want)
	}
	return kf, nil
}

// Close releases every kernel file handle.
func (e *Engine) Close() {
	for _, kf := range e.kernels {
		if kf.f != nil {
			_ = kf.f.Close()
		}
	}
}

// Coverage returns the covered span for a body series, if loaded.
func (e *Engine) Coverage(bodyID uint32) (Coverage, bool) {
	kf, ok := e.kernels[bodyID]
	if !ok {
		return Coverage{}, false
	}
	return Coverage{StartJD: kf.hdr.StartJD, EndJD: kf.hdr.EndJD}, true
}

// BodyIDs lists the series present in the loaded bundle.
func (e *Engine) BodyIDs() []uint32 {
	ids := make([]uint32, 0, len(e.kernels))
	for id := range e.kernels {
		ids = append(ids, id)
	}
	return ids
}

// Compute interpolates the state of one body at the given Julian day.
func (e *Engine) Compute(jd float64, bodyID uint32) (State, error) {
	kf, ok := e.kernels[bodyID]
	if !ok {
		return State{}, ErrBodyNotCovered
	}
	h := kf.hdr
	if jd < h.StartJD || jd > h.EndJD {
		return State{}, ErrOutsideRange
	}

	blockLoc := (jd - h.StartJD) / h.StepDays
	rec := int64(blockLoc)
	frac := blockLoc - float64(rec)
	// The exact end of coverage belongs to the final record.
	if frac == 0 && rec != 0 {
		rec--
		frac = 1.0
	}
	if rec >= int64(h.RecCount) {
		rec = int64(h.RecCount) - 1
		frac = 1.0
	}

	if rec != kf.curRec {
		if err := kf.load(rec); err != nil {
			return State{}, err
		}
	}

	tc := 2.0*frac - 1.0
	// d(tc)/d(jd): scales the series derivative to per-day rates.
	vfac := 2.0 / h.StepDays

	n := int(h.NCoeff)
	lonRaw, lonDot := chebEval(kf.buf[0:n], tc)
	lat, latDot := chebEval(kf.buf[n:2*n], tc)
	dist, distDot := chebEval(kf.buf[2*n:3*n], tc)

	return State{
		LonDeg:    norm360(lonRaw),
		LatDeg:    lat,
		DistAU:    dist,
		LonSpeed:  lonDot * vfac,
		LatSpeed:  latDot * vfac,
		DistSpeed: distDot * vfac,
	}, nil
}

func (kf *kernelFile) load(rec int64) error {
	if _, err := kf.f.Seek(int64(headerSize)+rec*kf.recSize, io.SeekStart); err != nil {
		return errors.Wrap(ErrFileRead, err.Error())
	}
	if _, err := io.ReadFull(kf.f, kf.raw); err != nil {
		return errors.Wrap(ErrFileRead, err.Error())
	}
	for i := range kf.buf {
		kf.buf[i] = math.Float64frombits(binary.LittleEndian.Uint64(kf.raw[i*8:]))
	}
	kf.curRec = rec
	return nil
}

func norm360(deg float64) float64 {
	d := math.Mod(deg, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}
