package ephemeris

import "github.com/pkg/errors"

// ErrOutsideRange is returned when the requested instant falls outside the
// time span covered by the loaded kernel.
var ErrOutsideRange = errors.New("requested instant is outside kernel coverage")

// ErrBodyNotCovered is returned when no loaded kernel carries a series for
// the requested body.
var ErrBodyNotCovered = errors.New("body not covered by loaded kernels")

// ErrCorruptKernel is returned when a kernel file fails structural checks.
var ErrCorruptKernel = errors.New("kernel file is corrupt")

// ErrFileRead is returned when a record read fails mid-computation.
var ErrFileRead = errors.New("error reading from kernel file")
