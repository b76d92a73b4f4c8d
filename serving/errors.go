package serving

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/involution-sh/involution/ephemeris"
	"github.com/involution-sh/involution/worker"
)

var errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "involution_errors_total",
	Help: "Request errors partitioned by taxonomy code and category.",
}, []string{"code", "category"})

// Error is a typed request error. Code follows the CATEGORY.SPECIFIC
// taxonomy; Status is the HTTP status the API layer should answer with. Raw
// messages from the compute primitive never cross this boundary: every
// primitive error is mapped to one of these.
type Error struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
	Tip    string `json:"tip,omitempty"`

	Status int   `json:"-"`
	cause  error `json:"-"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Code + ": " + e.Detail
	}
	return e.Code + ": " + e.Title
}

// Unwrap exposes the underlying cause for errors.Is chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Category is the portion of the code before the dot.
func (e *Error) Category() string {
	if i := strings.IndexByte(e.Code, '.'); i > 0 {
		return e.Code[:i]
	}
	return e.Code
}

// Count records the error in the taxonomy metric. Called once per error
// response by the API layer.
func (e *Error) Count() {
	errorsTotal.WithLabelValues(e.Code, e.Category()).Inc()
}

func newError(status int, code, title string) *Error {
	return &Error{Code: code, Title: title, Status: status}
}

func (e *Error) withDetail(detail string) *Error {
	c := *e
	c.Detail = detail
	return &c
}

func (e *Error) withTip(tip string) *Error {
	c := *e
	c.Tip = tip
	return &c
}

func (e *Error) withCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// The taxonomy. Constructors below copy these templates, so the vars stay
// immutable.
var (
	errInputInvalid       = newError(http.StatusBadRequest, "INPUT.INVALID", "Invalid request input")
	errInputMissing       = newError(http.StatusBadRequest, "INPUT.MISSING_REQUIRED", "Missing required input")
	errSystemIncompatible = newError(http.StatusBadRequest, "SYSTEM.INCOMPATIBLE", "Zodiac system incompatible with request")
	errAyanamshaRequired  = newError(http.StatusBadRequest, "AYANAMSHA.REQUIRED", "Sidereal system requires an ayanamsha")
	errAyanamshaUnknown   = newError(http.StatusBadRequest, "AYANAMSHA.UNSUPPORTED", "Unsupported ayanamsha")
	errBodiesUnsupported  = newError(http.StatusBadRequest, "BODIES.UNSUPPORTED", "Unsupported celestial body")
	errRangeOutside       = newError(http.StatusBadRequest, "RANGE.EPHEMERIS_OUTSIDE", "Instant outside ephemeris coverage")
	errTimeAmbiguous      = newError(http.StatusBadRequest, "TIME.AMBIGUOUS", "Local time is ambiguous")
	errTimeNonexistent    = newError(http.StatusBadRequest, "TIME.NONEXISTENT", "Local time does not exist")
	errKernelsUnavailable = newError(http.StatusServiceUnavailable, "KERNELS.NOT_AVAILABLE", "Kernel bundle not available")
	errWorkerFault        = newError(http.StatusInternalServerError, "COMPUTE.WORKER_FAULT", "Compute worker fault")
	errOverloaded         = newError(http.StatusServiceUnavailable, "SERVICE.OVERLOADED", "Service overloaded")
	errTimeout            = newError(http.StatusServiceUnavailable, "SERVICE.TIMEOUT", "Computation deadline exceeded")
	errUnavailable        = newError(http.StatusServiceUnavailable, "SERVICE.UNAVAILABLE", "Service unavailable")
	errRateLimited        = newError(http.StatusTooManyRequests, "RATE.LIMITED", "Rate limit exceeded")
)

// InvalidJSON wraps a request-body decode failure.
func InvalidJSON(err error) *Error {
	return errInputInvalid.
		withDetail("request body is not valid JSON: " + err.Error()).
		withTip("Check the request body against the API documentation.").
		withCause(err)
}

// RateLimited is the error the API layer returns on quota exhaustion.
func RateLimited(detail string) *Error {
	return errRateLimited.withDetail(detail).withTip("Reduce request rate or retry after the indicated delay.")
}

// Unavailable reports the service as not ready to serve.
func Unavailable(detail string) *Error {
	return errUnavailable.withDetail(detail)
}

// AsError coerces any error into a typed request error, defaulting unknown
// errors to SERVICE.UNAVAILABLE without leaking their message.
func AsError(err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	log.WithError(err).Error("Unmapped internal error reached the request boundary")
	return errUnavailable.withCause(err)
}

// mapComputeError translates pool and primitive errors into the taxonomy.
func mapComputeError(err error) *Error {
	switch {
	case errors.Is(err, worker.ErrOverloaded):
		return errOverloaded.
			withDetail("compute queue at high-water mark").
			withTip("Retry with backoff; the service is shedding load.").
			withCause(err)
	case errors.Is(err, worker.ErrCanceled):
		return errTimeout.withDetail("deadline expired while queued").withCause(err)
	case errors.Is(err, worker.ErrShuttingDown):
		return errUnavailable.withDetail("service is shutting down").withCause(err)
	case errors.Is(err, worker.ErrWorkerFault):
		return errWorkerFault.withCause(err)
	case errors.Is(err, ephemeris.ErrOutsideRange):
		return errRangeOutside.
			withTip("Check the loaded kernel bundle's coverage window.").
			withCause(err)
	case errors.Is(err, ephemeris.ErrBodyNotCovered):
		return errBodiesUnsupported.
			withDetail("body not covered by the loaded kernel bundle").
			withCause(err)
	case errors.Is(err, ephemeris.ErrCorruptKernel), errors.Is(err, ephemeris.ErrFileRead):
		return errKernelsUnavailable.withCause(err)
	default:
		return AsError(err)
	}
}
