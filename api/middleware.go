package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/involution-sh/involution/serving"
)

type ctxKey int

const requestIDKey ctxKey = iota

// requestID returns the id attached by the middleware.
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware attaches a request id to the context and echoes it on
// every response, success or error.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// observeMiddleware emits the request log line and the http_* metric series.
func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		endpoint := r.URL.Path
		elapsed := time.Since(start)
		httpRequests.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
		log.WithFields(map[string]interface{}{
			"method":    r.Method,
			"path":      endpoint,
			"status":    rec.status,
			"duration":  elapsed,
			"requestId": requestID(r.Context()),
		}).Debug("Handled request")
	})
}

// rateLimitMiddleware enforces the per-client quota before any validation or
// compute work. Health and metrics are exempt.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Limiter == nil || r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		d := s.cfg.Limiter.Allow(r.Context(), clientKey(r))
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
		if !d.Allowed {
			reset := time.Now().Add(d.RetryAfter)
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
			w.Header().Set("Retry-After", strconv.Itoa(int(d.RetryAfter.Seconds()+0.5)))
			s.writeError(w, r, serving.RateLimited(
				fmt.Sprintf("quota is %d per window", d.Limit)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey identifies the client: the first address of the forwarded-for
// chain when present, else the socket address.
func clientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		if first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestContext applies the server deadline, shortened by the
// X-Compute-Deadline-Ms header when the client asks for less.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	deadline := s.cfg.RequestDeadline
	if ms := r.Header.Get("X-Compute-Deadline-Ms"); ms != "" {
		if n, err := strconv.Atoi(ms); err == nil && n > 0 {
			if d := time.Duration(n) * time.Millisecond; d < deadline {
				deadline = d
			}
		}
	}
	return context.WithTimeout(r.Context(), deadline)
}
