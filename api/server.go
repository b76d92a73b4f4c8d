// Package api exposes the HTTP surface: positions and time-resolution
// endpoints, the ayanamsha catalogue, health, and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"reflect"
	"time"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/involution-sh/involution/ratelimit"
	"github.com/involution-sh/involution/serving"
)

var log = logrus.WithField("prefix", "api")

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"method", "endpoint", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"endpoint"})
)

// Config tunes the HTTP server.
type Config struct {
	Host            string
	Port            string
	AllowedOrigins  []string
	RequestDeadline time.Duration
	Limiter         ratelimit.Limiter // nil disables rate limiting
	// ServiceStatuses reports the runtime service registry for /healthz.
	// Optional; the node wires in its registry here.
	ServiceStatuses func() map[reflect.Type]error
}

// Server owns the HTTP listener. Implements the runtime.Service lifecycle.
type Server struct {
	cfg    Config
	svc    *serving.Service
	srv    *http.Server
	router *mux.Router

	startErr error
}

// NewServer builds the router and middleware chain.
func NewServer(cfg Config, svc *serving.Service) *Server {
	if cfg.RequestDeadline <= 0 {
		cfg.RequestDeadline = 5 * time.Second
	}
	s := &Server{cfg: cfg, svc: svc}

	r := mux.NewRouter()
	r.HandleFunc("/v1/positions", s.handlePositions).Methods(http.MethodPost)
	r.HandleFunc("/v1/time/resolve", s.handleResolve).Methods(http.MethodPost)
	r.HandleFunc("/v1/ayanamshas", s.handleAyanamshas).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.Use(s.requestIDMiddleware)
	r.Use(s.observeMiddleware)
	// Rate limiting runs before any validation work.
	r.Use(s.rateLimitMiddleware)

	s.router = r

	handler := http.Handler(r)
	if len(cfg.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"*"},
		}).Handler(handler)
	}

	s.srv = &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Slightly above the compute deadline so timeout responses can still
		// be written.
		WriteTimeout: cfg.RequestDeadline + 2*time.Second,
	}
	return s
}

// Start begins serving. Non-blocking; bind errors surface through Status.
func (s *Server) Start() {
	log.WithField("address", s.srv.Addr).Info("Serving HTTP")
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.startErr = err
			log.WithError(err).Error("HTTP server failed")
		}
	}()
}

// Stop drains connections gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

// Status reports a bind or listener failure, if any.
func (s *Server) Status() error {
	if s.startErr != nil {
		return errors.Wrap(s.startErr, "http server")
	}
	return nil
}

// Router exposes the handler tree for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr returns the host:port the server binds to.
func (s *Server) Addr() string {
	return s.srv.Addr
}
