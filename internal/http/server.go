package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	applog "panel/internal/log"
	"panel/internal/middleware/ratelimit"
	"panel/internal/middleware/security"
	"panel/internal/middleware/trace"
	"panel/internal/services"
)

// Options configures the API server.
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	TrustedProxies     []string
	// Location decides the default month when a request names none.
	Location *time.Location
}

type Server struct {
	http.Server
	metrics    *services.MetricsService
	logger     *applog.Logger
	structured *applog.StructuredLogger
	limiter    *ratelimit.Limiter
	detector   *security.Detector
	tracer     *trace.Middleware
	location   *time.Location
	now        func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *services.MetricsService, opts Options) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("metrics service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	detector, err := security.NewDetector(opts.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	s := &Server{
		metrics:    svc,
		logger:     logger,
		structured: applog.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP, logger),
		location: loc,
		now:      time.Now,
	}

	api := http.NewServeMux()
	api.HandleFunc("/api/metrics", s.handleMetrics)
	api.HandleFunc("/api/metrics/compute", s.handleCompute)
	api.HandleFunc("/api/status", s.handleStatus)
	api.HandleFunc("/api/", s.handleNotFound)

	mux := http.NewServeMux()
	mux.Handle("/api/", s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(api))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/", s.handleNotFound)

	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = detector.Middleware(logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	TooManyRequestsError("rate limit exceeded, please try again later").
		Write(w, trace.RequestIDFromRequest(r))
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
