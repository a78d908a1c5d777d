// Package server wires the HTTP routes of the apply server.
package server

import (
	"fmt"
	"net/http"
	"time"

	"apply-portal/internal/common/logger"
	"apply-portal/internal/tracking"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PageRoutes registers the HTML pages.
type PageRoutes interface {
	Routes(r chi.Router)
}

type Deps struct {
	Pages       PageRoutes
	Static      http.Handler
	Submit      http.Handler
	SubmitRoute string
	Limiter     *RateLimiter
	Checks      map[string]Check
	Logger      logger.Logger
	// TrustProxy honours X-Forwarded-For/X-Real-IP. Only set it behind a
	// proxy that overwrites those headers, or clients pick their own
	// rate-limit bucket.
	TrustProxy  bool
}

// NewRouter builds the public router. Health endpoints sit on the public
// port too so load balancers need no second target.
func NewRouter(d Deps) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if d.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(logger.AccessLog(d.Logger))
	r.Use(tracking.Capture(d.Logger))

	r.Get("/health", healthHandler)
	r.Get("/ready", readyHandler(d.Checks))
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	if d.Static != nil {
		r.Handle("/static/*", d.Static)
	}

	submit := d.Submit
	if d.Limiter != nil {
		submit = d.Limiter.Handler(submit)
	}
	r.Method(http.MethodPost, d.SubmitRoute, submit)

	d.Pages.Routes(r)
	return r
}

func New(port int, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       120 * time.Second,
	}
}

// NewMetricsServer serves /metrics, /health and /ready on the metrics port.
func NewMetricsServer(port int, checks map[string]Check) *http.Server {
	mux := chi.NewRouter()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health", healthHandler)
	mux.Get("/ready", readyHandler(checks))
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
