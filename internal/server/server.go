// internal/server/server.go
//
// HTTP surface assembly: router, middleware chain, and a hardened server.
//
// Context
// -------
// The router and server are thin consumers of the resolved application
// settings.  Timeouts come from the server section (slow-loris and
// keep-alive hardening), the CORS policy from the cors section.  Routes
// here are the operational minimum: /healthz for probes and /metrics for
// Prometheus.  Feature routers mount on top in cmd/web.

package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/keel/internal/config"
	"github.com/yanizio/keel/internal/middleware"
)

// Router builds the chi router with the standard middleware chain.
func Router(settings *config.AppSettings) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Correlation)
	r.Use(middleware.AccessLog)
	r.Use(middleware.CORS(settings.CORS))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// New constructs an *http.Server bound and hardened per the resolved
// server section.
func New(settings *config.AppSettings, handler http.Handler) *http.Server {
	srv := settings.Server
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", srv.Host, srv.Port),
		Handler:      handler,
		ReadTimeout:  time.Duration(srv.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(srv.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(srv.IdleTimeout) * time.Second,
		// TLSConfig may be injected by callers (e.g., autocert).
	}
}
