// Package httptransport wires the HTTP routes and the middleware stack.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	certificatehandler "avalia/internal/certificate/handler"
	formhandler "avalia/internal/form/handler"
	"avalia/internal/platform/health"
	"avalia/internal/platform/metrics"
	"avalia/internal/platform/middleware"
	responsehandler "avalia/internal/response/handler"
)

// RouterConfig carries the handlers and cross-cutting settings the router
// needs. Business logic stays in the domain services.
type RouterConfig struct {
	Forms        *formhandler.Handler
	Responses    *responsehandler.Handler
	Certificates *certificatehandler.Handler
	Health       *health.Handler

	TokenValidator middleware.TokenValidator
	TrustedProxies []netip.Prefix
	RequestTimeout time.Duration
	Metrics        *metrics.HTTP
}

// NewRouter wires all public and authenticated endpoints with middleware.
func NewRouter(cfg RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.NewMetadata(cfg.TrustedProxies).Handler)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Public surface: forms, the validation endpoint, probes and metrics.
	cfg.Forms.Register(r)
	cfg.Certificates.RegisterPublic(r)
	cfg.Health.Register(r)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Authenticated surface.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.TokenValidator, logger))
		cfg.Responses.Register(r)
		cfg.Certificates.RegisterAuthenticated(r)
	})

	return r
}
