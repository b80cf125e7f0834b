// Package service implements the certificate issuance and validation
// pipeline: one certificate per (user, form) pair, a public validation
// code on each document and an append-only log of validation attempts.
package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"avalia/internal/certificate/code"
	"avalia/internal/certificate/metrics"
	"avalia/internal/certificate/models"
	"avalia/internal/certificate/store"
	formstore "avalia/internal/form/store"
	"avalia/internal/platform/tracer"
	userstore "avalia/internal/user/store"
)

// Renderer produces the downloadable certificate document.
type Renderer interface {
	Render(cert *models.Certificate) ([]byte, error)
}

// FileStore persists rendered documents keyed by certificate id.
type FileStore interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Service coordinates certificate issuance, validation and downloads.
type Service struct {
	certs    store.Store
	logs     store.ValidationLogStore
	users    userstore.Store
	forms    formstore.Store
	renderer Renderer
	files    FileStore

	codeGen *code.Generator
	now     func() time.Time

	// issuing collapses concurrent issuance requests for the same
	// (user, form) pair into a single execution.
	issuing singleflight.Group

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets Prometheus collectors for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for issuance and validation spans.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithClock injects the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCodeGenerator injects the validation code generator. Used by tests.
func WithCodeGenerator(g *code.Generator) Option {
	return func(s *Service) {
		s.codeGen = g
	}
}

// New creates a certificate service.
func New(
	certs store.Store,
	logs store.ValidationLogStore,
	users userstore.Store,
	forms formstore.Store,
	renderer Renderer,
	files FileStore,
	opts ...Option,
) *Service {
	s := &Service{
		certs:    certs,
		logs:     logs,
		users:    users,
		forms:    forms,
		renderer: renderer,
		files:    files,
		codeGen:  code.NewGenerator(),
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
