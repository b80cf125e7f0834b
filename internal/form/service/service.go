// Package service exposes form retrieval and visibility resolution.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"avalia/internal/form/models"
	"avalia/internal/form/store"
	"avalia/internal/form/visibility"
	"avalia/internal/sentinel"
	dErrors "avalia/pkg/domain-errors"
)

// Service loads forms and resolves question visibility against answers.
type Service struct {
	forms  store.Store
	logger *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a form service.
func New(forms store.Store, opts ...Option) *Service {
	s := &Service{
		forms:  forms,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a form with its questions ordered.
func (s *Service) Get(ctx context.Context, formID uuid.UUID) (*models.Form, error) {
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "form not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load form")
	}
	return form, nil
}

// ResolveVisibility computes the visible questions of a form for the given
// in-progress answers.
func (s *Service) ResolveVisibility(ctx context.Context, formID uuid.UUID, responses models.ResponseMap) (*visibility.Resolution, error) {
	form, err := s.Get(ctx, formID)
	if err != nil {
		return nil, err
	}
	return visibility.Resolve(form.Questions, responses), nil
}
