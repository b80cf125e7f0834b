// Package store persists forms and their ordered questions.
//
// Error contract: Find methods return sentinel.ErrNotFound when the form
// does not exist. Questions are always returned ordered by their order field.
package store

import (
	"context"

	"github.com/google/uuid"

	"avalia/internal/form/models"
)

// Store defines the persistence interface for forms.
type Store interface {
	Save(ctx context.Context, form *models.Form) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Form, error)
}
