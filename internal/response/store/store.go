// Package store persists submitted form responses.
package store

import (
	"context"

	"github.com/google/uuid"

	"avalia/internal/response/models"
)

// Store defines the persistence interface for submitted responses.
// CreateAll persists a full submission atomically: either every answer is
// stored or none is.
type Store interface {
	CreateAll(ctx context.Context, responses []*models.Response) error
	HasSubmitted(ctx context.Context, userID, formID uuid.UUID) (bool, error)
	ListByUserAndForm(ctx context.Context, userID, formID uuid.UUID) ([]*models.Response, error)
}
