// Package store persists user display records.
//
// Error contract: Find methods return sentinel.ErrNotFound when the user
// does not exist.
package store

import (
	"context"

	"github.com/google/uuid"

	"avalia/internal/user/models"
)

// Store defines the persistence interface for user data.
type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}
