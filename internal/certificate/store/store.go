// Package store persists certificate records and validation logs.
//
// Error contract: Find methods return sentinel.ErrNotFound (optionally
// wrapped) when the record does not exist; Create returns sentinel.ErrConflict
// when the (user, form) pair or the validation code is already taken. Services
// translate these exactly once.
package store

import (
	"context"

	"github.com/google/uuid"

	"avalia/internal/certificate/models"
)

// Store defines the persistence interface for certificate records.
type Store interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	FindByUserAndForm(ctx context.Context, userID, formID uuid.UUID) (*models.Certificate, error)
	FindByValidationCode(ctx context.Context, validationCode string) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Certificate, error)
	MarkReady(ctx context.Context, id uuid.UUID) error
}

// ValidationLogStore appends and lists validation attempts. Append failures
// are the caller's to swallow; the store itself reports them honestly.
type ValidationLogStore interface {
	Append(ctx context.Context, entry *models.ValidationLog) error
	ListByCertificate(ctx context.Context, certificateID uuid.UUID) ([]*models.ValidationLog, error)
}
