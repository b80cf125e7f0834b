package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"avalia/internal/certificate/models"
	"avalia/internal/sentinel"
)

// In-memory stores keep development and tests lightweight. They intentionally
// favor clarity over performance and enforce the same uniqueness rules the
// database schema does.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.Certificate
	byPair map[string]uuid.UUID
	byCode map[string]uuid.UUID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[uuid.UUID]*models.Certificate),
		byPair: make(map[string]uuid.UUID),
		byCode: make(map[string]uuid.UUID),
	}
}

func pairKey(userID, formID uuid.UUID) string {
	return userID.String() + "|" + formID.String()
}

func (s *InMemoryStore) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(cert.UserID, cert.FormID)
	if _, exists := s.byPair[key]; exists {
		return fmt.Errorf("certificate for pair %s: %w", key, sentinel.ErrConflict)
	}
	if _, exists := s.byCode[cert.ValidationCode]; exists {
		return fmt.Errorf("validation code %s: %w", cert.ValidationCode, sentinel.ErrConflict)
	}

	stored := *cert
	s.byID[cert.ID] = &stored
	s.byPair[key] = cert.ID
	s.byCode[cert.ValidationCode] = cert.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cert, ok := s.byID[id]; ok {
		copied := *cert
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByUserAndForm(_ context.Context, userID, formID uuid.UUID) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byPair[pairKey(userID, formID)]; ok {
		copied := *s.byID[id]
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByValidationCode(_ context.Context, validationCode string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byCode[validationCode]; ok {
		copied := *s.byID[id]
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var certs []*models.Certificate
	for _, cert := range s.byID {
		if cert.UserID == userID {
			copied := *cert
			certs = append(certs, &copied)
		}
	}
	sort.Slice(certs, func(i, j int) bool {
		return certs[i].IssuedAt.After(certs[j].IssuedAt)
	})
	return certs, nil
}

func (s *InMemoryStore) MarkReady(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cert, ok := s.byID[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cert.Ready = true
	return nil
}

// InMemoryValidationLogStore holds validation attempts in insertion order.
type InMemoryValidationLogStore struct {
	mu      sync.RWMutex
	entries []*models.ValidationLog
}

func NewInMemoryValidationLogStore() *InMemoryValidationLogStore {
	return &InMemoryValidationLogStore{}
}

func (s *InMemoryValidationLogStore) Append(_ context.Context, entry *models.ValidationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	s.entries = append(s.entries, &copied)
	return nil
}

// ListByCertificate returns the attempts for one certificate, newest first.
func (s *InMemoryValidationLogStore) ListByCertificate(_ context.Context, certificateID uuid.UUID) ([]*models.ValidationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ValidationLog
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].CertificateID == certificateID {
			copied := *s.entries[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Len reports the total number of recorded attempts, including misses.
func (s *InMemoryValidationLogStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
