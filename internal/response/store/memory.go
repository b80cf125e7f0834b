package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"avalia/internal/response/models"
	"avalia/internal/sentinel"
)

// InMemoryStore enforces the same (user, form, question) uniqueness rule the
// database schema does.
type InMemoryStore struct {
	mu        sync.RWMutex
	responses []*models.Response
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// CreateAll stores all records or none: a duplicate (user, form, question)
// row fails the whole batch with sentinel.ErrConflict.
func (s *InMemoryStore) CreateAll(_ context.Context, responses []*models.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range responses {
		for _, existing := range s.responses {
			if existing.UserID == r.UserID && existing.FormID == r.FormID && existing.QuestionID == r.QuestionID {
				return fmt.Errorf("response for question %s already submitted: %w", r.QuestionID, sentinel.ErrConflict)
			}
		}
	}
	for _, r := range responses {
		copied := *r
		s.responses = append(s.responses, &copied)
	}
	return nil
}

func (s *InMemoryStore) HasSubmitted(_ context.Context, userID, formID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.responses {
		if r.UserID == userID && r.FormID == formID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListByUserAndForm(_ context.Context, userID, formID uuid.UUID) ([]*models.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Response
	for _, r := range s.responses {
		if r.UserID == userID && r.FormID == formID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}
