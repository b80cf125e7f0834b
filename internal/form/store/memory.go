package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"avalia/internal/form/models"
	"avalia/internal/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	forms map[uuid.UUID]*models.Form
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{forms: make(map[uuid.UUID]*models.Form)}
}

func (s *InMemoryStore) Save(_ context.Context, form *models.Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := copyForm(form)
	s.forms[form.ID] = copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if form, ok := s.forms[id]; ok {
		return copyForm(form), nil
	}
	return nil, sentinel.ErrNotFound
}

func copyForm(form *models.Form) *models.Form {
	copied := *form
	copied.Questions = make([]models.Question, len(form.Questions))
	copy(copied.Questions, form.Questions)
	sort.SliceStable(copied.Questions, func(i, j int) bool {
		return copied.Questions[i].Order < copied.Questions[j].Order
	})
	return &copied
}
