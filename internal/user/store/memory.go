package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"avalia/internal/sentinel"
	"avalia/internal/user/models"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[uuid.UUID]*models.User)}
}

func (s *InMemoryStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
