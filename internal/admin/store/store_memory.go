package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"posintake/internal/admin/models"
	"posintake/pkg/platform/sentinel"
)

// MemoryStore is an in-memory UserStore for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]models.AdminUser
	byEmail map[string]uuid.UUID
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]models.AdminUser),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[user.Email]; taken {
		return sentinel.ErrConflict
	}
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	user := s.users[id]
	return &user, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &user, nil
}

func (s *MemoryStore) ListUsers(_ context.Context) ([]models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.AdminUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, user.Email)
	delete(s.users, id)
	return nil
}
