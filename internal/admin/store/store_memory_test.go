package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"posintake/internal/admin/models"
	"posintake/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newUser(email string) *models.AdminUser {
	return &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$fakehash",
		Role:         models.RoleReviewer,
		CreatedAt:    time.Now(),
	}
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	user := s.newUser("reviewer@example.com")
	s.Require().NoError(s.store.CreateUser(s.ctx, user))

	byEmail, err := s.store.FindByEmail(s.ctx, "reviewer@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)

	byID, err := s.store.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, byID.Email)
}

func (s *MemoryStoreSuite) TestDuplicateEmailConflicts() {
	s.Require().NoError(s.store.CreateUser(s.ctx, s.newUser("dup@example.com")))
	err := s.store.CreateUser(s.ctx, s.newUser("dup@example.com"))
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *MemoryStoreSuite) TestUnknownKeys() {
	_, err := s.store.FindByEmail(s.ctx, "nobody@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.DeleteUser(s.ctx, uuid.New()), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDeleteFreesEmail() {
	user := s.newUser("gone@example.com")
	s.Require().NoError(s.store.CreateUser(s.ctx, user))
	s.Require().NoError(s.store.DeleteUser(s.ctx, user.ID))

	_, err := s.store.FindByEmail(s.ctx, "gone@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// The email is reusable after deletion.
	s.Require().NoError(s.store.CreateUser(s.ctx, s.newUser("gone@example.com")))
}

func (s *MemoryStoreSuite) TestListOrdersByCreation() {
	first := s.newUser("a@example.com")
	first.CreatedAt = time.Now().Add(-2 * time.Hour)
	second := s.newUser("b@example.com")
	second.CreatedAt = time.Now().Add(-1 * time.Hour)
	s.Require().NoError(s.store.CreateUser(s.ctx, second))
	s.Require().NoError(s.store.CreateUser(s.ctx, first))

	users, err := s.store.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("a@example.com", users[0].Email)
	s.Equal("b@example.com", users[1].Email)
}
