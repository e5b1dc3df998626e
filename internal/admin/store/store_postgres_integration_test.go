//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"posintake/internal/admin/models"
	"posintake/pkg/platform/sentinel"
	"posintake/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	pc := containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(pc.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	pc := containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(pc.TruncateTables(s.ctx, "admin_users"))
}

func (s *PostgresStoreSuite) newUser(email string) *models.AdminUser {
	return &models.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$2a$10$fakehash",
		Role:         models.RoleReviewer,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	user := s.newUser("reviewer@example.com")
	s.Require().NoError(s.store.CreateUser(s.ctx, user))

	found, err := s.store.FindByEmail(s.ctx, "reviewer@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)
	s.Equal(user.PasswordHash, found.PasswordHash)
	s.Equal(user.Role, found.Role)

	byID, err := s.store.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, byID.Email)
}

func (s *PostgresStoreSuite) TestUnknownKeys() {
	_, err := s.store.FindByEmail(s.ctx, "nobody@example.com")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.DeleteUser(s.ctx, uuid.New()), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestConcurrentEmailClaim() {
	// Two staff admins race to register the same address; the unique index
	// must let exactly one through.
	const racers = 10
	var wg sync.WaitGroup
	var created atomic.Int32
	var conflicts atomic.Int32

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateUser(s.ctx, s.newUser("raced@example.com"))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(racers-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestListAndDelete() {
	first := s.newUser("a@example.com")
	second := s.newUser("b@example.com")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	s.Require().NoError(s.store.CreateUser(s.ctx, first))
	s.Require().NoError(s.store.CreateUser(s.ctx, second))

	users, err := s.store.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Equal("a@example.com", users[0].Email)

	s.Require().NoError(s.store.DeleteUser(s.ctx, first.ID))
	users, err = s.store.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
}
