// Package store persists staff accounts.
package store

import (
	"context"

	"github.com/google/uuid"

	"posintake/internal/admin/models"
)

// UserStore is the persistence port for staff accounts.
//
// CreateUser fails with sentinel.ErrConflict when the email is taken. Find
// methods return sentinel.ErrNotFound for unknown keys.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AdminUser, error)
	ListUsers(ctx context.Context) ([]models.AdminUser, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
