// Package models defines staff users and the request shapes of the admin
// surface.
package models

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	dErrors "posintake/pkg/domain-errors"
)

// Roles for staff users. Admins manage users; reviewers work applications.
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
)

func validRole(role string) bool {
	return role == RoleAdmin || role == RoleReviewer
}

// AdminUser is one staff account.
type AdminUser struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// LoginRequest is the staff credential exchange input.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Email == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email and password are required")
	}
	return nil
}

// CreateUserRequest adds a staff account.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (r *CreateUserRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.Role = strings.TrimSpace(strings.ToLower(r.Role))
	if r.Role == "" {
		r.Role = RoleReviewer
	}
}

func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	var violations []string
	if r.Email == "" {
		violations = append(violations, "email is required")
	} else if _, err := mail.ParseAddress(r.Email); err != nil {
		violations = append(violations, "email is not a valid address")
	}
	if r.Name == "" {
		violations = append(violations, "name is required")
	}
	if len(r.Password) < 10 {
		violations = append(violations, "password must be at least 10 characters")
	}
	if !validRole(r.Role) {
		violations = append(violations, "role must be admin or reviewer")
	}
	if len(violations) > 0 {
		return dErrors.NewValidation("user request is invalid", violations)
	}
	return nil
}

// NoteRequest attaches a review note to an application.
type NoteRequest struct {
	Text string `json:"text"`
}

func (r *NoteRequest) Normalize() {
	if r == nil {
		return
	}
	r.Text = strings.TrimSpace(r.Text)
}

func (r *NoteRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Text == "" {
		return dErrors.New(dErrors.CodeValidation, "text is required")
	}
	if len(r.Text) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "text must be 2000 characters or less")
	}
	return nil
}
