// Package store persists applications, their document rows and review
// notes. Stores are pure I/O; workflow rules live in the service layer.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"posintake/internal/application/models"
)

// Filter narrows staff listings.
type Filter struct {
	Status models.Status
	// Search matches the reference number or company name, case-insensitive
	// substring.
	Search string
	Limit  int
	Offset int
}

// Summary is one row of a staff listing: the application plus document
// counts, so the list view needs no per-row queries.
type Summary struct {
	Application    models.Application
	DocumentCount  int
	DeficientCount int
}

// Store is the persistence port for the intake workflow.
//
// CreateApplication fails with sentinel.ErrConflict when the reference
// number or access token is already taken. Find methods return
// sentinel.ErrNotFound for unknown keys.
type Store interface {
	CreateApplication(ctx context.Context, app *models.Application, docs []models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	FindByAccessToken(ctx context.Context, accessToken string) (*models.Application, error)
	FindByReference(ctx context.Context, referenceNo string) (*models.Application, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, note string, updatedAt time.Time) error

	// UpsertDocument replaces the row for (application, type), creating it
	// when absent.
	UpsertDocument(ctx context.Context, doc models.Document) error
	ListDocuments(ctx context.Context, applicationID uuid.UUID) ([]models.Document, error)

	List(ctx context.Context, f Filter) ([]Summary, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)

	AddNote(ctx context.Context, note models.Note) error
	ListNotes(ctx context.Context, applicationID uuid.UUID) ([]models.Note, error)
}
