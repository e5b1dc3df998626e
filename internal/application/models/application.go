package models

import (
	"time"

	"github.com/google/uuid"

	"posintake/internal/catalog"
	dErrors "posintake/pkg/domain-errors"
)

// Status is the workflow status of an application.
//
// Usage: construct via ParseStatus at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Status string

const (
	StatusReceived          Status = "received"
	StatusUnderReview       Status = "under_review"
	StatusEvaluation        Status = "evaluation"
	StatusAwaitingDocuments Status = "awaiting_documents"
	StatusApproved          Status = "approved"
	StatusRejected          Status = "rejected"
)

// validStatuses is the single source of truth for workflow statuses.
var validStatuses = map[Status]bool{
	StatusReceived:          true,
	StatusUnderReview:       true,
	StatusEvaluation:        true,
	StatusAwaitingDocuments: true,
	StatusApproved:          true,
	StatusRejected:          true,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "status cannot be empty")
	}
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool { return validStatuses[s] }

// IsTerminal reports whether the status has no outbound transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) String() string { return string(s) }

// DocumentStatus is the per-document state within an application.
type DocumentStatus string

const (
	// DocumentUploaded means a file is stored and not flagged.
	DocumentUploaded DocumentStatus = "uploaded"
	// DocumentDeficient means staff marked the document as needing
	// replacement. A prior upload, if any, stays visible for reference.
	DocumentDeficient DocumentStatus = "deficient"
)

// Application is one merchant's POS terminal request record.
//
// Invariants: ReferenceNo and AccessToken are unique across all
// applications; Status is always a valid enum value; UpdatedAt >= CreatedAt.
type Application struct {
	ID          uuid.UUID
	ReferenceNo string
	AccessToken string
	Variant     catalog.Variant
	Fields      map[string]string
	Status      Status
	StatusNote  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Field returns a company/applicant attribute by name, or "".
func (a *Application) Field(name string) string {
	return a.Fields[name]
}

// Email and Phone are the notification recipients captured at intake.
func (a *Application) Email() string { return a.Fields["email"] }
func (a *Application) Phone() string { return a.Fields["phone"] }

// CompanyName is used in staff-facing notification subjects.
func (a *Application) CompanyName() string { return a.Fields["company_name"] }

// Document is one supporting file tied to an application. At most one
// document exists per (application, type) pair; replacements update the
// existing row rather than duplicating it.
type Document struct {
	ApplicationID uuid.UUID
	Type          catalog.DocumentType
	Label         string
	Locator       string
	OriginalName  string
	Size          int64
	Mandatory     bool
	Status        DocumentStatus
	UploadedAt    time.Time
}

// Note is a free-text staff annotation on an application.
type Note struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	Author        string
	Text          string
	CreatedAt     time.Time
}
