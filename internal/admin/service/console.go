package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"posintake/internal/admin/models"
	appmodels "posintake/internal/application/models"
	appservice "posintake/internal/application/service"
	appstore "posintake/internal/application/store"
	"posintake/internal/blob"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
	"posintake/pkg/requestcontext"
)

// Workflow is the slice of the intake workflow the review console drives.
type Workflow interface {
	ChangeStatus(ctx context.Context, id uuid.UUID, req *appmodels.ChangeStatusRequest) (*appmodels.Application, error)
	FlagDeficientDocuments(ctx context.Context, id uuid.UUID, req *appmodels.FlagDeficienciesRequest) (*appservice.DeficiencyResult, error)
}

// ConsoleDeps bundles the review console dependencies.
type ConsoleDeps struct {
	Apps     appstore.Store
	Blobs    blob.Store
	NotifLog notify.LogStore
	Workflow Workflow
	Catalog  *catalog.Catalog
}

// ListFilter narrows the staff application listing.
type ListFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

func (f ListFilter) toStore() (appstore.Filter, error) {
	sf := appstore.Filter{Search: f.Search, Limit: f.Limit, Offset: f.Offset}
	if f.Status != "" {
		status, err := appmodels.ParseStatus(f.Status)
		if err != nil {
			return appstore.Filter{}, err
		}
		sf.Status = status
	}
	return sf, nil
}

// ListApplications returns the staff listing with document counts.
func (s *Service) ListApplications(ctx context.Context, f ListFilter) ([]appstore.Summary, error) {
	sf, err := f.toStore()
	if err != nil {
		return nil, err
	}
	summaries, err := s.console.Apps.List(ctx, sf)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list applications")
	}
	return summaries, nil
}

// ApplicationDetail is the full review view of one application.
type ApplicationDetail struct {
	Application   appmodels.Application
	Documents     []appmodels.Document
	Notes         []appmodels.Note
	Notifications []notify.LogEntry
}

func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*ApplicationDetail, error) {
	app, err := s.console.Apps.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load application")
	}

	docs, err := s.console.Apps.ListDocuments(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load documents")
	}
	notes, err := s.console.Apps.ListNotes(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load notes")
	}
	deliveries, err := s.console.NotifLog.ListByApplication(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load notification log")
	}

	return &ApplicationDetail{
		Application:   *app,
		Documents:     docs,
		Notes:         notes,
		Notifications: deliveries,
	}, nil
}

// ChangeStatus delegates the transition to the workflow service so every
// rule (terminal stickiness, notifications) applies regardless of caller.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, req *appmodels.ChangeStatusRequest) (*appmodels.Application, error) {
	return s.console.Workflow.ChangeStatus(ctx, id, req)
}

func (s *Service) FlagDeficientDocuments(ctx context.Context, id uuid.UUID, req *appmodels.FlagDeficienciesRequest) (*appservice.DeficiencyResult, error) {
	return s.console.Workflow.FlagDeficientDocuments(ctx, id, req)
}

// AddNote attaches a review note authored by the logged-in staff member.
func (s *Service) AddNote(ctx context.Context, id uuid.UUID, req *models.NoteRequest) (*appmodels.Note, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.console.Apps.FindByID(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load application")
	}

	note := appmodels.Note{
		ID:            uuid.New(),
		ApplicationID: id,
		Author:        requestcontext.StaffEmail(ctx),
		Text:          req.Text,
		CreatedAt:     s.now(),
	}
	if err := s.console.Apps.AddNote(ctx, note); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not add note")
	}
	return &note, nil
}

// DocumentFile is a fetched document ready to stream to the reviewer.
type DocumentFile struct {
	Name string
	Data []byte
}

// DownloadDocument fetches the stored file for one document type.
func (s *Service) DownloadDocument(ctx context.Context, id uuid.UUID, docType string) (*DocumentFile, error) {
	dt := catalog.DocumentType(docType)
	if !s.console.Catalog.Known(dt) {
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}
	docs, err := s.console.Apps.ListDocuments(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not load documents")
	}
	for _, d := range docs {
		if d.Type != dt {
			continue
		}
		if d.Locator == "" {
			return nil, dErrors.New(dErrors.CodeNotFound, "document has no stored file")
		}
		data, err := s.console.Blobs.Fetch(ctx, d.Locator)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not fetch document")
		}
		name := d.OriginalName
		if name == "" {
			name = string(d.Type)
		}
		return &DocumentFile{Name: name, Data: data}, nil
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
}

// Stats summarizes the pipeline for the dashboard.
type Stats struct {
	Total    int
	ByStatus map[string]int
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.console.Apps.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not count applications")
	}
	stats := &Stats{ByStatus: make(map[string]int, len(counts))}
	for status, n := range counts {
		stats.ByStatus[status.String()] = n
		stats.Total += n
	}
	return stats, nil
}

var exportHeader = []string{
	"reference_no", "company_name", "contact_name", "email", "phone",
	"status", "variant", "documents", "deficient", "created_at", "updated_at",
}

// ExportCSV streams the filtered listing as CSV. encoding/csv handles the
// quoting; there is nothing here a CSV library would add.
func (s *Service) ExportCSV(ctx context.Context, f ListFilter, w io.Writer) error {
	sf, err := f.toStore()
	if err != nil {
		return err
	}
	// Export ignores pagination; staff expect the whole filtered set.
	sf.Limit = 100000
	sf.Offset = 0

	summaries, err := s.console.Apps.List(ctx, sf)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not list applications")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, sum := range summaries {
		app := sum.Application
		row := []string{
			app.ReferenceNo,
			app.CompanyName(),
			app.Field("contact_name"),
			app.Email(),
			app.Phone(),
			app.Status.String(),
			string(app.Variant),
			strconv.Itoa(sum.DocumentCount),
			strconv.Itoa(sum.DeficientCount),
			app.CreatedAt.Format(time.RFC3339),
			app.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
