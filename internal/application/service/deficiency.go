package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"posintake/internal/application/models"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
)

// DeficiencyResult carries the minted resubmission credential.
type DeficiencyResult struct {
	Token           string
	ResubmissionURL string
	ExpiresAt       time.Time
	DocumentTypes   []catalog.DocumentType
}

// FlagDeficientDocuments marks the named document types as needing
// replacement, forces the application into awaiting_documents and mints a
// resubmission token scoped to exactly those types. Flagging a type with no
// uploaded row is allowed; the row is created deficient so the applicant
// sees what to provide. Prior uploads keep their locators for staff
// reference.
func (s *Service) FlagDeficientDocuments(ctx context.Context, id uuid.UUID, req *models.FlagDeficienciesRequest) (*DeficiencyResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.flag_deficiencies")
	defer span.End()

	req.Normalize()
	if err := req.Validate(s.cat); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(id)
	defer unlock()

	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find application")
	}
	if app.Status.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "application is in a terminal status")
	}

	existing, err := s.store.ListDocuments(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	byType := make(map[catalog.DocumentType]models.Document, len(existing))
	for _, d := range existing {
		byType[d.Type] = d
	}

	now := s.now()
	types := make([]catalog.DocumentType, 0, len(req.DocumentTypes))
	labels := make([]string, 0, len(req.DocumentTypes))
	for _, raw := range req.DocumentTypes {
		dt := catalog.DocumentType(raw)
		types = append(types, dt)
		labels = append(labels, s.cat.Label(dt))

		doc, ok := byType[dt]
		if !ok {
			doc = models.Document{
				ApplicationID: id,
				Type:          dt,
				Label:         s.cat.Label(dt),
				Mandatory:     s.cat.IsMandatory(app.Variant, dt),
			}
		}
		doc.Status = models.DocumentDeficient
		if err := s.store.UpsertDocument(ctx, doc); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "flag document")
		}
	}

	if app.Status != models.StatusAwaitingDocuments {
		if err := s.store.UpdateStatus(ctx, id, models.StatusAwaitingDocuments, req.Note, now); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update status")
		}
		s.metrics.IncrementTransition(app.Status.String(), models.StatusAwaitingDocuments.String())
	}

	signed, err := s.tokens.Issue(id, types)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue resubmission token")
	}

	s.logger.InfoContext(ctx, "documents flagged deficient",
		"reference_no", app.ReferenceNo,
		"types", len(types),
	)

	url := s.resubmissionURL(signed)
	s.notifier.Dispatch(ctx, s.applicantMessages(app, notify.TemplateDocumentsRequested, notify.TemplateData{
		Note:            req.Note,
		DocumentLabels:  labels,
		ResubmissionURL: url,
	})...)

	return &DeficiencyResult{
		Token:           signed,
		ResubmissionURL: url,
		ExpiresAt:       now.Add(s.tokens.TTL()),
		DocumentTypes:   types,
	}, nil
}
