package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"posintake/internal/application/models"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
)

// referenceAttempts bounds retries when a generated reference number is
// already taken.
const referenceAttempts = 5

// SubmitResult is returned to the applicant after a successful intake.
type SubmitResult struct {
	ID          uuid.UUID
	ReferenceNo string
	AccessToken string
	StatusURL   string
	Status      models.Status
}

// Submit validates a new application, stores its documents and creates the
// record in status received. Validation reports every problem at once; a
// rejected submission stores nothing.
func (s *Service) Submit(ctx context.Context, req *models.SubmitRequest) (*SubmitResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.submit")
	defer span.End()

	req.Normalize()
	if err := req.Validate(s.cat); err != nil {
		return nil, err
	}
	variant := catalog.Variant(req.Variant)

	// Blob writes happen before the row exists. An orphaned blob from a
	// failed create is cheaper than a row pointing at nothing.
	now := s.now()
	docs := make([]models.Document, 0, len(req.Files))
	for _, f := range req.Files {
		locator, err := s.blobs.Store(ctx, f.Data, f.ContentType, f.Name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store document")
		}
		dt := catalog.DocumentType(f.DocumentType)
		docs = append(docs, models.Document{
			Type:         dt,
			Label:        s.cat.Label(dt),
			Locator:      locator,
			OriginalName: f.Name,
			Size:         int64(len(f.Data)),
			Mandatory:    s.cat.IsMandatory(variant, dt),
			Status:       models.DocumentUploaded,
			UploadedAt:   now,
		})
	}

	app := &models.Application{
		ID:          uuid.New(),
		AccessToken: uuid.NewString(),
		Variant:     variant,
		Fields:      req.Fields,
		Status:      models.StatusReceived,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	for attempt := 0; attempt < referenceAttempts; attempt++ {
		app.ReferenceNo = s.referenceNo()
		for i := range docs {
			docs[i].ApplicationID = app.ID
		}
		err = s.store.CreateApplication(ctx, app, docs)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create application")
		}
		app.AccessToken = uuid.NewString()
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "reference number space exhausted")
	}

	span.SetAttributes(
		attribute.String("application.reference", app.ReferenceNo),
		attribute.Int("application.documents", len(docs)),
	)
	s.metrics.IncrementSubmission(string(variant))
	s.logger.InfoContext(ctx, "application submitted",
		"reference_no", app.ReferenceNo,
		"variant", string(variant),
		"documents", len(docs),
	)

	msgs := s.applicantMessages(app, notify.TemplateApplicationReceived, notify.TemplateData{})
	msgs = append(msgs, s.staffMessage(app, notify.TemplateApplicationReceivedStaff, notify.TemplateData{})...)
	s.notifier.Dispatch(ctx, msgs...)

	return &SubmitResult{
		ID:          app.ID,
		ReferenceNo: app.ReferenceNo,
		AccessToken: app.AccessToken,
		StatusURL:   s.statusURL(app.AccessToken),
		Status:      app.Status,
	}, nil
}
