package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"posintake/internal/application/completeness"
	"posintake/internal/application/models"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
)

// TokenPreview describes what a resubmission token allows. Backs the page
// the applicant sees before uploading.
type TokenPreview struct {
	ReferenceNo string
	Documents   []DocumentView
}

// DescribeToken verifies a resubmission token and lists the document types
// it covers.
func (s *Service) DescribeToken(ctx context.Context, tokenString string) (*TokenPreview, error) {
	scope, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.metrics.IncrementTokenRejection()
		return nil, err
	}
	app, err := s.store.FindByID(ctx, scope.ApplicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// The application vanished after issuance; the token is as good
			// as invalid.
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find application")
	}

	preview := &TokenPreview{ReferenceNo: app.ReferenceNo}
	for _, dt := range scope.DocumentTypes {
		preview.Documents = append(preview.Documents, DocumentView{
			Type:  string(dt),
			Label: s.cat.Label(dt),
		})
	}
	return preview, nil
}

// RejectedUpload is one file in a resubmission batch that was not applied,
// with the reason.
type RejectedUpload struct {
	DocumentType string
	Reason       string
}

// RedeemResult reports the outcome of a resubmission.
type RedeemResult struct {
	ReferenceNo string
	Status      models.Status
	// Accepted lists the document types replaced in this round.
	Accepted []catalog.DocumentType
	// Rejected lists files skipped, one entry per file.
	Rejected []RejectedUpload
	// Remaining lists types still flagged after this upload round.
	Remaining []catalog.DocumentType
}

// RedeemToken replaces flagged documents under the authority of a
// resubmission token. Files outside the token's scope, or failing the
// upload checks, are rejected individually; the rest of the batch is
// still applied. When the last deficiency clears, the application
// advances to under_review on its own and staff are notified.
func (s *Service) RedeemToken(ctx context.Context, tokenString string, files []models.Upload) (*RedeemResult, error) {
	ctx, span := s.tracer.Start(ctx, "application.redeem_token")
	defer span.End()
	start := s.now()

	scope, err := s.tokens.Verify(tokenString)
	if err != nil {
		s.metrics.IncrementTokenRejection()
		return nil, err
	}
	if len(files) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one file is required")
	}

	var accepted []models.Upload
	var rejected []RejectedUpload
	for _, f := range files {
		dt := catalog.DocumentType(f.DocumentType)
		if !scope.Authorizes(dt) {
			rejected = append(rejected, RejectedUpload{
				DocumentType: f.DocumentType,
				Reason:       fmt.Sprintf("document type %q is not covered by this token", f.DocumentType),
			})
			continue
		}
		if err := f.Check(); err != nil {
			rejected = append(rejected, RejectedUpload{DocumentType: f.DocumentType, Reason: err.Error()})
			continue
		}
		accepted = append(accepted, f)
	}

	unlock := s.locks.lock(scope.ApplicationID)
	defer unlock()

	app, err := s.store.FindByID(ctx, scope.ApplicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find application")
	}
	if app.Status.IsTerminal() {
		return nil, dErrors.New(dErrors.CodeConflict, "application is in a terminal status")
	}

	now := s.now()
	var labels []string
	for _, f := range accepted {
		locator, err := s.blobs.Store(ctx, f.Data, f.ContentType, f.Name)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store document")
		}
		dt := catalog.DocumentType(f.DocumentType)
		labels = append(labels, s.cat.Label(dt))
		doc := models.Document{
			ApplicationID: app.ID,
			Type:          dt,
			Label:         s.cat.Label(dt),
			Locator:       locator,
			OriginalName:  f.Name,
			Size:          int64(len(f.Data)),
			Mandatory:     s.cat.IsMandatory(app.Variant, dt),
			Status:        models.DocumentUploaded,
			UploadedAt:    now,
		}
		if err := s.store.UpsertDocument(ctx, doc); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "replace document")
		}
	}

	docs, err := s.store.ListDocuments(ctx, app.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}
	report := completeness.Evaluate(s.cat, app.Variant, docs)

	result := &RedeemResult{
		ReferenceNo: app.ReferenceNo,
		Status:      app.Status,
		Rejected:    rejected,
		Remaining:   report.Deficient,
	}
	for _, f := range accepted {
		result.Accepted = append(result.Accepted, catalog.DocumentType(f.DocumentType))
	}

	if app.Status == models.StatusAwaitingDocuments && len(report.Deficient) == 0 {
		if err := s.store.UpdateStatus(ctx, app.ID, models.StatusUnderReview, "documents resubmitted", now); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update status")
		}
		s.metrics.IncrementTransition(app.Status.String(), models.StatusUnderReview.String())
		result.Status = models.StatusUnderReview

		s.notifier.Dispatch(ctx, s.staffMessage(app, notify.TemplateDocumentsUploaded, notify.TemplateData{
			DocumentLabels: labels,
		})...)
	}

	span.SetAttributes(
		attribute.String("application.reference", app.ReferenceNo),
		attribute.Int("application.files", len(files)),
	)
	s.metrics.ObserveRedeemLatency(s.now().Sub(start))
	s.logger.InfoContext(ctx, "documents resubmitted",
		"reference_no", app.ReferenceNo,
		"accepted", len(accepted),
		"rejected", len(rejected),
		"remaining", len(report.Deficient),
	)
	return result, nil
}
