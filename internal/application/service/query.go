package service

import (
	"context"
	"errors"
	"strings"

	"posintake/internal/application/completeness"
	"posintake/internal/application/models"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
)

// StatusView is the applicant-facing read model.
type StatusView struct {
	ReferenceNo string
	Status      models.Status
	StatusLabel string
	StatusNote  string
	Documents   []DocumentView
	// ResubmissionURL is set while flagged deficiencies remain. The token
	// in it is minted fresh on every read, so the link in an old email
	// going stale never strands the applicant.
	ResubmissionURL string
	UpdatedAt       string
}

// DocumentView is one document row as shown to the applicant.
type DocumentView struct {
	Type     string
	Label    string
	Status   string
	Uploaded bool
}

// StatusByAccessToken returns the applicant view for an access token.
// Unknown tokens are a plain not found; the token is the only credential.
func (s *Service) StatusByAccessToken(ctx context.Context, accessToken string) (*StatusView, error) {
	app, err := s.store.FindByAccessToken(ctx, strings.TrimSpace(accessToken))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find application")
	}

	docs, err := s.store.ListDocuments(ctx, app.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list documents")
	}

	view := &StatusView{
		ReferenceNo: app.ReferenceNo,
		Status:      app.Status,
		StatusLabel: s.cat.StatusLabel(app.Status.String()),
		StatusNote:  app.StatusNote,
		UpdatedAt:   app.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	for _, d := range docs {
		view.Documents = append(view.Documents, DocumentView{
			Type:     string(d.Type),
			Label:    d.Label,
			Status:   string(d.Status),
			Uploaded: d.Locator != "",
		})
	}

	// The link follows the flagged documents, not the status: staff moving
	// a still-deficient application to another stage must not strand the
	// applicant.
	report := completeness.Evaluate(s.cat, app.Variant, docs)
	if len(report.Deficient) > 0 {
		signed, err := s.tokens.Issue(app.ID, report.Deficient)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issue resubmission token")
		}
		view.ResubmissionURL = s.resubmissionURL(signed)
	}
	return view, nil
}

// LookupResult recovers the status link for an applicant who lost it.
type LookupResult struct {
	ReferenceNo string
	StatusURL   string
}

// Lookup matches a reference number against the legal identifier captured
// at intake (tax number, or national id for sole proprietors). A wrong
// identifier and an unknown reference are deliberately the same error.
func (s *Service) Lookup(ctx context.Context, req *models.LookupRequest) (*LookupResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	app, err := s.store.FindByReference(ctx, req.ReferenceNo)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find application")
	}
	if app.Field("tax_no") != req.TaxNo && app.Field("national_id") != req.TaxNo {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}

	return &LookupResult{
		ReferenceNo: app.ReferenceNo,
		StatusURL:   s.statusURL(app.AccessToken),
	}, nil
}
