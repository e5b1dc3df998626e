package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"posintake/internal/application/models"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
)

// ChangeStatus moves an application to a new workflow status. Terminal
// statuses (approved, rejected) are sticky: leaving one requires the
// explicit reopen flag, which is recorded in the status note. The applicant
// is notified on every effective change; a delivery failure never fails the
// transition.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, req *models.ChangeStatusRequest) (*models.Application, error) {
	ctx, span := s.tracer.Start(ctx, "application.change_status")
	defer span.End()

	req.Normalize()
	if err := req.Validate(); err != nil {
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

	next := models.Status(req.Status)
	if app.Status == next {
		return nil, dErrors.New(dErrors.CodeConflict, "application is already in this status")
	}
	if app.Status.IsTerminal() && !req.Reopen {
		return nil, dErrors.New(dErrors.CodeConflict, "application is in a terminal status; set reopen to change it")
	}

	note := req.Note
	if app.Status.IsTerminal() && req.Reopen {
		note = "reopened from " + app.Status.String() + ": " + note
	}

	now := s.now()
	if err := s.store.UpdateStatus(ctx, id, next, note, now); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update status")
	}
	s.metrics.IncrementTransition(app.Status.String(), next.String())
	s.logger.InfoContext(ctx, "status changed",
		"reference_no", app.ReferenceNo,
		"from", app.Status.String(),
		"to", next.String(),
	)

	app.Status = next
	app.StatusNote = note
	app.UpdatedAt = now

	// awaiting_documents has its own notification flow via FlagDeficientDocuments.
	if next != models.StatusAwaitingDocuments {
		s.notifier.Dispatch(ctx, s.applicantMessages(app, notify.TemplateStatusUpdated, notify.TemplateData{
			StatusLabel: s.cat.StatusLabel(next.String()),
			Note:        req.Note,
		})...)
	}

	return app, nil
}
