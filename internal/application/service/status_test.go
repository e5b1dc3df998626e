package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"posintake/internal/application/models"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
)

func (s *ServiceSuite) TestChangeStatusHappyPath() {
	s.allowNotifications()
	submitted := s.submitValid()

	app, err := s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{
		Status: "under_review",
		Note:   "assigned to reviewer",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, app.Status)
	s.Equal("assigned to reviewer", app.StatusNote)

	stored, err := s.store.FindByID(s.ctx, submitted.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, stored.Status)
}

func (s *ServiceSuite) TestChangeStatusUnknownApplication() {
	_, err := s.service.ChangeStatus(s.ctx, uuid.New(), &models.ChangeStatusRequest{Status: "approved"})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestChangeStatusSameStatusConflicts() {
	s.allowNotifications()
	submitted := s.submitValid()

	_, err := s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{Status: "received"})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestTerminalStatusIsSticky() {
	s.allowNotifications()
	submitted := s.submitValid()

	_, err := s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{Status: "rejected", Note: "incomplete docs"})
	s.Require().NoError(err)

	_, err = s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{Status: "under_review"})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	app, err := s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{
		Status: "under_review",
		Note:   "merchant appealed",
		Reopen: true,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, app.Status)
	s.Contains(app.StatusNote, "reopened from rejected")
}

func (s *ServiceSuite) TestNotificationFailureDoesNotFailTransition() {
	s.email.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("smtp down")).AnyTimes()
	s.sms.EXPECT().Send(gomock.Any(), gomock.Any()).Return(errors.New("sms down")).AnyTimes()

	submitted := s.submitValid()
	app, err := s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{Status: "approved"})
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, app.Status)
	s.disp.Wait()

	entries, err := s.logs.ListByApplication(s.ctx, submitted.ID)
	s.Require().NoError(err)
	s.NotEmpty(entries)
	for _, e := range entries {
		s.Equal(notify.OutcomeFailed, e.Outcome)
	}
}

func (s *ServiceSuite) TestConcurrentTransitionsSerialize() {
	s.allowNotifications()
	submitted := s.submitValid()

	const goroutines = 10
	var wg sync.WaitGroup
	var succeeded, conflicted atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.ChangeStatus(context.Background(), submitted.ID, &models.ChangeStatusRequest{Status: "under_review"})
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load(), "exactly one identical transition should win")
	s.Equal(int32(goroutines-1), conflicted.Load())
}
