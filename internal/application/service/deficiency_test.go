package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"posintake/internal/application/models"
	"posintake/internal/catalog"
	"posintake/internal/notify"
	dErrors "posintake/pkg/domain-errors"
)

func (s *ServiceSuite) TestFlagDeficienciesFlagsAndMintsToken() {
	s.allowNotifications()
	submitted := s.submitValid()

	result, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi"},
		Note:          "the scan is blurry",
	})
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.Contains(result.ResubmissionURL, "/api/pos/resubmission?token=")
	s.Equal([]catalog.DocumentType{"vergi_levhasi"}, result.DocumentTypes)

	app, err := s.store.FindByID(s.ctx, submitted.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDocuments, app.Status)

	docs, err := s.store.ListDocuments(s.ctx, submitted.ID)
	s.Require().NoError(err)
	for _, d := range docs {
		if d.Type == "vergi_levhasi" {
			s.Equal(models.DocumentDeficient, d.Status)
			s.NotEmpty(d.Locator, "prior upload stays visible for staff")
		} else {
			s.Equal(models.DocumentUploaded, d.Status)
		}
	}

	scope, err := s.service.tokens.Verify(result.Token)
	s.Require().NoError(err)
	s.Equal(submitted.ID, scope.ApplicationID)
	s.True(scope.Authorizes("vergi_levhasi"))
	s.False(scope.Authorizes("kimlik_fotokopisi"))
}

func (s *ServiceSuite) TestFlagCreatesRowForMissingOptionalDocument() {
	s.allowNotifications()
	submitted := s.submitValid()

	_, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"isyeri_fotografi"},
	})
	s.Require().NoError(err)

	docs, err := s.store.ListDocuments(s.ctx, submitted.ID)
	s.Require().NoError(err)
	var found bool
	for _, d := range docs {
		if d.Type == "isyeri_fotografi" {
			found = true
			s.Equal(models.DocumentDeficient, d.Status)
			s.Empty(d.Locator)
			s.False(d.Mandatory)
		}
	}
	s.True(found, "flagging an absent type creates its row")
}

func (s *ServiceSuite) TestFlagRejectsUnknownTypes() {
	s.allowNotifications()
	submitted := s.submitValid()

	_, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"bogus"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestFlagTerminalApplicationConflicts() {
	s.allowNotifications()
	submitted := s.submitValid()
	_, err := s.service.ChangeStatus(s.ctx, submitted.ID, &models.ChangeStatusRequest{Status: "approved"})
	s.Require().NoError(err)

	_, err = s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestFlagUnknownApplication() {
	_, err := s.service.FlagDeficientDocuments(s.ctx, uuid.New(), &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSecondRoundKeepsStatusAndReflags() {
	s.allowNotifications()
	submitted := s.submitValid()

	_, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi"},
	})
	s.Require().NoError(err)

	second, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"kimlik_fotokopisi"},
	})
	s.Require().NoError(err)
	s.disp.Wait()

	app, err := s.store.FindByID(s.ctx, submitted.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDocuments, app.Status)

	scope, err := s.service.tokens.Verify(second.Token)
	s.Require().NoError(err)
	s.True(scope.Authorizes("kimlik_fotokopisi"))
	s.False(scope.Authorizes("vergi_levhasi"), "each token covers only its own round")
}

func (s *ServiceSuite) TestFlagNotifiesApplicantWithResubmissionLink() {
	seen := make(chan notify.Message, 4)
	s.email.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, msg notify.Message) error {
			seen <- msg
			return nil
		}).AnyTimes()
	s.sms.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	submitted := s.submitValid()
	s.disp.Wait()
	drain(seen)

	_, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi"},
		Note:          "the scan is blurry",
	})
	s.Require().NoError(err)
	s.disp.Wait()

	msg := <-seen
	s.Equal(notify.TemplateDocumentsRequested, msg.Template)
	s.Contains(msg.Body, "Tax Plate")
	s.Contains(msg.Body, "the scan is blurry")
	s.Contains(msg.Body, "/api/pos/resubmission?token=")
}

func drain(ch chan notify.Message) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}
