package service

import (
	"posintake/internal/application/models"
	dErrors "posintake/pkg/domain-errors"
)

func (s *ServiceSuite) TestStatusByAccessToken() {
	s.allowNotifications()
	submitted := s.submitValid()

	view, err := s.service.StatusByAccessToken(s.ctx, submitted.AccessToken)
	s.Require().NoError(err)
	s.Equal(submitted.ReferenceNo, view.ReferenceNo)
	s.Equal(models.StatusReceived, view.Status)
	s.Equal("Application Received", view.StatusLabel)
	s.NotEmpty(view.Documents)
	s.Empty(view.ResubmissionURL)
}

func (s *ServiceSuite) TestStatusUnknownToken() {
	_, err := s.service.StatusByAccessToken(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestStatusMintsFreshTokenWhileAwaiting() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	scope, err := s.service.tokens.Verify(flagged.Token)
	s.Require().NoError(err)
	app, err := s.store.FindByID(s.ctx, scope.ApplicationID)
	s.Require().NoError(err)

	view, err := s.service.StatusByAccessToken(s.ctx, app.AccessToken)
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDocuments, view.Status)
	s.Contains(view.ResubmissionURL, "/api/pos/resubmission?token=")

	// The embedded token is live and carries the same scope.
	fresh := view.ResubmissionURL[len(testBaseURL+"/api/pos/resubmission?token="):]
	freshScope, err := s.service.tokens.Verify(fresh)
	s.Require().NoError(err)
	s.Equal(scope.ApplicationID, freshScope.ApplicationID)
	s.True(freshScope.Authorizes("vergi_levhasi"))
}

func (s *ServiceSuite) TestStatusKeepsMintingWhileDeficientAfterStatusChange() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	scope, err := s.service.tokens.Verify(flagged.Token)
	s.Require().NoError(err)
	app, err := s.store.FindByID(s.ctx, scope.ApplicationID)
	s.Require().NoError(err)

	// Staff move the application on without waiting for the replacement.
	_, err = s.service.ChangeStatus(s.ctx, app.ID, &models.ChangeStatusRequest{
		Status: "evaluation",
	})
	s.Require().NoError(err)

	view, err := s.service.StatusByAccessToken(s.ctx, app.AccessToken)
	s.Require().NoError(err)
	s.Equal(models.StatusEvaluation, view.Status)
	s.Contains(view.ResubmissionURL, "/api/pos/resubmission?token=",
		"a flagged document keeps the resubmission link alive regardless of status")

	fresh := view.ResubmissionURL[len(testBaseURL+"/api/pos/resubmission?token="):]
	freshScope, err := s.service.tokens.Verify(fresh)
	s.Require().NoError(err)
	s.True(freshScope.Authorizes("vergi_levhasi"))
}

func (s *ServiceSuite) TestLookupByTaxNumber() {
	s.allowNotifications()
	submitted := s.submitValid()

	result, err := s.service.Lookup(s.ctx, &models.LookupRequest{
		ReferenceNo: submitted.ReferenceNo,
		TaxNo:       "1234567890",
	})
	s.Require().NoError(err)
	s.Equal(submitted.ReferenceNo, result.ReferenceNo)
	s.Equal(submitted.StatusURL, result.StatusURL)
}

func (s *ServiceSuite) TestLookupWrongIdentifierLooksLikeUnknownReference() {
	s.allowNotifications()
	submitted := s.submitValid()

	_, errWrong := s.service.Lookup(s.ctx, &models.LookupRequest{
		ReferenceNo: submitted.ReferenceNo,
		TaxNo:       "9999999999",
	})
	_, errUnknown := s.service.Lookup(s.ctx, &models.LookupRequest{
		ReferenceNo: "POS-200001-00001",
		TaxNo:       "1234567890",
	})
	s.Require().Error(errWrong)
	s.Require().Error(errUnknown)
	s.Equal(errUnknown.Error(), errWrong.Error(), "responses must not reveal which part was wrong")
}

func (s *ServiceSuite) TestLookupValidatesInput() {
	_, err := s.service.Lookup(s.ctx, &models.LookupRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}
