package service

import (
	"time"

	"posintake/internal/application/models"
	"posintake/internal/catalog"
	"posintake/internal/token"
	dErrors "posintake/pkg/domain-errors"
)

func upload(dt catalog.DocumentType, name string) models.Upload {
	return models.Upload{
		DocumentType: string(dt),
		Name:         name,
		ContentType:  "application/pdf",
		Data:         []byte("%PDF-1.4 replacement"),
	}
}

func (s *ServiceSuite) flagTaxPlate(id string) *DeficiencyResult {
	submitted := s.submitValid()
	result, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{id},
		Note:          "the scan is blurry",
	})
	s.Require().NoError(err)
	return result
}

func (s *ServiceSuite) TestRedeemReplacesDocumentAndAdvances() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	result, err := s.service.RedeemToken(s.ctx, flagged.Token, []models.Upload{
		upload("vergi_levhasi", "vergi-new.pdf"),
	})
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, result.Status, "clearing the last deficiency advances the application")
	s.Empty(result.Remaining)

	app, err := s.store.FindByReference(s.ctx, result.ReferenceNo)
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, app.Status)

	docs, err := s.store.ListDocuments(s.ctx, app.ID)
	s.Require().NoError(err)
	for _, d := range docs {
		if d.Type == "vergi_levhasi" {
			s.Equal(models.DocumentUploaded, d.Status)
			s.Equal("vergi-new.pdf", d.OriginalName)
		}
	}
	s.Len(docs, len(s.service.cat.Mandatory(catalog.VariantStandard)), "replacement must not duplicate the row")
}

func (s *ServiceSuite) TestRedeemPartialRoundStaysAwaiting() {
	s.allowNotifications()
	submitted := s.submitValid()
	flagged, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi", "kimlik_fotokopisi"},
	})
	s.Require().NoError(err)

	result, err := s.service.RedeemToken(s.ctx, flagged.Token, []models.Upload{
		upload("vergi_levhasi", "vergi-new.pdf"),
	})
	s.Require().NoError(err)
	s.Equal(models.StatusAwaitingDocuments, result.Status)
	s.Equal([]catalog.DocumentType{"kimlik_fotokopisi"}, result.Remaining)

	// The same token still covers the remaining type.
	result, err = s.service.RedeemToken(s.ctx, flagged.Token, []models.Upload{
		upload("kimlik_fotokopisi", "kimlik-new.pdf"),
	})
	s.Require().NoError(err)
	s.Equal(models.StatusUnderReview, result.Status)
	s.Empty(result.Remaining)
}

func (s *ServiceSuite) TestRedeemSkipsOutOfScopeFileAndAppliesTheRest() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	result, err := s.service.RedeemToken(s.ctx, flagged.Token, []models.Upload{
		upload("vergi_levhasi", "ok.pdf"),
		upload("kimlik_fotokopisi", "sneaky.pdf"),
	})
	s.Require().NoError(err, "an out-of-scope file must not fail the batch")
	s.Equal([]catalog.DocumentType{"vergi_levhasi"}, result.Accepted)
	s.Require().Len(result.Rejected, 1)
	s.Equal("kimlik_fotokopisi", result.Rejected[0].DocumentType)
	s.Contains(result.Rejected[0].Reason, "not covered by this token")
	s.Equal(models.StatusUnderReview, result.Status, "the in-scope file still clears the deficiency")

	scope, err := s.service.tokens.Verify(flagged.Token)
	s.Require().NoError(err)
	docs, err := s.store.ListDocuments(s.ctx, scope.ApplicationID)
	s.Require().NoError(err)
	for _, d := range docs {
		switch d.Type {
		case "vergi_levhasi":
			s.Equal(models.DocumentUploaded, d.Status)
			s.Equal("ok.pdf", d.OriginalName)
		case "kimlik_fotokopisi":
			s.NotEqual("sneaky.pdf", d.OriginalName, "rejected file must not land")
		}
	}
}

func (s *ServiceSuite) TestRedeemAllFilesRejectedChangesNothing() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	result, err := s.service.RedeemToken(s.ctx, flagged.Token, []models.Upload{
		upload("kimlik_fotokopisi", "sneaky.pdf"),
	})
	s.Require().NoError(err)
	s.Empty(result.Accepted)
	s.Require().Len(result.Rejected, 1)
	s.Equal(models.StatusAwaitingDocuments, result.Status)
	s.Equal([]catalog.DocumentType{"vergi_levhasi"}, result.Remaining)

	scope, err := s.service.tokens.Verify(flagged.Token)
	s.Require().NoError(err)
	docs, err := s.store.ListDocuments(s.ctx, scope.ApplicationID)
	s.Require().NoError(err)
	for _, d := range docs {
		if d.Type == "vergi_levhasi" {
			s.Equal(models.DocumentDeficient, d.Status, "nothing applied, the flagged row stays")
		}
	}
}

func (s *ServiceSuite) TestRedeemRejectsBadFileIndividually() {
	s.allowNotifications()
	submitted := s.submitValid()
	flagged, err := s.service.FlagDeficientDocuments(s.ctx, submitted.ID, &models.FlagDeficienciesRequest{
		DocumentTypes: []string{"vergi_levhasi", "kimlik_fotokopisi"},
	})
	s.Require().NoError(err)

	bad := upload("kimlik_fotokopisi", "kimlik.exe")
	result, err := s.service.RedeemToken(s.ctx, flagged.Token, []models.Upload{
		upload("vergi_levhasi", "vergi-new.pdf"),
		bad,
	})
	s.Require().NoError(err)
	s.Equal([]catalog.DocumentType{"vergi_levhasi"}, result.Accepted)
	s.Require().Len(result.Rejected, 1)
	s.Equal("kimlik_fotokopisi", result.Rejected[0].DocumentType)
	s.Equal(models.StatusAwaitingDocuments, result.Status)
	s.Equal([]catalog.DocumentType{"kimlik_fotokopisi"}, result.Remaining)
}

func (s *ServiceSuite) TestRedeemRejectsInvalidToken() {
	_, err := s.service.RedeemToken(s.ctx, "garbage", []models.Upload{upload("vergi_levhasi", "x.pdf")})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestRedeemRejectsExpiredToken() {
	s.allowNotifications()
	submitted := s.submitValid()

	expired := token.NewIssuer("test-signing-key", "posintake-test", time.Nanosecond)
	signed, err := expired.Issue(submitted.ID, []catalog.DocumentType{"vergi_levhasi"})
	s.Require().NoError(err)
	time.Sleep(5 * time.Millisecond)

	_, err = s.service.RedeemToken(s.ctx, signed, []models.Upload{upload("vergi_levhasi", "x.pdf")})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestRedeemEmptyBatch() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	_, err := s.service.RedeemToken(s.ctx, flagged.Token, nil)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestDescribeToken() {
	s.allowNotifications()
	flagged := s.flagTaxPlate("vergi_levhasi")

	preview, err := s.service.DescribeToken(s.ctx, flagged.Token)
	s.Require().NoError(err)
	s.Regexp(referencePattern, preview.ReferenceNo)
	s.Require().Len(preview.Documents, 1)
	s.Equal("Tax Plate", preview.Documents[0].Label)

	_, err = s.service.DescribeToken(s.ctx, "garbage")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
