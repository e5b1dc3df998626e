package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"posintake/internal/admin/models"
	dErrors "posintake/pkg/domain-errors"
)

type TokenServiceSuite struct {
	suite.Suite
	service *TokenService
	user    *models.AdminUser
}

func TestTokenServiceSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

func (s *TokenServiceSuite) SetupTest() {
	s.service = NewTokenService("test-signing-key", "posintake-test", DefaultTTL)
	s.user = &models.AdminUser{
		ID:    uuid.New(),
		Email: "reviewer@example.com",
		Role:  models.RoleReviewer,
	}
}

func (s *TokenServiceSuite) TestRoundTrip() {
	token, err := s.service.Generate(s.user)
	s.Require().NoError(err)

	claims, err := s.service.Validate(token)
	s.Require().NoError(err)
	s.Equal(s.user.ID, claims.UserID)
	s.Equal(s.user.Email, claims.Email)
	s.Equal(models.RoleReviewer, claims.Role)
	s.NotEmpty(claims.JTI)
	s.WithinDuration(time.Now().Add(DefaultTTL), claims.ExpiresAt, time.Minute)
}

func (s *TokenServiceSuite) TestEachTokenGetsUniqueJTI() {
	first, err := s.service.Generate(s.user)
	s.Require().NoError(err)
	second, err := s.service.Generate(s.user)
	s.Require().NoError(err)

	firstClaims, err := s.service.Validate(first)
	s.Require().NoError(err)
	secondClaims, err := s.service.Validate(second)
	s.Require().NoError(err)
	s.NotEqual(firstClaims.JTI, secondClaims.JTI)
}

func (s *TokenServiceSuite) TestExpiredToken() {
	s.service.now = func() time.Time { return time.Now().Add(-9 * time.Hour) }
	token, err := s.service.Generate(s.user)
	s.Require().NoError(err)

	s.service.now = time.Now
	_, err = s.service.Validate(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Contains(err.Error(), "expired")
}

func (s *TokenServiceSuite) TestWrongKey() {
	other := NewTokenService("different-key", "posintake-test", DefaultTTL)
	token, err := other.Generate(s.user)
	s.Require().NoError(err)

	_, err = s.service.Validate(token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenServiceSuite) TestGarbageToken() {
	_, err := s.service.Validate("not-a-jwt")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenServiceSuite) TestZeroTTLFallsBackToDefault() {
	svc := NewTokenService("key", "posintake-test", 0)
	s.Equal(DefaultTTL, svc.TTL())
}
