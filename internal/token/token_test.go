package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"posintake/internal/catalog"
	dErrors "posintake/pkg/domain-errors"
)

type TokenSuite struct {
	suite.Suite
	issuer *Issuer
	appID  uuid.UUID
}

func TestTokenSuite(t *testing.T) {
	suite.Run(t, new(TokenSuite))
}

func (s *TokenSuite) SetupTest() {
	s.issuer = NewIssuer("test-signing-key", "posintake-test", DefaultTTL)
	s.appID = uuid.New()
}

func (s *TokenSuite) TestRoundTrip() {
	types := []catalog.DocumentType{"vergi_levhasi", "imza_sirkuleri"}
	signed, err := s.issuer.Issue(s.appID, types)
	s.Require().NoError(err)

	scope, err := s.issuer.Verify(signed)
	s.Require().NoError(err)
	s.Equal(s.appID, scope.ApplicationID)
	s.Equal(types, scope.DocumentTypes)
}

func (s *TokenSuite) TestScopeAuthorizesOnlyNamedTypes() {
	signed, err := s.issuer.Issue(s.appID, []catalog.DocumentType{"vergi_levhasi"})
	s.Require().NoError(err)

	scope, err := s.issuer.Verify(signed)
	s.Require().NoError(err)
	s.True(scope.Authorizes("vergi_levhasi"))
	s.False(scope.Authorizes("kimlik_fotokopisi"))
}

func (s *TokenSuite) TestExpiredToken() {
	s.issuer.now = func() time.Time { return time.Now().Add(-72 * time.Hour) }
	signed, err := s.issuer.Issue(s.appID, []catalog.DocumentType{"vergi_levhasi"})
	s.Require().NoError(err)

	s.issuer.now = time.Now
	_, err = s.issuer.Verify(signed)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestWrongSigningKey() {
	signed, err := s.issuer.Issue(s.appID, []catalog.DocumentType{"vergi_levhasi"})
	s.Require().NoError(err)

	other := NewIssuer("different-key", "posintake-test", DefaultTTL)
	_, err = other.Verify(signed)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestGarbageToken() {
	_, err := s.issuer.Verify("not.a.jwt")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestFailuresAreIndistinguishable() {
	expiredIssuer := NewIssuer("test-signing-key", "posintake-test", DefaultTTL)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-72 * time.Hour) }
	expired, err := expiredIssuer.Issue(s.appID, []catalog.DocumentType{"vergi_levhasi"})
	s.Require().NoError(err)

	forgedIssuer := NewIssuer("attacker-key", "posintake-test", DefaultTTL)
	forged, err := forgedIssuer.Issue(s.appID, []catalog.DocumentType{"vergi_levhasi"})
	s.Require().NoError(err)

	_, errExpired := s.issuer.Verify(expired)
	_, errForged := s.issuer.Verify(forged)
	_, errGarbage := s.issuer.Verify("garbage")

	s.Require().Error(errExpired)
	s.Equal(errExpired.Error(), errForged.Error())
	s.Equal(errExpired.Error(), errGarbage.Error())
}

func (s *TokenSuite) TestRejectsForeignTokenType() {
	// A token signed with the same key but a different type claim, e.g. a
	// staff session token, must not pass as a resubmission credential.
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ApplicationID: s.appID.String(),
		TokenType:     "session",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte("test-signing-key"))
	s.Require().NoError(err)

	_, err = s.issuer.Verify(signed)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *TokenSuite) TestEmptyScopeAuthorizesNothing() {
	signed, err := s.issuer.Issue(s.appID, nil)
	s.Require().NoError(err)

	scope, err := s.issuer.Verify(signed)
	s.Require().NoError(err)
	s.False(scope.Authorizes("vergi_levhasi"))
}
