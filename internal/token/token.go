// Package token implements the resubmission token protocol: signed,
// stateless credentials that let an applicant replace exactly the document
// types staff flagged, without full re-authentication.
//
// This is distinct from the application access token (a random secret
// persisted on the application granting read-only status lookup) and from
// staff bearer tokens (internal/admin). The typ claim keeps the signing
// namespaces apart even though all three share HS256.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"posintake/internal/catalog"
	dErrors "posintake/pkg/domain-errors"
)

const (
	// DefaultTTL is the resubmission window.
	DefaultTTL = 48 * time.Hour

	tokenType = "resubmission"
)

// Claims is the JWT payload of a resubmission token.
type Claims struct {
	ApplicationID string   `json:"application_id"`
	DocumentTypes []string `json:"document_types"`
	TokenType     string   `json:"token_type"`
	jwt.RegisteredClaims
}

// Scope is the decoded authorization a verified token carries.
type Scope struct {
	ApplicationID uuid.UUID
	DocumentTypes []catalog.DocumentType
}

// Authorizes reports whether the scope covers the given document type.
func (s *Scope) Authorizes(dt catalog.DocumentType) bool {
	for _, t := range s.DocumentTypes {
		if t == dt {
			return true
		}
	}
	return false
}

// Issuer mints and verifies resubmission tokens.
type Issuer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

func NewIssuer(signingKey, issuer string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// TTL reports the configured token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue mints a token scoped to exactly the named document types. A token
// carries no capability beyond that set, even for the owning application.
func (i *Issuer) Issue(applicationID uuid.UUID, documentTypes []catalog.DocumentType) (string, error) {
	types := make([]string, len(documentTypes))
	for n, dt := range documentTypes {
		types[n] = string(dt)
	}
	now := i.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ApplicationID: applicationID.String(),
		DocumentTypes: types,
		TokenType:     tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    i.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := tok.SignedString(i.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// errVerification is the single failure all verification paths collapse to,
// so expired, malformed, and forged tokens are indistinguishable from
// unknown ones.
func errVerification() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
}

// Verify decodes the token and returns its scope. Every failure mode maps
// to the same error.
func (i *Issuer) Verify(tokenString string) (*Scope, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return nil, errVerification()
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.TokenType != tokenType {
		return nil, errVerification()
	}
	appID, err := uuid.Parse(claims.ApplicationID)
	if err != nil {
		return nil, errVerification()
	}

	types := make([]catalog.DocumentType, len(claims.DocumentTypes))
	for n, t := range claims.DocumentTypes {
		types[n] = catalog.DocumentType(t)
	}
	return &Scope{ApplicationID: appID, DocumentTypes: types}, nil
}
