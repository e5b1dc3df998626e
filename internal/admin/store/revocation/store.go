// Package revocation tracks revoked staff token IDs. Logout writes here;
// the staff auth middleware checks here.
package revocation

import (
	"context"
	"time"
)

// TokenRevocationList records revoked jtis until their natural expiry.
type TokenRevocationList interface {
	// RevokeToken marks a jti revoked for the given TTL. An empty jti is a
	// no-op.
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether a jti has been revoked. Expired entries
	// read as not revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
