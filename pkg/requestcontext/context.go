// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services and handlers read
// them without importing net/http.
package requestcontext

import (
	"context"

	"github.com/google/uuid"
)

type (
	staffIDKey    struct{}
	staffEmailKey struct{}
	staffRoleKey  struct{}
	tokenIDKey    struct{}
	clientIPKey   struct{}
	userAgentKey  struct{}
	requestIDKey  struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyStaffID    = staffIDKey{}
	ContextKeyStaffEmail = staffEmailKey{}
	ContextKeyStaffRole  = staffRoleKey{}
	ContextKeyTokenID    = tokenIDKey{}
	ContextKeyClientIP   = clientIPKey{}
	ContextKeyUserAgent  = userAgentKey{}
	ContextKeyRequestID  = requestIDKey{}
)

// StaffID retrieves the authenticated staff user ID, or uuid.Nil.
func StaffID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(ContextKeyStaffID).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// WithStaffID injects the authenticated staff user ID.
func WithStaffID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ContextKeyStaffID, id)
}

// StaffEmail retrieves the authenticated staff email, or "".
func StaffEmail(ctx context.Context) string {
	if email, ok := ctx.Value(ContextKeyStaffEmail).(string); ok {
		return email
	}
	return ""
}

// WithStaffEmail injects the authenticated staff email.
func WithStaffEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ContextKeyStaffEmail, email)
}

// StaffRole retrieves the authenticated staff role, or "".
func StaffRole(ctx context.Context) string {
	if role, ok := ctx.Value(ContextKeyStaffRole).(string); ok {
		return role
	}
	return ""
}

// WithStaffRole injects the authenticated staff role.
func WithStaffRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ContextKeyStaffRole, role)
}

// TokenID retrieves the jti of the presented staff token. Logout uses it
// to revoke exactly that token.
func TokenID(ctx context.Context) string {
	if jti, ok := ctx.Value(ContextKeyTokenID).(string); ok {
		return jti
	}
	return ""
}

// WithTokenID injects the staff token jti.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, ContextKeyTokenID, jti)
}

// ClientIP retrieves the client IP address, or "".
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent header value, or "".
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent. Useful for service
// unit tests that don't run the middleware chain.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// RequestID retrieves the request ID, or "".
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
