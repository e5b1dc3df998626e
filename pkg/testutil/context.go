package testutil

import (
	"net/http"

	"github.com/google/uuid"

	"posintake/pkg/requestcontext"
)

// WithStaff adds an authenticated staff identity to the request context.
// This simulates what the staff auth middleware would do.
func WithStaff(req *http.Request, email, role string) *http.Request {
	ctx := req.Context()
	ctx = requestcontext.WithStaffID(ctx, uuid.New())
	ctx = requestcontext.WithStaffEmail(ctx, email)
	ctx = requestcontext.WithStaffRole(ctx, role)
	return req.WithContext(ctx)
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
