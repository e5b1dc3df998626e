package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"posintake/internal/admin/auth"
	"posintake/internal/admin/store/revocation"
	"posintake/pkg/requestcontext"
)

// StaffValidator validates a staff session token.
type StaffValidator interface {
	Validate(tokenString string) (*auth.StaffClaims, error)
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

// RequireStaff authenticates admin requests. The token must parse, carry a
// valid signature and not be on the revocation list; the staff identity is
// then injected into the request context.
func RequireStaff(validator StaffValidator, trl revocation.TokenRevocationList, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			revoked, err := trl.IsRevoked(ctx, claims.JTI)
			if err != nil {
				// Fail closed. A revocation store outage must not let
				// logged-out tokens back in.
				logger.ErrorContext(ctx, "revocation check failed",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}
			if revoked {
				logger.WarnContext(ctx, "unauthorized access - revoked token",
					"jti", claims.JTI,
					"request_id", requestID,
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithStaffID(ctx, claims.UserID)
			ctx = requestcontext.WithStaffEmail(ctx, claims.Email)
			ctx = requestcontext.WithStaffRole(ctx, claims.Role)
			ctx = requestcontext.WithTokenID(ctx, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a subtree to one staff role. It assumes RequireStaff
// already ran.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if requestcontext.StaffRole(ctx) != role {
				logger.WarnContext(ctx, "forbidden access",
					"required_role", role,
					"role", requestcontext.StaffRole(ctx),
					"request_id", GetRequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
