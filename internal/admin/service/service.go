// Package service implements the staff-facing admin operations: login,
// account management and the review console over applications.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mssola/useragent"

	"posintake/internal/admin/auth"
	"posintake/internal/admin/lockout"
	"posintake/internal/admin/models"
	"posintake/internal/admin/secrets"
	"posintake/internal/admin/store"
	"posintake/internal/admin/store/revocation"
	dErrors "posintake/pkg/domain-errors"
	"posintake/pkg/platform/sentinel"
	"posintake/pkg/requestcontext"
)

// Service implements the admin surface operations.
type Service struct {
	users   store.UserStore
	tokens  *auth.TokenService
	trl     revocation.TokenRevocationList
	console ConsoleDeps
	lockout *lockout.Service
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithLockout enables login throttling.
func WithLockout(l *lockout.Service) Option {
	return func(s *Service) { s.lockout = l }
}

// WithClock overrides time.Now. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the admin service. ConsoleDeps covers the review
// operations over applications.
func New(users store.UserStore, tokens *auth.TokenService, trl revocation.TokenRevocationList, console ConsoleDeps, opts ...Option) *Service {
	s := &Service{
		users:   users,
		tokens:  tokens,
		trl:     trl,
		console: console,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoginResult carries the session token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.AdminUser
}

func errInvalidCredentials() error {
	return dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
}

// Login exchanges credentials for a session token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ip := requestcontext.ClientIP(ctx)
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, req.Email, ip); err != nil {
			s.logger.Warn("login attempt while locked out", "email", req.Email, "client_ip", ip)
			return nil, err
		}
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.recordLoginFailure(ctx, req.Email, ip)
			return nil, errInvalidCredentials()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not look up user")
	}
	if err := secrets.Verify(req.Password, user.PasswordHash); err != nil {
		s.recordLoginFailure(ctx, req.Email, ip)
		return nil, errInvalidCredentials()
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not issue session token")
	}
	if s.lockout != nil {
		s.lockout.Clear(ctx, req.Email, ip)
	}
	s.logLoginAttempt(ctx, req.Email, true)

	return &LoginResult{
		Token:     token,
		ExpiresAt: s.now().Add(s.tokens.TTL()),
		User:      *user,
	}, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, email, ip string) {
	if s.lockout != nil {
		s.lockout.RecordFailure(ctx, email, ip)
	}
	s.logLoginAttempt(ctx, email, false)
}

// logLoginAttempt records the attempt with client metadata from the request
// context. The User-Agent is parsed so the log carries browser and OS
// instead of a raw header string.
func (s *Service) logLoginAttempt(ctx context.Context, email string, success bool) {
	ua := useragent.New(requestcontext.UserAgent(ctx))
	browser, version := ua.Browser()
	s.logger.Info("staff login attempt",
		"email", email,
		"success", success,
		"client_ip", requestcontext.ClientIP(ctx),
		"browser", browser,
		"browser_version", version,
		"os", ua.OS(),
		"mobile", ua.Mobile(),
	)
}

// Logout revokes the presented session token. The jti comes from the
// request context, set by the auth middleware.
func (s *Service) Logout(ctx context.Context) error {
	jti := requestcontext.TokenID(ctx)
	if jti == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "no session token")
	}
	// Revoke for the full session lifetime; the entry expires on its own.
	if err := s.trl.RevokeToken(ctx, jti, s.tokens.TTL()); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not revoke token")
	}
	s.logger.Info("staff logout", "email", requestcontext.StaffEmail(ctx))
	return nil
}

// CreateUser adds a staff account. Only admins may call this; the handler
// enforces the role.
func (s *Service) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.AdminUser, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.AdminUser{
		ID:           uuid.New(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not create user")
	}
	s.logger.Info("staff user created", "email", user.Email, "role", user.Role, "by", requestcontext.StaffEmail(ctx))
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.AdminUser, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list users")
	}
	return users, nil
}

// DeleteUser removes a staff account. Staff cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if id == requestcontext.StaffID(ctx) {
		return dErrors.New(dErrors.CodeConflict, "cannot delete your own account")
	}
	if err := s.users.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not delete user")
	}
	s.logger.Info("staff user deleted", "user_id", id, "by", requestcontext.StaffEmail(ctx))
	return nil
}
