// Package service implements login, logout, and session management.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SashiniHimaya/blood-donation-system/internal/auth/models"
	"github.com/SashiniHimaya/blood-donation-system/internal/auth/secrets"
	jwttoken "github.com/SashiniHimaya/blood-donation-system/internal/jwt_token"
	"github.com/SashiniHimaya/blood-donation-system/internal/platform/metrics"
	usermodels "github.com/SashiniHimaya/blood-donation-system/internal/user/models"
	id "github.com/SashiniHimaya/blood-donation-system/pkg/domain"
	dErrors "github.com/SashiniHimaya/blood-donation-system/pkg/domain-errors"
	"github.com/SashiniHimaya/blood-donation-system/pkg/platform/sentinel"
	"github.com/SashiniHimaya/blood-donation-system/pkg/requestcontext"
)

// DefaultSessionTTL bounds how long an access token and its session live.
const DefaultSessionTTL = 24 * time.Hour

// SessionStore persists login sessions.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	Touch(ctx context.Context, sessionID id.SessionID, now time.Time) error
	Delete(ctx context.Context, sessionID id.SessionID) error
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Session, error)
	DeleteAllForUser(ctx context.Context, userID id.UserID) error
}

// UserSource is the slice of the user store the auth service needs.
type UserSource interface {
	FindByEmail(ctx context.Context, email string) (*usermodels.User, error)
}

// Service authenticates users and manages their sessions.
type Service struct {
	sessions   SessionStore
	users      UserSource
	tokens     *jwttoken.JWTService
	sessionTTL time.Duration
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the Prometheus metrics collection.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// New constructs an auth service.
func New(sessions SessionStore, users UserSource, tokens *jwttoken.JWTService, opts ...Option) *Service {
	s := &Service{
		sessions:   sessions,
		users:      users,
		tokens:     tokens,
		sessionTTL: DefaultSessionTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// LoginResult carries the issued token and the authenticated account.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *usermodels.User `json:"user"`
}

// Login verifies credentials, creates a session, and issues an access token.
// Unknown emails and wrong passwords report the same unauthorized error.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.countLogin("failure")
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}

	if err := secrets.Verify(password, user.PasswordHash); err != nil {
		s.countLogin("failure")
		return nil, err
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:         id.NewSessionID(),
		UserID:     user.ID,
		Role:       user.Role,
		DeviceName: requestcontext.DeviceName(ctx),
		ClientIP:   requestcontext.ClientIP(ctx),
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.GenerateAccessToken(
		uuid.UUID(user.ID), uuid.UUID(session.ID), user.Role.String(), s.sessionTTL)
	if err != nil {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}

	s.countLogin("success")
	s.logAudit(ctx, "auth.login",
		"user_id", user.ID.String(),
		"session_id", session.ID.String(),
		"device", session.DeviceName,
	)
	return &LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

// Logout deletes the caller's current session, revoking its token.
func (s *Service) Logout(ctx context.Context) error {
	sessionID := requestcontext.SessionID(ctx)
	if sessionID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Already gone; logout is idempotent
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}

	s.logAudit(ctx, "auth.logout", "session_id", sessionID.String())
	return nil
}

// Sessions lists the caller's live sessions, marking the current one.
func (s *Service) Sessions(ctx context.Context) ([]models.SessionSummary, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}

	current := requestcontext.SessionID(ctx)
	summaries := make([]models.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summarize(current))
	}
	return summaries, nil
}

// RevokeSession deletes one of the caller's sessions by ID. Users can only
// revoke their own sessions.
func (s *Service) RevokeSession(ctx context.Context, sessionID id.SessionID) error {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "session not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.UserID != userID {
		return dErrors.New(dErrors.CodeForbidden, "cannot revoke another user's session")
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete session")
	}

	s.logAudit(ctx, "auth.session_revoked",
		"session_id", sessionID.String(),
		"device", session.DeviceName,
	)
	return nil
}

// IsActive reports whether a session still exists. The auth middleware uses
// this to reject tokens whose session was revoked.
func (s *Service) IsActive(ctx context.Context, sessionID id.SessionID) (bool, error) {
	_, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.sessions.Touch(ctx, sessionID, requestcontext.Now(ctx)); err != nil &&
		!errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "failed to touch session",
			"session_id", sessionID.String(),
			"error", err,
		)
	}
	return true, nil
}

func (s *Service) countLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	attributes = append(attributes,
		"request_id", requestcontext.RequestID(ctx),
		"event", event,
		"log_type", "audit",
	)
	s.logger.InfoContext(ctx, event, attributes...)
}
