package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/fleetapi"
	"github.com/transsync/schedule-api/internal/repo"
)

// Authenticator signs users in and out of the upstream API.
// *fleetapi.Client satisfies it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, domain.UserProfile, error)
	Logout(ctx context.Context) error
}

var _ Authenticator = (*fleetapi.Client)(nil)

// SessionService owns the lifecycle of console sessions.
type SessionService struct {
	repo repo.SessionRepo
	auth Authenticator
	ttl  time.Duration
	log  *slog.Logger
	now  func() time.Time
}

// NewSessionService constructs a SessionService. ttl bounds every session,
// including ones whose upstream token carries a later expiry.
func NewSessionService(r repo.SessionRepo, auth Authenticator, ttl time.Duration, log *slog.Logger) *SessionService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionService{repo: r, auth: auth, ttl: ttl, log: log, now: time.Now}
}

// Login authenticates against the upstream and persists a new session.
// Returns domain.ErrValidation for blank credentials and
// domain.ErrUnauthorized when the upstream rejects them.
func (s *SessionService) Login(ctx context.Context, c domain.Credentials) (domain.Session, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return domain.Session{}, fmt.Errorf("service.SessionService.Login: %w: email is required", domain.ErrValidation)
	}
	if c.Password == "" {
		return domain.Session{}, fmt.Errorf("service.SessionService.Login: %w: password is required", domain.ErrValidation)
	}

	token, user, err := s.auth.Login(ctx, email, c.Password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service.SessionService.Login: %w", err)
	}

	now := s.now()
	sess := domain.Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		UserRole:  user.Role,
		Theme:     domain.ThemeLight,
		ExpiresAt: s.expiry(token, now),
	}
	if sess.UserEmail == "" {
		sess.UserEmail = email
	}
	if c.Remember {
		sess.RememberEmail = email
	}

	created, err := s.repo.Create(ctx, sess)
	if err != nil {
		return domain.Session{}, fmt.Errorf("service.SessionService.Login: %w", err)
	}
	s.log.InfoContext(ctx, "session created", "session_id", created.ID, "user_id", created.UserID)
	return created, nil
}

// expiry returns the earlier of the token's own exp claim and now+ttl.
// The token is not verified; the upstream remains the authority on it.
func (s *SessionService) expiry(token string, now time.Time) time.Time {
	limit := now.Add(s.ttl)
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return limit
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || exp.Time.After(limit) {
		return limit
	}
	return exp.Time
}

// Get returns a live session.
// Returns domain.ErrUnauthorized when it does not exist or has expired.
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("service.SessionService.Get: %w: session not found", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("service.SessionService.Get: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			s.log.WarnContext(ctx, "failed to delete expired session", "session_id", id, "error", err)
		}
		return domain.Session{}, fmt.Errorf("service.SessionService.Get: %w: session expired", domain.ErrUnauthorized)
	}
	return sess, nil
}

// UpdatePreferences persists the non-nil fields of p.
func (s *SessionService) UpdatePreferences(ctx context.Context, id uuid.UUID, p domain.Preferences) (domain.Session, error) {
	if p.Theme != nil && !p.Theme.Valid() {
		return domain.Session{}, fmt.Errorf("service.SessionService.UpdatePreferences: %w: unknown theme %q", domain.ErrValidation, *p.Theme)
	}
	if p.RememberEmail != nil {
		trimmed := strings.TrimSpace(*p.RememberEmail)
		p.RememberEmail = &trimmed
	}
	sess, err := s.repo.UpdatePreferences(ctx, id, p)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, fmt.Errorf("service.SessionService.UpdatePreferences: %w: session not found", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("service.SessionService.UpdatePreferences: %w", err)
	}
	return sess, nil
}

// Logout signs out upstream and deletes the session. The upstream call is
// best effort: a failure there is logged and the local session is still
// removed.
func (s *SessionService) Logout(ctx context.Context, id uuid.UUID) error {
	sess, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("service.SessionService.Logout: %w", err)
	}
	if err := s.auth.Logout(fleetapi.WithToken(ctx, sess.Token)); err != nil {
		s.log.WarnContext(ctx, "upstream logout failed", "session_id", id, "error", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.SessionService.Logout: %w", err)
	}
	s.log.InfoContext(ctx, "session deleted", "session_id", id)
	return nil
}

// Sweep deletes every expired session and returns how many were removed.
func (s *SessionService) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("service.SessionService.Sweep: %w", err)
	}
	return n, nil
}
