// Package repo contains all database access logic for the schedule console.
// The console owns exactly one table, sessions; everything else lives in the
// upstream API. No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/transsync/schedule-api/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SessionRepo defines the persistence operations for console sessions.
type SessionRepo interface {
	// Create inserts a new session and returns the persisted record with the
	// DB-generated id, created_at, and updated_at populated.
	Create(ctx context.Context, s domain.Session) (domain.Session, error)

	// GetByID retrieves a session by id.
	// Returns domain.ErrNotFound if no session with that id exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error)

	// UpdatePreferences overwrites the non-nil preference fields and returns
	// the updated record. Returns domain.ErrNotFound if the session is gone.
	UpdatePreferences(ctx context.Context, id uuid.UUID, p domain.Preferences) (domain.Session, error)

	// Delete removes a session. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteExpired removes every session that expired at or before now and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// pgSessionRepo is the Postgres implementation of SessionRepo.
type pgSessionRepo struct {
	db db
}

// NewSessionRepo constructs a SessionRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSessionRepo(db db) SessionRepo {
	return &pgSessionRepo{db: db}
}

const sessionColumns = `id, token, user_id, user_name, user_email, user_role,
		       remember_email, theme, expires_at, created_at, updated_at`

// Create inserts a new session row and returns the full persisted record.
func (r *pgSessionRepo) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	q := `
		INSERT INTO sessions (token, user_id, user_name, user_email, user_role,
		                      remember_email, theme, expires_at)
		VALUES (@token, @user_id, @user_name, @user_email, @user_role,
		        @remember_email, @theme, @expires_at)
		RETURNING ` + sessionColumns

	theme := s.Theme
	if theme == "" {
		theme = domain.ThemeLight
	}
	args := pgx.NamedArgs{
		"token":          s.Token,
		"user_id":        s.UserID,
		"user_name":      s.UserName,
		"user_email":     s.UserEmail,
		"user_role":      s.UserRole,
		"remember_email": s.RememberEmail,
		"theme":          string(theme),
		"expires_at":     s.ExpiresAt,
	}

	result, err := scanSession(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a session by primary key.
func (r *pgSessionRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = @id`

	result, err := scanSession(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.GetByID: %w", err)
	}
	return result, nil
}

// UpdatePreferences overwrites theme and/or remember_email.
// COALESCE keeps the stored value when the argument is NULL.
func (r *pgSessionRepo) UpdatePreferences(ctx context.Context, id uuid.UUID, p domain.Preferences) (domain.Session, error) {
	q := `
		UPDATE sessions
		SET theme          = COALESCE(@theme, theme),
		    remember_email = COALESCE(@remember_email, remember_email),
		    updated_at     = now()
		WHERE id = @id
		RETURNING ` + sessionColumns

	var theme *string
	if p.Theme != nil {
		t := string(*p.Theme)
		theme = &t
	}
	args := pgx.NamedArgs{
		"id":             id,
		"theme":          theme,
		"remember_email": p.RememberEmail,
	}

	result, err := scanSession(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Session{}, fmt.Errorf("repo.SessionRepo.UpdatePreferences: %w", err)
	}
	return result, nil
}

// Delete removes a session by primary key.
func (r *pgSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM sessions WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.SessionRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes sessions whose expires_at is not after now.
func (r *pgSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= @now`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, fmt.Errorf("repo.SessionRepo.DeleteExpired: %w", err)
	}
	return tag.RowsAffected(), nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanSession maps a single database row into a domain.Session.
func scanSession(s scanner) (domain.Session, error) {
	var (
		sess  domain.Session
		id    pgtype.UUID
		theme string
	)

	err := s.Scan(&id, &sess.Token, &sess.UserID, &sess.UserName, &sess.UserEmail, &sess.UserRole,
		&sess.RememberEmail, &theme, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, err
	}

	sess.ID = uuid.UUID(id.Bytes)
	sess.Theme = domain.Theme(theme)
	return sess, nil
}
