package domain

import (
	"time"

	"github.com/google/uuid"
)

// Theme is the UI colour scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Session is the explicit application state of one signed-in console user.
// It replaces the ad hoc local-storage keys of the browser client:
// hydrated on start, persisted on change, deleted on logout.
type Session struct {
	ID            uuid.UUID
	Token         string // upstream bearer token
	UserID        string
	UserName      string
	UserEmail     string
	UserRole      string
	RememberEmail string // empty when "remember me" is off
	Theme         Theme
	ExpiresAt     time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Credentials are the login form fields.
type Credentials struct {
	Email    string
	Password string
	Remember bool
}

// UserProfile is the user block returned by the upstream login endpoint.
type UserProfile struct {
	ID    string
	Name  string
	Email string
	Role  string
}

// Preferences is a partial update of the persisted UI state.
// Nil fields are left unchanged.
type Preferences struct {
	Theme         *Theme
	RememberEmail *string
}
