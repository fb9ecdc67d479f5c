package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/middleware"
)

// LoginRequest is the body of POST /session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Remember bool   `json:"remember"`
}

// PreferencesRequest is the body of PATCH /session/preferences.
// Omitted fields are left unchanged.
type PreferencesRequest struct {
	Theme         *string `json:"theme"`
	RememberEmail *string `json:"remember_email"`
}

// UserResponse is the signed-in user.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// SessionResponse is the hydrated client state.
// ID is the bearer credential for every other route.
type SessionResponse struct {
	ID            string       `json:"id"`
	User          UserResponse `json:"user"`
	Theme         string       `json:"theme"`
	RememberEmail string       `json:"remember_email,omitempty"`
	ExpiresAt     time.Time    `json:"expires_at"`
}

// CreateSession handles POST /session.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body must be a JSON object"))
		return
	}

	sess, err := s.sessions.Login(r.Context(), domain.Credentials{
		Email:    body.Email,
		Password: body.Password,
		Remember: body.Remember,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "invalid email or password"))
			return
		}
		s.writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, sessionToResponse(sess))
}

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// UpdatePreferences handles PATCH /session/preferences.
func (s *Server) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body must be a JSON object"))
		return
	}

	current, _ := middleware.SessionFrom(r.Context())
	prefs := domain.Preferences{RememberEmail: body.RememberEmail}
	if body.Theme != nil {
		theme := domain.Theme(*body.Theme)
		prefs.Theme = &theme
	}

	sess, err := s.sessions.UpdatePreferences(r.Context(), current.ID, prefs)
	if err != nil {
		s.writeError(w, r, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// DeleteSession handles DELETE /session.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.SessionFrom(r.Context())
	if err := s.sessions.Logout(r.Context(), sess.ID); err != nil {
		s.writeError(w, r, err, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionToResponse(s domain.Session) SessionResponse {
	return SessionResponse{
		ID: s.ID.String(),
		User: UserResponse{
			ID:    s.UserID,
			Name:  s.UserName,
			Email: s.UserEmail,
			Role:  s.UserRole,
		},
		Theme:         string(s.Theme),
		RememberEmail: s.RememberEmail,
		ExpiresAt:     s.ExpiresAt,
	}
}
