package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/fleetapi"
)

// SessionLoader resolves a session id to a live session.
// *service.SessionService satisfies it.
type SessionLoader interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Session, error)
}

type sessionKey struct{}

// SessionFrom returns the session attached by RequireSession.
func SessionFrom(ctx context.Context) (domain.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(domain.Session)
	return s, ok
}

// WithSession returns a copy of ctx carrying s. Exposed for handler tests.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// RequireSession authenticates the request by its session id and attaches
// the session and its upstream token to the request context.
//
// The id is read from "Authorization: Bearer <id>", or from the
// access_token query parameter for WebSocket upgrades, which cannot set
// headers from a browser.
func RequireSession(sessions SessionLoader, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearer(r)
			if raw == "" {
				unauthorized(w, "missing session")
				return
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				unauthorized(w, "malformed session id")
				return
			}

			sess, err := sessions.Get(r.Context(), id)
			if errors.Is(err, domain.ErrUnauthorized) {
				unauthorized(w, "session expired, sign in again")
				return
			}
			if err != nil {
				log.ErrorContext(r.Context(), "session lookup failed", "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "internal server error")
				return
			}

			ctx := WithSession(r.Context(), sess)
			ctx = fleetapi.WithToken(ctx, sess.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="transsync"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized", message)
}

// writeJSONError writes the API error envelope. It mirrors the handler
// package's ErrorResponse, which this package cannot import.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
