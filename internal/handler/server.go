// Package handler implements the HTTP handlers for the schedule console API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, schedule.go, session.go, etc.) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/middleware"
	"github.com/transsync/schedule-api/spec"
)

// ScheduleServicer defines the schedule operations the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the upstream API.
type ScheduleServicer interface {
	View(ctx context.Context, f domain.ScheduleFilter, p domain.PaginationParams) (domain.ScheduleView, error)
	Get(ctx context.Context, id int64) (domain.ScheduleRow, error)
	Create(ctx context.Context, in domain.TripInput) (domain.MutationResult, error)
	Update(ctx context.Context, id int64, in domain.TripInput) (domain.MutationResult, error)
	Delete(ctx context.Context, id int64) (domain.MutationResult, error)
	SetStatus(ctx context.Context, id int64, status domain.TripStatus) (domain.MutationResult, error)
	Refresh(ctx context.Context) error
}

// SessionServicer defines the session operations the handlers depend on.
type SessionServicer interface {
	Login(ctx context.Context, c domain.Credentials) (domain.Session, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Session, error)
	UpdatePreferences(ctx context.Context, id uuid.UUID, p domain.Preferences) (domain.Session, error)
	Logout(ctx context.Context, id uuid.UUID) error
}

// ExportServicer produces the downloadable schedule.
type ExportServicer interface {
	Export(ctx context.Context, f domain.ScheduleFilter) (domain.ScheduleExport, error)
}

// PositionFeed is the live vehicle position hub. Subscribe returns the
// latest positions together with a channel of strictly later updates.
type PositionFeed interface {
	Latest() []domain.Position
	Subscribe() ([]domain.Position, <-chan domain.Position, func())
}

// UpstreamChecker reports whether the upstream API is reachable.
type UpstreamChecker interface {
	Health(ctx context.Context) error
}

// Server holds the dependencies of every handler.
type Server struct {
	schedule  ScheduleServicer
	sessions  SessionServicer
	export    ExportServicer
	positions PositionFeed
	upstream  UpstreamChecker
	log       *slog.Logger
	upgrader  websocket.Upgrader
}

// NewServer constructs the Server with all its dependencies.
// allowedOrigins is the CORS list; WebSocket upgrades are checked against it.
func NewServer(
	schedule ScheduleServicer,
	sessions SessionServicer,
	export ExportServicer,
	positions PositionFeed,
	upstream UpstreamChecker,
	allowedOrigins []string,
	log *slog.Logger,
) *Server {
	return &Server{
		schedule:  schedule,
		sessions:  sessions,
		export:    export,
		positions: positions,
		upstream:  upstream,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Handler returns the chi router for the whole API. Cross-cutting middleware
// (request id, logging, CORS, recovery) is applied by the caller.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	r.Post("/session", s.CreateSession)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(s.sessions, s.log))

		r.Get("/session", s.GetSession)
		r.Patch("/session/preferences", s.UpdatePreferences)
		r.Delete("/session", s.DeleteSession)

		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.GetSchedule)
			r.Get("/export", s.GetExport)
			r.Post("/trips", s.CreateTrip)
			r.Get("/trips/{id}", s.GetTrip)
			r.Put("/trips/{id}", s.UpdateTrip)
			r.Delete("/trips/{id}", s.DeleteTrip)
			r.Patch("/trips/{id}/status", s.SetTripStatus)
		})

		r.Get("/positions", s.ListPositions)
		r.Get("/positions/stream", s.StreamPositions)
	})

	return r
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}

// originChecker allows same-origin upgrades and any origin in allowed.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		_, wildcard := set["*"]
		return wildcard
	}
}
