package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/transsync/schedule-api/internal/fleetapi"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
}

// GetHealth handles GET /healthz.
// It always returns HTTP 200 while the process is up; status is "degraded"
// when the upstream API cannot be reached.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Upstream: "ok"}
	if s.upstream != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.upstream.Health(ctx); err != nil {
			s.log.WarnContext(r.Context(), "upstream health check failed", "error", err)
			resp = HealthResponse{Status: "degraded", Upstream: "error"}
			if fleetapi.IsUnreachable(err) {
				resp.Upstream = "unreachable"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
