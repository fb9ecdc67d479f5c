package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/schedule"
)

// Pagination describes the page returned and the size of the full result.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// OptionsResponse holds the entries of the trip form selects.
type OptionsResponse struct {
	Vehicles []domain.Option `json:"vehicles"`
	Drivers  []domain.Option `json:"drivers"`
	Routes   []domain.Option `json:"routes"`
	Statuses []string        `json:"statuses"`
}

// ScheduleResponse is the body of GET /schedule.
// Errors maps a collection name to the message shown next to the table.
type ScheduleResponse struct {
	Data       []domain.ScheduleRow `json:"data"`
	Pagination Pagination           `json:"pagination"`
	Options    OptionsResponse      `json:"options"`
	Errors     map[string]string    `json:"errors,omitempty"`
}

// StatusRequest is the body of PATCH /schedule/trips/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// NoticeResponse is the transient banner shown after a mutation.
type NoticeResponse struct {
	Kind         string `json:"kind"`
	Message      string `json:"message"`
	ClearAfterMS int64  `json:"clear_after_ms"`
}

// MutationResponse is the body of every trip mutation.
type MutationResponse struct {
	Trip     *domain.Trip   `json:"trip,omitempty"`
	Trips    []domain.Trip  `json:"trips,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Notice   NoticeResponse `json:"notice"`
}

// GetSchedule handles GET /schedule.
// Supports ?q=, ?status=, ?page= and ?limit= (defaults: page=1, limit=50,
// max=200). ?refresh=true drops the cached reference collections first.
func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	var (
		page, limit *int
		refresh     *bool
	)
	f, err := bindFilter(r)
	if err == nil {
		err = runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page)
	}
	if err == nil {
		err = runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit)
	}
	if err == nil {
		err = runtime.BindQueryParameter("form", true, false, "refresh", r.URL.Query(), &refresh)
	}
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	if refresh != nil && *refresh {
		if err := s.schedule.Refresh(r.Context()); err != nil {
			s.log.WarnContext(r.Context(), "reference cache refresh failed", "error", err)
		}
	}

	params := domain.NewPaginationParams(page, limit)
	view, err := s.schedule.View(r.Context(), f, params)
	if err != nil {
		s.writeError(w, r, err, "")
		return
	}

	resp := ScheduleResponse{
		Data: view.Rows,
		Pagination: Pagination{
			Page:  params.Page,
			Limit: params.Limit,
			Total: view.Total,
		},
		Options: OptionsResponse{
			Vehicles: schedule.VehicleOptions(view.Vehicles),
			Drivers:  schedule.DriverOptions(view.Drivers),
			Routes:   schedule.RouteOptions(view.Routes),
			Statuses: statusCodes(),
		},
	}
	if len(view.Errors) > 0 {
		resp.Errors = view.Errors
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTrip handles GET /schedule/trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tripID(w, r)
	if !ok {
		return
	}
	row, err := s.schedule.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

// CreateTrip handles POST /schedule/trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	in, err := decodeTripInput(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	result, err := s.schedule.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, mutationToResponse(result))
}

// UpdateTrip handles PUT /schedule/trips/{id}.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tripID(w, r)
	if !ok {
		return
	}
	in, err := decodeTripInput(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	result, err := s.schedule.Update(r.Context(), id, in)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, mutationToResponse(result))
}

// DeleteTrip handles DELETE /schedule/trips/{id}.
// Responds 200 rather than 204 so the client receives the refreshed list
// and the banner.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tripID(w, r)
	if !ok {
		return
	}
	result, err := s.schedule.Delete(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, mutationToResponse(result))
}

// SetTripStatus handles PATCH /schedule/trips/{id}/status.
func (s *Server) SetTripStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.tripID(w, r)
	if !ok {
		return
	}
	var body StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("request body must be a JSON object"))
		return
	}
	result, err := s.schedule.SetStatus(r.Context(), id, domain.TripStatus(body.Status))
	if err != nil {
		s.writeError(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, mutationToResponse(result))
}

// --- binding helpers --------------------------------------------------------

// bindFilter reads ?q= and ?status=.
func bindFilter(r *http.Request) (domain.ScheduleFilter, error) {
	var q, status *string
	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &q); err != nil {
		return domain.ScheduleFilter{}, err
	}
	if err := runtime.BindQueryParameter("form", true, false, "status", r.URL.Query(), &status); err != nil {
		return domain.ScheduleFilter{}, err
	}
	var f domain.ScheduleFilter
	if q != nil {
		f.Query = *q
	}
	if status != nil {
		f.Status = *status
	}
	if f.Status != "" && f.Status != domain.StatusAll && !domain.TripStatus(f.Status).Valid() {
		return domain.ScheduleFilter{}, errors.New("status must be one of " + joinStatuses())
	}
	return f, nil
}

// tripID binds the {id} path parameter, writing a 422 when it is not a
// positive integer.
func (s *Server) tripID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusUnprocessableEntity, requestBody("trip id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func decodeTripInput(r *http.Request) (domain.TripInput, error) {
	var in domain.TripInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return domain.TripInput{}, errors.New("request body must be a trip object")
	}
	return in, nil
}

// --- mapping helpers --------------------------------------------------------

func mutationToResponse(m domain.MutationResult) MutationResponse {
	return MutationResponse{
		Trip:     m.Trip,
		Trips:    m.Trips,
		Warnings: m.Warnings,
		Notice: NoticeResponse{
			Kind:         string(m.Notice.Kind),
			Message:      m.Notice.Message,
			ClearAfterMS: m.Notice.ClearAfter.Milliseconds(),
		},
	}
}

func statusCodes() []string {
	out := make([]string, len(domain.TripStatuses))
	for i, st := range domain.TripStatuses {
		out[i] = string(st)
	}
	return out
}

func joinStatuses() string {
	return strings.Join(append([]string{domain.StatusAll}, statusCodes()...), ", ")
}
