package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/fleetapi"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorDetail as {"error": {...}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func errorBody(code, message string) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: message}}
}

// notFoundBody returns an ErrorResponse for a missing resource.
// The caller supplies the human-readable message (e.g. "trip not found")
// because the handler is the layer that knows what was being looked up.
func notFoundBody(message string) ErrorResponse {
	return errorBody("not_found", message)
}

// validationBody returns an ErrorResponse for a domain validation failure.
func validationBody(err error) ErrorResponse {
	return errorBody("validation_error", unwrapMessage(err, domain.ErrValidation))
}

// requestBody returns an ErrorResponse for a bad request rejected before
// reaching the service layer (e.g. missing or malformed body).
func requestBody(message string) ErrorResponse {
	return errorBody("validation_error", message)
}

// unwrapMessage extracts the human-readable part from a wrapped error.
// An upstream rejection yields the upstream's own message; otherwise the
// text after the last occurrence of the sentinel is used.
// e.g. "service.ScheduleService.Create: validation error: driver is required" → "driver is required"
func unwrapMessage(err error, sentinel error) string {
	if err == nil {
		return ""
	}
	var apiErr *fleetapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	msg := err.Error()
	marker := sentinel.Error() + ": "
	if i := strings.LastIndex(msg, marker); i >= 0 && i+len(marker) < len(msg) {
		return msg[i+len(marker):]
	}
	return msg
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto the HTTP error taxonomy.
// notFound is the message used when err matches domain.ErrNotFound.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var apiErr *fleetapi.APIError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, validationBody(err))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, notFoundBody(notFound))
	case errors.Is(err, domain.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", unwrapMessage(err, domain.ErrUnauthorized)))
	case errors.Is(err, domain.ErrUnreachable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody("upstream_unreachable",
			"could not reach the TransSync server; check your connection and retry"))
	case errors.As(err, &apiErr):
		s.log.WarnContext(r.Context(), "upstream error", "status", apiErr.Status, "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody("upstream_error", apiErr.Message))
	default:
		s.log.ErrorContext(r.Context(), "unhandled error", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", "internal server error"))
	}
}
