package domain

import "errors"

// ErrNotFound is returned when the requested resource does not exist,
// locally or upstream. Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing required field, arrival before departure).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthorized is returned when the session is missing, expired, or
// rejected by the upstream API. Handlers should map this to HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrUnreachable is returned when the upstream API cannot be contacted at all.
// Handlers should map this to HTTP 503 with connectivity-specific copy.
var ErrUnreachable = errors.New("upstream unreachable")
