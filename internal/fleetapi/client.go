// Package fleetapi is the HTTP client for the upstream TransSync REST API,
// which owns every trip, vehicle, driver, and route.
//
// All responses cross the wire package before leaving this package, so
// callers only see domain types. Failures are classified as:
//   - domain.ErrUnreachable when the server cannot be contacted at all;
//   - *APIError for any non-2xx response, which also matches
//     domain.ErrNotFound (404), domain.ErrValidation (400/422) and
//     domain.ErrUnauthorized (401/403) via errors.Is.
package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/wire"
)

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 8 << 20

// APIError is a non-2xx response from the upstream API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// Unwrap maps the HTTP status onto the domain sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusConflict:
		return domain.ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	}
	return nil
}

type tokenKey struct{}

// WithToken returns a context whose upstream requests carry token as a
// bearer credential.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client talks to one upstream base URL. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New constructs a Client. baseURL is the server root; a trailing "/api"
// is stripped because every request path already carries it, so
// "https://api.transsync.co" and "https://api.transsync.co/api/" are equivalent.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/api"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// do sends one request and returns the raw response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrUnreachable, err)
	}

	c.log.DebugContext(ctx, "upstream request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}
	return data, nil
}

// errorMessage extracts the conventional {"message": "..."} text from an
// error body, falling back to a generic sentence.
func errorMessage(status int, body []byte) string {
	if rec, err := wire.DecodeOne(body); err == nil {
		if msg := rec.String("message", "mensaje", "error"); msg != "" {
			return msg
		}
		if nested := rec.Object("error"); nested != nil {
			if msg := nested.String("message"); msg != "" {
				return msg
			}
		}
	}
	if status >= 500 {
		return "the server could not complete the request, please try again"
	}
	return fmt.Sprintf("the request was rejected (HTTP %d)", status)
}

// Health calls GET /api/auth/health.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/health", nil); err != nil {
		return fmt.Errorf("fleetapi.Client.Health: %w", err)
	}
	return nil
}

// IsUnreachable reports whether err means the upstream could not be contacted.
func IsUnreachable(err error) bool {
	return errors.Is(err, domain.ErrUnreachable)
}
