package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/handler"
)

// ---- mocks -----------------------------------------------------------------

// mockSchedule is a test double for handler.ScheduleServicer.
// Set only the method fields your test needs.
type mockSchedule struct {
	view      func(ctx context.Context, f domain.ScheduleFilter, p domain.PaginationParams) (domain.ScheduleView, error)
	get       func(ctx context.Context, id int64) (domain.ScheduleRow, error)
	create    func(ctx context.Context, in domain.TripInput) (domain.MutationResult, error)
	update    func(ctx context.Context, id int64, in domain.TripInput) (domain.MutationResult, error)
	delete    func(ctx context.Context, id int64) (domain.MutationResult, error)
	setStatus func(ctx context.Context, id int64, status domain.TripStatus) (domain.MutationResult, error)
	refresh   func(ctx context.Context) error
}

func (m *mockSchedule) View(ctx context.Context, f domain.ScheduleFilter, p domain.PaginationParams) (domain.ScheduleView, error) {
	return m.view(ctx, f, p)
}
func (m *mockSchedule) Get(ctx context.Context, id int64) (domain.ScheduleRow, error) {
	return m.get(ctx, id)
}
func (m *mockSchedule) Create(ctx context.Context, in domain.TripInput) (domain.MutationResult, error) {
	return m.create(ctx, in)
}
func (m *mockSchedule) Update(ctx context.Context, id int64, in domain.TripInput) (domain.MutationResult, error) {
	return m.update(ctx, id, in)
}
func (m *mockSchedule) Delete(ctx context.Context, id int64) (domain.MutationResult, error) {
	return m.delete(ctx, id)
}
func (m *mockSchedule) SetStatus(ctx context.Context, id int64, status domain.TripStatus) (domain.MutationResult, error) {
	return m.setStatus(ctx, id, status)
}
func (m *mockSchedule) Refresh(ctx context.Context) error {
	return m.refresh(ctx)
}

// compile-time check: mockSchedule must satisfy handler.ScheduleServicer.
var _ handler.ScheduleServicer = (*mockSchedule)(nil)

// mockSessions is a test double for handler.SessionServicer.
// get defaults to returning testSession for any id.
type mockSessions struct {
	login             func(ctx context.Context, c domain.Credentials) (domain.Session, error)
	get               func(ctx context.Context, id uuid.UUID) (domain.Session, error)
	updatePreferences func(ctx context.Context, id uuid.UUID, p domain.Preferences) (domain.Session, error)
	logout            func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSessions) Login(ctx context.Context, c domain.Credentials) (domain.Session, error) {
	return m.login(ctx, c)
}
func (m *mockSessions) Get(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	if m.get == nil {
		s := testSession
		s.ID = id
		return s, nil
	}
	return m.get(ctx, id)
}
func (m *mockSessions) UpdatePreferences(ctx context.Context, id uuid.UUID, p domain.Preferences) (domain.Session, error) {
	return m.updatePreferences(ctx, id, p)
}
func (m *mockSessions) Logout(ctx context.Context, id uuid.UUID) error {
	return m.logout(ctx, id)
}

var _ handler.SessionServicer = (*mockSessions)(nil)

type mockExport struct {
	export func(ctx context.Context, f domain.ScheduleFilter) (domain.ScheduleExport, error)
}

func (m *mockExport) Export(ctx context.Context, f domain.ScheduleFilter) (domain.ScheduleExport, error) {
	return m.export(ctx, f)
}

var _ handler.ExportServicer = (*mockExport)(nil)

type mockFeed struct {
	latest  []domain.Position
	updates chan domain.Position
}

func (m *mockFeed) Latest() []domain.Position { return m.latest }
func (m *mockFeed) Subscribe() ([]domain.Position, <-chan domain.Position, func()) {
	if m.updates == nil {
		m.updates = make(chan domain.Position)
	}
	return m.latest, m.updates, func() {}
}

var _ handler.PositionFeed = (*mockFeed)(nil)

type mockUpstream struct{ err error }

func (m mockUpstream) Health(context.Context) error { return m.err }

// ---- helpers ---------------------------------------------------------------

var testSession = domain.Session{
	Token:     "upstream-token",
	UserID:    "12",
	UserName:  "Ana Gómez",
	UserEmail: "ana@transsync.co",
	UserRole:  "GESTOR",
	Theme:     domain.ThemeLight,
	ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
}

// deps groups the mocks so each test sets only what it needs.
type deps struct {
	schedule *mockSchedule
	sessions *mockSessions
	export   *mockExport
	feed     *mockFeed
	upstream handler.UpstreamChecker
}

// newHTTPHandler wires a Server with the given mocks into its chi router.
// This mirrors exactly how main.go wires it in production.
func newHTTPHandler(d deps) http.Handler {
	if d.schedule == nil {
		d.schedule = &mockSchedule{}
	}
	if d.sessions == nil {
		d.sessions = &mockSessions{}
	}
	if d.export == nil {
		d.export = &mockExport{}
	}
	if d.feed == nil {
		d.feed = &mockFeed{}
	}
	if d.upstream == nil {
		d.upstream = mockUpstream{}
	}
	srv := handler.NewServer(d.schedule, d.sessions, d.export, d.feed, d.upstream,
		[]string{"http://localhost:5173"}, slog.New(slog.DiscardHandler))
	return srv.Handler()
}

// authed builds a request carrying a valid session bearer.
func authed(method, target string, body *bytes.Buffer) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+uuid.NewString())
	return req
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) handler.ErrorDetail {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}
