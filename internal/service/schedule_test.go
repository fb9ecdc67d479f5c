package service_test

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transsync/schedule-api/internal/cache"
	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/fleetapi"
	"github.com/transsync/schedule-api/internal/service"
)

// mockFleet is a hand-written test double for service.Fleet.
// Each method is a function field; set only the ones your test needs.
// Every call is counted so tests can assert that nothing hit the upstream.
type mockFleet struct {
	listTrips     func(ctx context.Context) ([]domain.Trip, error)
	getTrip       func(ctx context.Context, id int64) (domain.Trip, error)
	createTrip    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	updateTrip    func(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	deleteTrip    func(ctx context.Context, id int64) error
	setTripStatus func(ctx context.Context, id int64, status domain.TripStatus) error
	listVehicles  func(ctx context.Context) ([]domain.Vehicle, error)
	listDrivers   func(ctx context.Context) ([]domain.Driver, error)
	listRoutes    func(ctx context.Context) ([]domain.Route, error)

	calls        atomic.Int32
	vehicleCalls atomic.Int32
	tripCalls    atomic.Int32
}

func (m *mockFleet) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	m.calls.Add(1)
	m.tripCalls.Add(1)
	return m.listTrips(ctx)
}
func (m *mockFleet) GetTrip(ctx context.Context, id int64) (domain.Trip, error) {
	m.calls.Add(1)
	return m.getTrip(ctx, id)
}
func (m *mockFleet) CreateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	m.calls.Add(1)
	return m.createTrip(ctx, trip)
}
func (m *mockFleet) UpdateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	m.calls.Add(1)
	return m.updateTrip(ctx, trip)
}
func (m *mockFleet) DeleteTrip(ctx context.Context, id int64) error {
	m.calls.Add(1)
	return m.deleteTrip(ctx, id)
}
func (m *mockFleet) SetTripStatus(ctx context.Context, id int64, status domain.TripStatus) error {
	m.calls.Add(1)
	return m.setTripStatus(ctx, id, status)
}
func (m *mockFleet) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	m.calls.Add(1)
	m.vehicleCalls.Add(1)
	return m.listVehicles(ctx)
}
func (m *mockFleet) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	m.calls.Add(1)
	return m.listDrivers(ctx)
}
func (m *mockFleet) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	m.calls.Add(1)
	return m.listRoutes(ctx)
}

// compile-time check: mockFleet must satisfy service.Fleet.
var _ service.Fleet = (*mockFleet)(nil)

// ---- helpers ---------------------------------------------------------------

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixtureTrips() []domain.Trip {
	return []domain.Trip{
		{ID: 1, VehicleID: 7, DriverID: 3, RouteID: 2, Departure: "2025-06-02 08:00:00", Status: domain.StatusScheduled},
		{ID: 2, VehicleID: 8, DriverID: 4, RouteID: 2, Departure: "2025-06-02 09:30:00", Status: domain.StatusInRoute},
		{ID: 3, VehicleID: 7, DriverID: 4, RouteID: 5, Departure: "2025-06-03 06:00:00", Status: domain.StatusFinished},
	}
}

// fixtureFleet returns a mock whose list methods all succeed.
func fixtureFleet() *mockFleet {
	return &mockFleet{
		listTrips: func(context.Context) ([]domain.Trip, error) { return fixtureTrips(), nil },
		listVehicles: func(context.Context) ([]domain.Vehicle, error) {
			return []domain.Vehicle{
				{ID: 7, Plate: "ABC123", Brand: "Volvo", Model: "B7R"},
				{ID: 8, Plate: "XYZ789", Brand: "Mercedes", Model: "O500"},
			}, nil
		},
		listDrivers: func(context.Context) ([]domain.Driver, error) {
			return []domain.Driver{
				{ID: 3, FirstName: "Ana", LastName: "Pérez"},
				{ID: 4, FirstName: "Luis", LastName: "Gómez"},
			}, nil
		},
		listRoutes: func(context.Context) ([]domain.Route, error) {
			return []domain.Route{
				{ID: 2, Name: "Bogotá - Tunja"},
				{ID: 5, Origin: "Cali", Destination: "Pasto"},
			}, nil
		},
	}
}

func newScheduleService(f *mockFleet) *service.ScheduleService {
	return service.NewScheduleService(f, cache.NewMemoryStore(time.Minute), service.ScheduleOptions{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}, slog.New(slog.DiscardHandler))
}

func validInput() domain.TripInput {
	return domain.TripInput{
		VehicleID: 7,
		DriverID:  3,
		RouteID:   2,
		Departure: "2025-06-05T08:00",
		Arrival:   "2025-06-05T12:30",
	}
}

func echoFleet() *mockFleet {
	f := fixtureFleet()
	f.createTrip = func(_ context.Context, t domain.Trip) (domain.Trip, error) {
		t.ID = 99
		return t, nil
	}
	f.updateTrip = func(_ context.Context, t domain.Trip) (domain.Trip, error) { return t, nil }
	return f
}

// ---- Load tests ------------------------------------------------------------

func TestScheduleService_Load_AllCollections(t *testing.T) {
	svc := newScheduleService(fixtureFleet())

	snap, err := svc.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Trips, 3)
	assert.Len(t, snap.Vehicles, 2)
	assert.Len(t, snap.Drivers, 2)
	assert.Len(t, snap.Routes, 2)
	assert.Empty(t, snap.Errors)
}

func TestScheduleService_Load_PartialFailure(t *testing.T) {
	f := fixtureFleet()
	f.listVehicles = func(context.Context) ([]domain.Vehicle, error) {
		return nil, fmt.Errorf("fleetapi.Client.ListVehicles: %w: dial tcp", domain.ErrUnreachable)
	}
	f.listRoutes = func(context.Context) ([]domain.Route, error) {
		return nil, &fleetapi.APIError{Status: 500, Message: "database offline"}
	}
	svc := newScheduleService(f)

	snap, err := svc.Load(context.Background())

	require.NoError(t, err)
	assert.Len(t, snap.Trips, 3, "trips must still load when references fail")
	assert.Empty(t, snap.Vehicles)
	assert.Len(t, snap.Drivers, 2)
	assert.Contains(t, snap.Errors[domain.CollectionVehicles], "could not reach")
	assert.Equal(t, "database offline", snap.Errors[domain.CollectionRoutes])
	assert.NotContains(t, snap.Errors, domain.CollectionTrips)
}

func TestScheduleService_Load_CachesReferencesNotTrips(t *testing.T) {
	f := fixtureFleet()
	svc := newScheduleService(f)

	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), f.vehicleCalls.Load())
	assert.Equal(t, int32(2), f.tripCalls.Load())
}

func TestScheduleService_Load_CancelledContext(t *testing.T) {
	f := fixtureFleet()
	f.listTrips = func(ctx context.Context) ([]domain.Trip, error) { return nil, ctx.Err() }
	svc := newScheduleService(f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Load(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

// ---- View tests ------------------------------------------------------------

func TestScheduleService_View_ResolvesAndFilters(t *testing.T) {
	svc := newScheduleService(fixtureFleet())

	view, err := svc.View(context.Background(),
		domain.ScheduleFilter{Query: "abc123"},
		domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "ABC123 (Volvo B7R)", view.Rows[0].VehicleLabel)
	assert.Equal(t, "Ana Pérez", view.Rows[0].DriverLabel)
	assert.Equal(t, "Bogotá - Tunja", view.Rows[0].RouteLabel)
	assert.Equal(t, "Cali - Pasto", view.Rows[1].RouteLabel)
	assert.Len(t, view.Vehicles, 2)
}

func TestScheduleService_View_StatusFilter(t *testing.T) {
	svc := newScheduleService(fixtureFleet())

	view, err := svc.View(context.Background(),
		domain.ScheduleFilter{Status: string(domain.StatusInRoute)},
		domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, int64(2), view.Rows[0].Trip.ID)
}

func TestScheduleService_View_Paginates(t *testing.T) {
	svc := newScheduleService(fixtureFleet())
	page, limit := 2, 2

	view, err := svc.View(context.Background(), domain.ScheduleFilter{}, domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.Equal(t, 3, view.Total)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, int64(3), view.Rows[0].Trip.ID)
}

func TestScheduleService_View_HugePageIsEmpty(t *testing.T) {
	svc := newScheduleService(fixtureFleet())
	page, limit := 1<<62+1, 3

	view, err := svc.View(context.Background(), domain.ScheduleFilter{}, domain.NewPaginationParams(&page, &limit))

	require.NoError(t, err)
	assert.Equal(t, 3, view.Total)
	assert.NotNil(t, view.Rows)
	assert.Empty(t, view.Rows)
}

func TestScheduleService_View_PlaceholderWhenReferencesFail(t *testing.T) {
	f := fixtureFleet()
	f.listVehicles = func(context.Context) ([]domain.Vehicle, error) {
		return nil, domain.ErrUnreachable
	}
	svc := newScheduleService(f)

	view, err := svc.View(context.Background(), domain.ScheduleFilter{}, domain.NewPaginationParams(nil, nil))

	require.NoError(t, err)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, "Veh#7", view.Rows[0].VehicleLabel)
	assert.NotNil(t, view.Vehicles)
	assert.Contains(t, view.Errors, domain.CollectionVehicles)
}

func TestScheduleService_View_ExpiredUpstreamSession(t *testing.T) {
	f := fixtureFleet()
	f.listTrips = func(context.Context) ([]domain.Trip, error) {
		return nil, &fleetapi.APIError{Status: 401, Message: "token expired"}
	}
	svc := newScheduleService(f)

	_, err := svc.View(context.Background(), domain.ScheduleFilter{}, domain.NewPaginationParams(nil, nil))

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ---- Get tests -------------------------------------------------------------

func TestScheduleService_Get_ResolvesRow(t *testing.T) {
	f := fixtureFleet()
	f.getTrip = func(_ context.Context, id int64) (domain.Trip, error) {
		return fixtureTrips()[id-1], nil
	}
	svc := newScheduleService(f)

	row, err := svc.Get(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, "XYZ789 (Mercedes O500)", row.VehicleLabel)
	assert.Equal(t, "2025-06-02T09:30", row.DepartureInput)
}

func TestScheduleService_Get_NotFound(t *testing.T) {
	f := fixtureFleet()
	f.getTrip = func(context.Context, int64) (domain.Trip, error) {
		return domain.Trip{}, &fleetapi.APIError{Status: 404, Message: "no such trip"}
	}
	svc := newScheduleService(f)

	_, err := svc.Get(context.Background(), 42)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ---- Create tests ----------------------------------------------------------

func TestScheduleService_Create_Valid(t *testing.T) {
	f := echoFleet()
	var sent domain.Trip
	f.createTrip = func(_ context.Context, t domain.Trip) (domain.Trip, error) {
		sent = t
		t.ID = 99
		return t, nil
	}
	svc := newScheduleService(f)

	got, err := svc.Create(context.Background(), validInput())

	require.NoError(t, err)
	assert.Equal(t, "2025-06-05 08:00:00", sent.Departure)
	assert.Equal(t, "2025-06-05 12:30:00", sent.Arrival)
	assert.Equal(t, domain.StatusScheduled, sent.Status, "status defaults to scheduled")
	require.NotNil(t, got.Trip)
	assert.Equal(t, int64(99), got.Trip.ID)
	assert.Len(t, got.Trips, 3, "the schedule is refetched after a mutation")
	assert.Empty(t, got.Warnings)
	assert.Equal(t, domain.NoticeSuccess, got.Notice.Kind)
	assert.Equal(t, 3*time.Second, got.Notice.ClearAfter)
}

func TestScheduleService_Create_ArrivalBeforeDeparture(t *testing.T) {
	f := echoFleet()
	svc := newScheduleService(f)
	in := validInput()
	in.Arrival = "2025-06-05T07:00"

	_, err := svc.Create(context.Background(), in)

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "arrival must be after departure")
	assert.Equal(t, int32(0), f.calls.Load(), "no upstream call on invalid input")
}

func TestScheduleService_Create_ArrivalEqualsDeparture(t *testing.T) {
	svc := newScheduleService(echoFleet())
	in := validInput()
	in.Arrival = in.Departure

	_, err := svc.Create(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestScheduleService_Create_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.TripInput)
		msg    string
	}{
		{"no departure", func(in *domain.TripInput) { in.Departure = "  " }, "departure is required"},
		{"bad departure", func(in *domain.TripInput) { in.Departure = "tomorrow" }, "departure is not a valid"},
		{"no vehicle", func(in *domain.TripInput) { in.VehicleID = 0 }, "vehicle is required"},
		{"no driver", func(in *domain.TripInput) { in.DriverID = 0 }, "driver is required"},
		{"no route", func(in *domain.TripInput) { in.RouteID = 0 }, "route is required"},
		{"bad status", func(in *domain.TripInput) { in.Status = "LOST" }, "unknown status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := echoFleet()
			svc := newScheduleService(f)
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), in)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, err.Error(), tc.msg)
			assert.Equal(t, int32(0), f.calls.Load())
		})
	}
}

func TestScheduleService_Create_UnknownReference(t *testing.T) {
	f := echoFleet()
	created := false
	f.createTrip = func(_ context.Context, t domain.Trip) (domain.Trip, error) {
		created = true
		return t, nil
	}
	svc := newScheduleService(f)
	in := validInput()
	in.DriverID = 404

	_, err := svc.Create(context.Background(), in)

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "driver 404")
	assert.False(t, created)
}

func TestScheduleService_Create_ReferencesUnavailable(t *testing.T) {
	f := echoFleet()
	f.listRoutes = func(context.Context) ([]domain.Route, error) { return nil, domain.ErrUnreachable }
	svc := newScheduleService(f)

	_, err := svc.Create(context.Background(), validInput())

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "routes could not be loaded")
}

func TestScheduleService_Create_PastDepartureWarns(t *testing.T) {
	svc := newScheduleService(echoFleet())
	in := validInput()
	in.Departure = "2025-05-30T08:00"
	in.Arrival = ""

	got, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, []string{"departure is in the past"}, got.Warnings)
	assert.Equal(t, domain.NoticeWarning, got.Notice.Kind)
	require.NotNil(t, got.Trip)
	assert.Empty(t, got.Trip.Arrival)
}

func TestScheduleService_Create_RefreshFailureIsWarning(t *testing.T) {
	f := echoFleet()
	f.listTrips = func(context.Context) ([]domain.Trip, error) { return nil, domain.ErrUnreachable }
	svc := newScheduleService(f)

	got, err := svc.Create(context.Background(), validInput())

	require.NoError(t, err)
	assert.Nil(t, got.Trips)
	require.Len(t, got.Warnings, 1)
	assert.Contains(t, got.Warnings[0], "could not be refreshed")
}

func TestScheduleService_Create_UpstreamRejects(t *testing.T) {
	f := echoFleet()
	f.createTrip = func(context.Context, domain.Trip) (domain.Trip, error) {
		return domain.Trip{}, &fleetapi.APIError{Status: 422, Message: "vehicle already booked"}
	}
	svc := newScheduleService(f)

	_, err := svc.Create(context.Background(), validInput())

	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "vehicle already booked")
}

// ---- Update tests ----------------------------------------------------------

func TestScheduleService_Update_SetsID(t *testing.T) {
	f := echoFleet()
	svc := newScheduleService(f)
	in := validInput()
	in.Departure = "2025-05-30T08:00"
	in.Arrival = ""
	in.Status = domain.StatusFinished

	got, err := svc.Update(context.Background(), 3, in)

	require.NoError(t, err)
	require.NotNil(t, got.Trip)
	assert.Equal(t, int64(3), got.Trip.ID)
	assert.Equal(t, domain.StatusFinished, got.Trip.Status)
	assert.Empty(t, got.Warnings, "past departures only warn on create")
}

func TestScheduleService_Update_MissingID(t *testing.T) {
	f := echoFleet()
	svc := newScheduleService(f)

	_, err := svc.Update(context.Background(), 0, validInput())

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int32(0), f.calls.Load())
}

// ---- Delete / SetStatus tests ----------------------------------------------

func TestScheduleService_Delete(t *testing.T) {
	f := fixtureFleet()
	var deleted int64
	f.deleteTrip = func(_ context.Context, id int64) error {
		deleted = id
		return nil
	}
	svc := newScheduleService(f)

	got, err := svc.Delete(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Nil(t, got.Trip)
	assert.Equal(t, "trip deleted", got.Notice.Message)
}

func TestScheduleService_Delete_NotFound(t *testing.T) {
	f := fixtureFleet()
	f.deleteTrip = func(context.Context, int64) error {
		return &fleetapi.APIError{Status: 404, Message: "not found"}
	}
	svc := newScheduleService(f)

	_, err := svc.Delete(context.Background(), 2)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestScheduleService_SetStatus(t *testing.T) {
	f := fixtureFleet()
	var gotStatus domain.TripStatus
	f.setTripStatus = func(_ context.Context, _ int64, s domain.TripStatus) error {
		gotStatus = s
		return nil
	}
	svc := newScheduleService(f)

	_, err := svc.SetStatus(context.Background(), 1, domain.StatusCancelled)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, gotStatus)
}

func TestScheduleService_SetStatus_Unknown(t *testing.T) {
	f := fixtureFleet()
	svc := newScheduleService(f)

	_, err := svc.SetStatus(context.Background(), 1, "all")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestScheduleService_Refresh_RefetchesReferences(t *testing.T) {
	f := fixtureFleet()
	svc := newScheduleService(f)

	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Refresh(context.Background()))
	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), f.vehicleCalls.Load())
}
