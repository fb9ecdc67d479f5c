// Package service contains the business logic of the schedule console.
// Services validate inputs, enforce business rules, and orchestrate calls to
// the upstream API, the reference cache, and the session repo.
// No HTTP or SQL lives here; services depend on interfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/transsync/schedule-api/internal/cache"
	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/fleetapi"
	"github.com/transsync/schedule-api/internal/schedule"
)

// Fleet is the subset of the upstream API the schedule depends on.
// *fleetapi.Client satisfies it.
type Fleet interface {
	ListTrips(ctx context.Context) ([]domain.Trip, error)
	GetTrip(ctx context.Context, id int64) (domain.Trip, error)
	CreateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	UpdateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	DeleteTrip(ctx context.Context, id int64) error
	SetTripStatus(ctx context.Context, id int64, status domain.TripStatus) error
	ListVehicles(ctx context.Context) ([]domain.Vehicle, error)
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	ListRoutes(ctx context.Context) ([]domain.Route, error)
}

var _ Fleet = (*fleetapi.Client)(nil)

// ScheduleOptions tunes a ScheduleService. Zero values fall back to defaults.
type ScheduleOptions struct {
	// CacheTTL is how long reference collections stay cached. Default 30s.
	CacheTTL time.Duration
	// NoticeDelay is how long the client shows a banner. Default 3s.
	NoticeDelay time.Duration
	// Location is the zone the naive upstream timestamps are expressed in.
	// Default time.Local.
	Location *time.Location
	// Now returns the current instant. Default time.Now.
	Now func() time.Time
}

// ScheduleService implements the schedule view: loading, reconciliation,
// filtering, and validated trip mutations.
type ScheduleService struct {
	fleet Fleet
	store cache.Store
	opts  ScheduleOptions
	log   *slog.Logger
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(fleet Fleet, store cache.Store, opts ScheduleOptions, log *slog.Logger) *ScheduleService {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.NoticeDelay <= 0 {
		opts.NoticeDelay = 3 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ScheduleService{fleet: fleet, store: store, opts: opts, log: log}
}

// Load fetches the four collections concurrently and returns whatever
// arrived. A failed collection is left empty and its user-facing message is
// recorded in Snapshot.Errors; Load itself only fails when ctx is done.
func (s *ScheduleService) Load(ctx context.Context) (domain.Snapshot, error) {
	l, err := s.load(ctx)
	return l.snap, err
}

// loaded is a snapshot plus the raw trips error, if any.
type loaded struct {
	snap     domain.Snapshot
	tripsErr error
}

func (s *ScheduleService) load(ctx context.Context) (loaded, error) {
	var (
		snap     domain.Snapshot
		tripsErr error
		mu       sync.Mutex
		g        errgroup.Group
	)
	snap.Errors = map[string]string{}

	record := func(collection string, err error) {
		s.log.WarnContext(ctx, "schedule collection failed to load", "collection", collection, "error", err)
		mu.Lock()
		snap.Errors[collection] = userMessage(collection, err)
		mu.Unlock()
	}

	g.Go(func() error {
		trips, err := s.fleet.ListTrips(ctx)
		if err != nil {
			tripsErr = err
			record(domain.CollectionTrips, err)
			return nil
		}
		snap.Trips = trips
		return nil
	})
	s.loadReferences(ctx, &g, &snap, record)
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return loaded{}, fmt.Errorf("service.ScheduleService.Load: %w", err)
	}
	return loaded{snap: snap, tripsErr: tripsErr}, nil
}

// loadReferences schedules the three reference fetches on g.
// Each goroutine writes a distinct field of snap.
func (s *ScheduleService) loadReferences(ctx context.Context, g *errgroup.Group, snap *domain.Snapshot, record func(string, error)) {
	g.Go(func() error {
		v, err := cache.ReadThrough(ctx, s.store, s.log, cache.Key(domain.CollectionVehicles), s.opts.CacheTTL, s.fleet.ListVehicles)
		if err != nil {
			record(domain.CollectionVehicles, err)
			return nil
		}
		snap.Vehicles = v
		return nil
	})
	g.Go(func() error {
		d, err := cache.ReadThrough(ctx, s.store, s.log, cache.Key(domain.CollectionDrivers), s.opts.CacheTTL, s.fleet.ListDrivers)
		if err != nil {
			record(domain.CollectionDrivers, err)
			return nil
		}
		snap.Drivers = d
		return nil
	})
	g.Go(func() error {
		r, err := cache.ReadThrough(ctx, s.store, s.log, cache.Key(domain.CollectionRoutes), s.opts.CacheTTL, s.fleet.ListRoutes)
		if err != nil {
			record(domain.CollectionRoutes, err)
			return nil
		}
		snap.Routes = r
		return nil
	})
}

// references loads only vehicles, drivers, and routes.
func (s *ScheduleService) references(ctx context.Context) domain.Snapshot {
	var (
		snap domain.Snapshot
		mu   sync.Mutex
		g    errgroup.Group
	)
	snap.Errors = map[string]string{}
	s.loadReferences(ctx, &g, &snap, func(collection string, err error) {
		s.log.WarnContext(ctx, "reference collection failed to load", "collection", collection, "error", err)
		mu.Lock()
		snap.Errors[collection] = userMessage(collection, err)
		mu.Unlock()
	})
	_ = g.Wait()
	return snap
}

// View loads, reconciles, filters, and paginates the schedule.
// A trips failure caused by an expired upstream session is returned as
// domain.ErrUnauthorized so the client can sign in again; every other
// failure is reported through ScheduleView.Errors.
func (s *ScheduleService) View(ctx context.Context, f domain.ScheduleFilter, p domain.PaginationParams) (domain.ScheduleView, error) {
	l, err := s.load(ctx)
	if err != nil {
		return domain.ScheduleView{}, err
	}
	if errors.Is(l.tripsErr, domain.ErrUnauthorized) {
		return domain.ScheduleView{}, fmt.Errorf("service.ScheduleService.View: %w", l.tripsErr)
	}
	snap := l.snap

	rows := schedule.Filter(schedule.Reconcile(snap), f)
	return domain.ScheduleView{
		Rows:       domain.Paginate(rows, p),
		Total:      len(rows),
		Pagination: p,
		Vehicles:   nonNil(snap.Vehicles),
		Drivers:    nonNil(snap.Drivers),
		Routes:     nonNil(snap.Routes),
		Errors:     snap.Errors,
	}, nil
}

// Refresh drops the cached reference collections so the next load refetches
// them from the upstream.
func (s *ScheduleService) Refresh(ctx context.Context) error {
	if err := cache.Invalidate(ctx, s.store, domain.CollectionVehicles, domain.CollectionDrivers, domain.CollectionRoutes); err != nil {
		return fmt.Errorf("service.ScheduleService.Refresh: %w", err)
	}
	return nil
}

// Rows returns every reconciled row matching f, unpaginated.
func (s *ScheduleService) Rows(ctx context.Context, f domain.ScheduleFilter) ([]domain.ScheduleRow, map[string]string, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return schedule.Filter(schedule.Reconcile(snap), f), snap.Errors, nil
}

// Get returns one trip resolved for the edit form.
func (s *ScheduleService) Get(ctx context.Context, id int64) (domain.ScheduleRow, error) {
	trip, err := s.fleet.GetTrip(ctx, id)
	if err != nil {
		return domain.ScheduleRow{}, fmt.Errorf("service.ScheduleService.Get: %w", err)
	}
	return schedule.Row(trip, s.references(ctx)), nil
}

// Create validates in and submits it as a new trip.
// A departure in the past is reported as a warning, not an error.
// Returns domain.ErrValidation without contacting the upstream when the
// input itself is invalid.
func (s *ScheduleService) Create(ctx context.Context, in domain.TripInput) (domain.MutationResult, error) {
	trip, warnings, err := s.prepare(ctx, in, true)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Create: %w", err)
	}
	created, err := s.fleet.CreateTrip(ctx, trip)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Create: %w", err)
	}
	return s.afterMutation(ctx, &created, warnings, "trip created"), nil
}

// Update validates in and overwrites trip id.
func (s *ScheduleService) Update(ctx context.Context, id int64, in domain.TripInput) (domain.MutationResult, error) {
	if id <= 0 {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Update: %w: trip id is required", domain.ErrValidation)
	}
	trip, warnings, err := s.prepare(ctx, in, false)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Update: %w", err)
	}
	trip.ID = id
	updated, err := s.fleet.UpdateTrip(ctx, trip)
	if err != nil {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Update: %w", err)
	}
	return s.afterMutation(ctx, &updated, warnings, "trip updated"), nil
}

// Delete removes trip id upstream.
func (s *ScheduleService) Delete(ctx context.Context, id int64) (domain.MutationResult, error) {
	if id <= 0 {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Delete: %w: trip id is required", domain.ErrValidation)
	}
	if err := s.fleet.DeleteTrip(ctx, id); err != nil {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.Delete: %w", err)
	}
	return s.afterMutation(ctx, nil, nil, "trip deleted"), nil
}

// SetStatus changes the status of trip id. Any known status may follow any
// other; transitions are owned by the upstream.
func (s *ScheduleService) SetStatus(ctx context.Context, id int64, status domain.TripStatus) (domain.MutationResult, error) {
	if id <= 0 {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.SetStatus: %w: trip id is required", domain.ErrValidation)
	}
	if !status.Valid() {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.SetStatus: %w: unknown status %q", domain.ErrValidation, status)
	}
	if err := s.fleet.SetTripStatus(ctx, id, status); err != nil {
		return domain.MutationResult{}, fmt.Errorf("service.ScheduleService.SetStatus: %w", err)
	}
	return s.afterMutation(ctx, nil, nil, "trip status updated"), nil
}

// prepare validates the input fields, then checks the references against
// the loaded collections, and returns the trip to submit.
func (s *ScheduleService) prepare(ctx context.Context, in domain.TripInput, isNew bool) (domain.Trip, []string, error) {
	departure, err := validateInput(in)
	if err != nil {
		return domain.Trip{}, nil, err
	}
	if err := checkReferences(in, s.references(ctx)); err != nil {
		return domain.Trip{}, nil, err
	}

	var warnings []string
	if isNew && !departure.After(s.wallClockNow()) {
		warnings = append(warnings, "departure is in the past")
	}

	status := in.Status
	if status == "" {
		status = domain.StatusScheduled
	}
	trip := domain.Trip{
		VehicleID: in.VehicleID,
		DriverID:  in.DriverID,
		RouteID:   in.RouteID,
		Departure: schedule.ToWireFormat(schedule.ToInputValue(in.Departure)),
		Status:    status,
		Note:      strings.TrimSpace(in.Note),
	}
	if strings.TrimSpace(in.Arrival) != "" {
		trip.Arrival = schedule.ToWireFormat(schedule.ToInputValue(in.Arrival))
	}
	return trip, warnings, nil
}

// wallClockNow returns the current wall-clock time in the upstream zone,
// expressed the same naive way as parsed timestamps.
func (s *ScheduleService) wallClockNow() time.Time {
	n := s.opts.Now().In(s.opts.Location)
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC)
}

// afterMutation refetches the trips and builds the success banner.
// A failed refresh does not undo the mutation; it becomes a warning.
func (s *ScheduleService) afterMutation(ctx context.Context, trip *domain.Trip, warnings []string, message string) domain.MutationResult {
	result := domain.MutationResult{Trip: trip, Warnings: warnings}

	trips, err := s.fleet.ListTrips(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "schedule refresh after mutation failed", "error", err)
		result.Warnings = append(result.Warnings, "the schedule could not be refreshed; reload to see the latest trips")
	} else {
		result.Trips = trips
	}

	kind := domain.NoticeSuccess
	if len(result.Warnings) > 0 {
		kind = domain.NoticeWarning
		message += ": " + strings.Join(result.Warnings, "; ")
	}
	result.Notice = domain.Notice{Kind: kind, Message: message, ClearAfter: s.opts.NoticeDelay}
	return result
}

// validateInput enforces the field rules that need no upstream data:
//   - departure is required and must parse;
//   - vehicle, driver, and route are required;
//   - arrival, if set, must parse and be strictly after departure;
//   - status, if set, must be a known code.
func validateInput(in domain.TripInput) (time.Time, error) {
	if strings.TrimSpace(in.Departure) == "" {
		return time.Time{}, fmt.Errorf("%w: departure is required", domain.ErrValidation)
	}
	departure, ok := schedule.ParseTimestamp(in.Departure)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: departure is not a valid date and time", domain.ErrValidation)
	}
	if in.VehicleID <= 0 {
		return time.Time{}, fmt.Errorf("%w: vehicle is required", domain.ErrValidation)
	}
	if in.DriverID <= 0 {
		return time.Time{}, fmt.Errorf("%w: driver is required", domain.ErrValidation)
	}
	if in.RouteID <= 0 {
		return time.Time{}, fmt.Errorf("%w: route is required", domain.ErrValidation)
	}
	if strings.TrimSpace(in.Arrival) != "" {
		arrival, ok := schedule.ParseTimestamp(in.Arrival)
		if !ok {
			return time.Time{}, fmt.Errorf("%w: arrival is not a valid date and time", domain.ErrValidation)
		}
		if !arrival.After(departure) {
			return time.Time{}, fmt.Errorf("%w: arrival must be after departure", domain.ErrValidation)
		}
	}
	if in.Status != "" && !in.Status.Valid() {
		return time.Time{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, in.Status)
	}
	return departure, nil
}

// checkReferences requires each foreign key to be present in its loaded
// collection. A collection that failed to load cannot vouch for anything.
func checkReferences(in domain.TripInput, refs domain.Snapshot) error {
	if msg, failed := refs.Errors[domain.CollectionVehicles]; failed {
		return fmt.Errorf("%w: vehicles could not be loaded (%s); retry before saving", domain.ErrValidation, msg)
	}
	if msg, failed := refs.Errors[domain.CollectionDrivers]; failed {
		return fmt.Errorf("%w: drivers could not be loaded (%s); retry before saving", domain.ErrValidation, msg)
	}
	if msg, failed := refs.Errors[domain.CollectionRoutes]; failed {
		return fmt.Errorf("%w: routes could not be loaded (%s); retry before saving", domain.ErrValidation, msg)
	}
	if !containsID(refs.Vehicles, in.VehicleID, func(v domain.Vehicle) int64 { return v.ID }) {
		return fmt.Errorf("%w: vehicle %d is not in the fleet", domain.ErrValidation, in.VehicleID)
	}
	if !containsID(refs.Drivers, in.DriverID, func(d domain.Driver) int64 { return d.ID }) {
		return fmt.Errorf("%w: driver %d is not registered", domain.ErrValidation, in.DriverID)
	}
	if !containsID(refs.Routes, in.RouteID, func(r domain.Route) int64 { return r.ID }) {
		return fmt.Errorf("%w: route %d does not exist", domain.ErrValidation, in.RouteID)
	}
	return nil
}

func containsID[T any](items []T, id int64, idOf func(T) int64) bool {
	for _, item := range items {
		if idOf(item) == id {
			return true
		}
	}
	return false
}

// userMessage turns a load failure into the copy shown next to the table.
func userMessage(collection string, err error) string {
	var apiErr *fleetapi.APIError
	switch {
	case errors.Is(err, domain.ErrUnreachable):
		return "could not reach the TransSync server; check your connection and retry"
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return "the server took too long to answer; retry"
	default:
		return "could not load " + collection
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
