package domain

import "time"

// Collection names used as keys in Snapshot.Errors and in cache keys.
const (
	CollectionTrips    = "trips"
	CollectionVehicles = "vehicles"
	CollectionDrivers  = "drivers"
	CollectionRoutes   = "routes"
)

// Snapshot is the result of loading the four schedule collections.
// Any collection may be empty because its load failed; the reason is in Errors.
type Snapshot struct {
	Trips    []Trip
	Vehicles []Vehicle
	Drivers  []Driver
	Routes   []Route

	// Errors maps a collection name to a user-facing failure message.
	Errors map[string]string
}

// ScheduleRow is a trip with every label resolved for display.
type ScheduleRow struct {
	Trip             Trip   `json:"trip"`
	VehicleLabel     string `json:"vehicle_label"`
	DriverLabel      string `json:"driver_label"`
	RouteLabel       string `json:"route_label"`
	DepartureDisplay string `json:"departure_display"`
	ArrivalDisplay   string `json:"arrival_display,omitempty"`
	DepartureInput   string `json:"departure_input"`
	ArrivalInput     string `json:"arrival_input,omitempty"`
}

// ScheduleFilter narrows the schedule view.
// Status is a literal TripStatus, StatusAll, or empty (same as StatusAll).
type ScheduleFilter struct {
	Query  string
	Status string
}

// NoticeKind is the style of a transient banner.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient banner the client shows after a mutation and
// clears after ClearAfter.
type Notice struct {
	Kind       NoticeKind    `json:"kind"`
	Message    string        `json:"message"`
	ClearAfter time.Duration `json:"-"`
}

// MutationResult is returned by every trip mutation: the affected trip (if any),
// the refreshed trip list, non-blocking warnings, and a banner.
type MutationResult struct {
	Trip     *Trip
	Trips    []Trip
	Warnings []string
	Notice   Notice
}

// ScheduleView is one page of reconciled, filtered rows plus everything the
// schedule screen needs around it.
type ScheduleView struct {
	Rows       []ScheduleRow
	Total      int // rows matching the filter, across all pages
	Pagination PaginationParams
	Vehicles   []Vehicle
	Drivers    []Driver
	Routes     []Route
	Errors     map[string]string
}

// ScheduleExport is the full filtered schedule at a point in time.
type ScheduleExport struct {
	GeneratedAt time.Time
	Filter      ScheduleFilter
	Rows        []ScheduleRow
	Errors      map[string]string
}

// Option is one entry of a form select: a foreign key and its label.
type Option struct {
	Value int64  `json:"value"`
	Label string `json:"label"`
}
