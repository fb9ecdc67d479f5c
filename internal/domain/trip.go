// Package domain contains the core data types for the TransSync schedule console.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (wire, schedule, fleetapi, repo, service, handler).
package domain

// TripStatus is the server-defined lifecycle label of a trip.
// The console treats it as opaque: any status may be set from any other.
type TripStatus string

const (
	StatusScheduled TripStatus = "PROGRAMADO"
	StatusInRoute   TripStatus = "EN_CURSO"
	StatusFinished  TripStatus = "FINALIZADO"
	StatusCancelled TripStatus = "CANCELADO"
)

// StatusAll is the filter wildcard. It is never a valid trip status.
const StatusAll = "all"

// TripStatuses lists every known status in display order.
var TripStatuses = []TripStatus{StatusScheduled, StatusInRoute, StatusFinished, StatusCancelled}

// Valid reports whether s is one of the four known status codes.
func (s TripStatus) Valid() bool {
	for _, known := range TripStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Trip is a scheduled movement of a vehicle along a route with an assigned driver.
//
// Departure and Arrival hold the upstream wire format ("2006-01-02 15:04:05")
// as naive local timestamps. Arrival is empty when not yet known.
// Foreign keys are zero when the upstream record did not carry them.
type Trip struct {
	ID        int64      `json:"id"`
	VehicleID int64      `json:"vehicle_id,omitempty"`
	DriverID  int64      `json:"driver_id,omitempty"`
	RouteID   int64      `json:"route_id,omitempty"`
	Departure string     `json:"departure"`
	Arrival   string     `json:"arrival,omitempty"`
	Status    TripStatus `json:"status"`
	Note      string     `json:"note,omitempty"`

	// Embedded holds display fields the upstream denormalized onto the trip.
	Embedded EmbeddedLabels `json:"-"`
}

// EmbeddedLabels are related-entity display strings joined by the server.
// Empty strings mean the server did not include that label.
type EmbeddedLabels struct {
	Vehicle string
	Driver  string
	Route   string
}

// TripInput is the form payload for creating or updating a trip.
// Departure and Arrival use the input-control format ("2006-01-02T15:04").
type TripInput struct {
	VehicleID int64      `json:"vehicle_id"`
	DriverID  int64      `json:"driver_id"`
	RouteID   int64      `json:"route_id"`
	Departure string     `json:"departure"`
	Arrival   string     `json:"arrival,omitempty"`
	Status    TripStatus `json:"status,omitempty"`
	Note      string     `json:"note,omitempty"`
}
