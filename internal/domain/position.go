package domain

import "time"

// Position is one telemetry sample for a vehicle.
type Position struct {
	VehicleID  int64     `json:"vehicle_id"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Speed      float64   `json:"speed"`
	RecordedAt time.Time `json:"recorded_at"`
}
