package schedule

import (
	"strings"

	"github.com/transsync/schedule-api/internal/domain"
)

// Row resolves every label and timestamp representation of t against snap.
func Row(t domain.Trip, snap domain.Snapshot) domain.ScheduleRow {
	row := domain.ScheduleRow{
		Trip:             t,
		VehicleLabel:     VehicleLabel(t, snap.Vehicles),
		DriverLabel:      DriverLabel(t, snap.Drivers),
		RouteLabel:       RouteLabel(t, snap.Routes),
		DepartureDisplay: ToDisplay(t.Departure),
		DepartureInput:   ToInputValue(t.Departure),
	}
	if t.Arrival != "" {
		row.ArrivalDisplay = ToDisplay(t.Arrival)
		row.ArrivalInput = ToInputValue(t.Arrival)
	}
	return row
}

// Reconcile resolves every trip in snap, in collection order.
func Reconcile(snap domain.Snapshot) []domain.ScheduleRow {
	rows := make([]domain.ScheduleRow, 0, len(snap.Trips))
	for _, t := range snap.Trips {
		rows = append(rows, Row(t, snap))
	}
	return rows
}

// Matches reports whether row passes the free-text query and status filter.
// The query is matched case-insensitively against the concatenated route,
// driver, and vehicle labels. An empty query matches everything; an empty
// status or domain.StatusAll matches every status.
func Matches(row domain.ScheduleRow, f domain.ScheduleFilter) bool {
	if f.Status != "" && f.Status != domain.StatusAll && string(row.Trip.Status) != f.Status {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	haystack := strings.ToLower(row.RouteLabel + " " + row.DriverLabel + " " + row.VehicleLabel)
	return strings.Contains(haystack, q)
}

// Filter keeps the rows that match f, preserving order.
func Filter(rows []domain.ScheduleRow, f domain.ScheduleFilter) []domain.ScheduleRow {
	out := make([]domain.ScheduleRow, 0, len(rows))
	for _, r := range rows {
		if Matches(r, f) {
			out = append(out, r)
		}
	}
	return out
}
