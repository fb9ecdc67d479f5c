package schedule

import "github.com/transsync/schedule-api/internal/domain"

// VehicleOptions lists vehicles as form select entries, labelled the same
// way the table labels them.
func VehicleOptions(vehicles []domain.Vehicle) []domain.Option {
	return options(vehicles, vehiclePrefix, func(v domain.Vehicle) (int64, string) { return v.ID, vehicleLabel(v) })
}

// DriverOptions lists drivers as form select entries.
func DriverOptions(drivers []domain.Driver) []domain.Option {
	return options(drivers, driverPrefix, func(d domain.Driver) (int64, string) { return d.ID, driverLabel(d) })
}

// RouteOptions lists routes as form select entries.
func RouteOptions(routes []domain.Route) []domain.Option {
	return options(routes, routePrefix, func(r domain.Route) (int64, string) { return r.ID, routeLabel(r) })
}

// options skips entries without an id; an entry without a label gets the
// placeholder.
func options[T any](items []T, prefix string, describe func(T) (int64, string)) []domain.Option {
	out := make([]domain.Option, 0, len(items))
	for _, item := range items {
		id, label := describe(item)
		if id <= 0 {
			continue
		}
		if label == "" {
			label = placeholder(prefix, id)
		}
		out = append(out, domain.Option{Value: id, Label: label})
	}
	return out
}
