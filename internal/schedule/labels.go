package schedule

import (
	"strconv"
	"strings"

	"github.com/transsync/schedule-api/internal/domain"
)

// Placeholder prefixes used when a foreign key does not resolve.
const (
	vehiclePrefix = "Veh"
	driverPrefix  = "Cond"
	routePrefix   = "Ruta"
	noLabel       = "-"
)

// VehicleLabel resolves the vehicle display label of t.
// Order: label embedded by the server, then a lookup in vehicles,
// then "Veh#<id>", then "-" when the trip has no vehicle at all.
func VehicleLabel(t domain.Trip, vehicles []domain.Vehicle) string {
	if t.Embedded.Vehicle != "" {
		return t.Embedded.Vehicle
	}
	if t.VehicleID == 0 {
		return noLabel
	}
	for _, v := range vehicles {
		if v.ID == t.VehicleID {
			if label := vehicleLabel(v); label != "" {
				return label
			}
			break
		}
	}
	return placeholder(vehiclePrefix, t.VehicleID)
}

// DriverLabel resolves the driver display label of t. See VehicleLabel.
func DriverLabel(t domain.Trip, drivers []domain.Driver) string {
	if t.Embedded.Driver != "" {
		return t.Embedded.Driver
	}
	if t.DriverID == 0 {
		return noLabel
	}
	for _, d := range drivers {
		if d.ID == t.DriverID {
			if label := driverLabel(d); label != "" {
				return label
			}
			break
		}
	}
	return placeholder(driverPrefix, t.DriverID)
}

// RouteLabel resolves the route display label of t. See VehicleLabel.
func RouteLabel(t domain.Trip, routes []domain.Route) string {
	if t.Embedded.Route != "" {
		return t.Embedded.Route
	}
	if t.RouteID == 0 {
		return noLabel
	}
	for _, r := range routes {
		if r.ID == t.RouteID {
			if label := routeLabel(r); label != "" {
				return label
			}
			break
		}
	}
	return placeholder(routePrefix, t.RouteID)
}

func vehicleLabel(v domain.Vehicle) string {
	desc := strings.TrimSpace(v.Brand + " " + v.Model)
	switch {
	case v.Plate != "" && desc != "":
		return v.Plate + " (" + desc + ")"
	case v.Plate != "":
		return v.Plate
	default:
		return desc
	}
}

func driverLabel(d domain.Driver) string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

func routeLabel(r domain.Route) string {
	if r.Name != "" {
		return r.Name
	}
	if r.Origin != "" && r.Destination != "" {
		return r.Origin + " - " + r.Destination
	}
	return ""
}

func placeholder(prefix string, id int64) string {
	return prefix + "#" + strconv.FormatInt(id, 10)
}
