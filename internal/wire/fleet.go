package wire

import (
	"strings"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/schedule"
)

// Candidate field names, most canonical first.
var (
	tripIDFields    = []string{"idViaje", "id_viaje", "viajeId", "id"}
	vehicleIDFields = []string{"idVehiculo", "id_vehiculo", "vehiculoId"}
	driverIDFields  = []string{"idConductor", "id_conductor", "conductorId"}
	routeIDFields   = []string{"idRuta", "id_ruta", "rutaId"}

	// A reference record may also carry its own key as a bare "id"; the
	// select-options endpoint uses "value".
	vehicleRecordIDFields = []string{"idVehiculo", "id_vehiculo", "vehiculoId", "id"}
	driverRecordIDFields  = []string{"idConductor", "id_conductor", "conductorId", "id"}
	routeRecordIDFields   = []string{"idRuta", "id_ruta", "rutaId", "id", "value"}

	embeddedVehicleFields = []string{"plaVehiculo", "placaVehiculo", "vehiculo"}
	embeddedDriverFields  = []string{"nomConductorCompleto", "conductor"}
	embeddedRouteFields   = []string{"nomRuta", "nombreRuta", "ruta"}

	departureFields = []string{"fecHorSalViaje", "fecha_salida", "fechaSalida"}
	arrivalFields   = []string{"fecHorLleViaje", "fecha_llegada", "fechaLlegada"}
	statusFields    = []string{"estViaje", "estado"}
	noteFields      = []string{"obsViaje", "observaciones"}

	plateFields  = []string{"plaVehiculo", "placa", "placaVehiculo"}
	brandFields  = []string{"marVehiculo", "marca"}
	modelFields  = []string{"modVehiculo", "modelo"}
	numberFields = []string{"numVehiculo", "numeroInterno", "numero_interno"}

	firstNameFields = []string{"nomConductor", "nombre"}
	lastNameFields  = []string{"apeConductor", "apellido"}

	routeNameFields   = []string{"nomRuta", "nombreRuta", "nombre", "label"}
	originFields      = []string{"oriRuta", "origen"}
	destinationFields = []string{"desRuta", "destino"}
)

// Trip maps an upstream trip record. Embedded display labels are captured
// when the server denormalized them; nested objects ("vehiculo": {...})
// count as embedded too.
func Trip(r Record) domain.Trip {
	t := domain.Trip{
		ID:        r.ID(tripIDFields...),
		VehicleID: r.ID(vehicleIDFields...),
		DriverID:  r.ID(driverIDFields...),
		RouteID:   r.ID(routeIDFields...),
		Departure: timestamp(r.String(departureFields...)),
		Arrival:   timestamp(r.String(arrivalFields...)),
		Status:    domain.TripStatus(strings.ToUpper(r.String(statusFields...))),
		Note:      r.String(noteFields...),
	}
	t.Embedded = domain.EmbeddedLabels{
		Vehicle: r.String(embeddedVehicleFields...),
		Driver:  r.String(embeddedDriverFields...),
		Route:   r.String(embeddedRouteFields...),
	}
	if t.Embedded.Driver == "" {
		t.Embedded.Driver = joinNonEmpty(" ", r.String(firstNameFields...), r.String(lastNameFields...))
	}

	if nested := r.Object("vehiculo", "vehicle"); nested != nil {
		v := Vehicle(nested)
		if t.VehicleID == 0 {
			t.VehicleID = v.ID
		}
		if t.Embedded.Vehicle == "" {
			t.Embedded.Vehicle = v.Plate
		}
	}
	if nested := r.Object("conductor", "driver"); nested != nil {
		d := Driver(nested)
		if t.DriverID == 0 {
			t.DriverID = d.ID
		}
		if t.Embedded.Driver == "" {
			t.Embedded.Driver = joinNonEmpty(" ", d.FirstName, d.LastName)
		}
	}
	if nested := r.Object("ruta", "route"); nested != nil {
		rt := Route(nested)
		if t.RouteID == 0 {
			t.RouteID = rt.ID
		}
		if t.Embedded.Route == "" {
			t.Embedded.Route = rt.Name
		}
	}
	return t
}

// Vehicle maps an upstream vehicle record.
func Vehicle(r Record) domain.Vehicle {
	return domain.Vehicle{
		ID:     r.ID(vehicleRecordIDFields...),
		Plate:  r.String(plateFields...),
		Brand:  r.String(brandFields...),
		Model:  r.String(modelFields...),
		Number: r.String(numberFields...),
	}
}

// Driver maps an upstream driver record.
func Driver(r Record) domain.Driver {
	return domain.Driver{
		ID:        r.ID(driverRecordIDFields...),
		FirstName: r.String(firstNameFields...),
		LastName:  r.String(lastNameFields...),
	}
}

// Route maps an upstream route record, including the {value, label}
// shape returned by the select-options endpoint.
func Route(r Record) domain.Route {
	return domain.Route{
		ID:          r.ID(routeRecordIDFields...),
		Name:        r.String(routeNameFields...),
		Origin:      r.String(originFields...),
		Destination: r.String(destinationFields...),
	}
}

// Trips maps every record in a list response.
func Trips(records []Record) []domain.Trip {
	out := make([]domain.Trip, 0, len(records))
	for _, r := range records {
		out = append(out, Trip(r))
	}
	return out
}

// Vehicles maps every record in a list response.
func Vehicles(records []Record) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, len(records))
	for _, r := range records {
		out = append(out, Vehicle(r))
	}
	return out
}

// Drivers maps every record in a list response.
func Drivers(records []Record) []domain.Driver {
	out := make([]domain.Driver, 0, len(records))
	for _, r := range records {
		out = append(out, Driver(r))
	}
	return out
}

// Routes maps every record in a list response.
func Routes(records []Record) []domain.Route {
	out := make([]domain.Route, 0, len(records))
	for _, r := range records {
		out = append(out, Route(r))
	}
	return out
}

// EncodeTrip renders a trip with the canonical upstream field names.
// An empty arrival is sent as null so the server clears it.
func EncodeTrip(t domain.Trip) map[string]any {
	body := map[string]any{
		"idVehiculo":     t.VehicleID,
		"idConductor":    t.DriverID,
		"idRuta":         t.RouteID,
		"fecHorSalViaje": t.Departure,
		"fecHorLleViaje": nil,
		"estViaje":       string(t.Status),
		"obsViaje":       t.Note,
	}
	if t.Arrival != "" {
		body["fecHorLleViaje"] = t.Arrival
	}
	return body
}

// timestamp normalizes any parseable upstream timestamp to the wire format
// and passes anything else through untouched for display fallback.
func timestamp(raw string) string {
	if ts, ok := schedule.ParseTimestamp(raw); ok {
		return schedule.FormatWire(ts)
	}
	return raw
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
