package wire

import (
	"time"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/schedule"
)

var (
	positionVehicleFields = []string{"idVehiculo", "vehicleId", "vehicle_id", "id_vehiculo"}
	latFields             = []string{"lat", "latitud", "latitude"}
	lngFields             = []string{"lng", "lon", "longitud", "longitude"}
	speedFields           = []string{"speed", "velocidad"}
	recordedAtFields      = []string{"recordedAt", "recorded_at", "fecha", "timestamp"}
)

// Position maps a telemetry message. ok is false when the message names no
// vehicle or carries no coordinates. A missing or unparseable timestamp
// becomes received.
func Position(r Record, received time.Time) (domain.Position, bool) {
	id := r.ID(positionVehicleFields...)
	lat, okLat := r.Float(latFields...)
	lng, okLng := r.Float(lngFields...)
	if id == 0 || !okLat || !okLng {
		return domain.Position{}, false
	}
	p := domain.Position{VehicleID: id, Lat: lat, Lng: lng, RecordedAt: received}
	if speed, ok := r.Float(speedFields...); ok {
		p.Speed = speed
	}
	if t, ok := schedule.ParseTimestamp(r.String(recordedAtFields...)); ok {
		p.RecordedAt = t
	}
	return p, true
}
