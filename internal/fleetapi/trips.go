package fleetapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/wire"
)

func tripPath(id int64) string {
	return "/api/viajes/" + strconv.FormatInt(id, 10)
}

// ListTrips calls GET /api/viajes.
func (c *Client) ListTrips(ctx context.Context) ([]domain.Trip, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/viajes", nil)
	if err != nil {
		return nil, fmt.Errorf("fleetapi.Client.ListTrips: %w", err)
	}
	records, err := wire.DecodeList(body)
	if err != nil {
		return nil, fmt.Errorf("fleetapi.Client.ListTrips: %w", err)
	}
	return wire.Trips(records), nil
}

// GetTrip calls GET /api/viajes/:id.
func (c *Client) GetTrip(ctx context.Context, id int64) (domain.Trip, error) {
	body, err := c.do(ctx, http.MethodGet, tripPath(id), nil)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("fleetapi.Client.GetTrip: %w", err)
	}
	rec, err := wire.DecodeOne(body)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("fleetapi.Client.GetTrip: %w", err)
	}
	return wire.Trip(rec), nil
}

// CreateTrip calls POST /api/viajes. When the server answers with only an
// acknowledgement ({"message": ..., "idViaje": 5}) the submitted trip is
// returned with the new ID.
func (c *Client) CreateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/viajes", wire.EncodeTrip(trip))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("fleetapi.Client.CreateTrip: %w", err)
	}
	return echoed(body, trip), nil
}

// UpdateTrip calls PUT /api/viajes/:id.
func (c *Client) UpdateTrip(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	body, err := c.do(ctx, http.MethodPut, tripPath(trip.ID), wire.EncodeTrip(trip))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("fleetapi.Client.UpdateTrip: %w", err)
	}
	return echoed(body, trip), nil
}

// DeleteTrip calls DELETE /api/viajes/:id.
func (c *Client) DeleteTrip(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, tripPath(id), nil); err != nil {
		return fmt.Errorf("fleetapi.Client.DeleteTrip: %w", err)
	}
	return nil
}

// SetTripStatus calls PATCH /api/viajes/:id/estado.
func (c *Client) SetTripStatus(ctx context.Context, id int64, status domain.TripStatus) error {
	payload := map[string]string{"estViaje": string(status)}
	if _, err := c.do(ctx, http.MethodPatch, tripPath(id)+"/estado", payload); err != nil {
		return fmt.Errorf("fleetapi.Client.SetTripStatus: %w", err)
	}
	return nil
}

// echoed decodes a mutation response, falling back to the submitted trip
// when the body is empty or carries no trip fields.
func echoed(body []byte, sent domain.Trip) domain.Trip {
	rec, err := wire.DecodeOne(body)
	if err != nil {
		return sent
	}
	got := wire.Trip(rec)
	if got.Departure == "" {
		id := got.ID
		got = sent
		if id != 0 {
			got.ID = id
		} else if insertID := rec.ID("insertId"); insertID != 0 {
			got.ID = insertID
		}
	}
	return got
}
