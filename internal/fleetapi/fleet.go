package fleetapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/wire"
)

// ListVehicles calls GET /api/vehiculos.
func (c *Client) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	records, err := c.list(ctx, "/api/vehiculos")
	if err != nil {
		return nil, fmt.Errorf("fleetapi.Client.ListVehicles: %w", err)
	}
	return wire.Vehicles(records), nil
}

// ListDrivers calls GET /api/conductores.
func (c *Client) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	records, err := c.list(ctx, "/api/conductores")
	if err != nil {
		return nil, fmt.Errorf("fleetapi.Client.ListDrivers: %w", err)
	}
	return wire.Drivers(records), nil
}

// ListRoutes calls GET /api/rutas/utils/select, the lightweight route list
// used to populate selects.
func (c *Client) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	records, err := c.list(ctx, "/api/rutas/utils/select")
	if err != nil {
		return nil, fmt.Errorf("fleetapi.Client.ListRoutes: %w", err)
	}
	return wire.Routes(records), nil
}

func (c *Client) list(ctx context.Context, path string) ([]wire.Record, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return wire.DecodeList(body)
}
