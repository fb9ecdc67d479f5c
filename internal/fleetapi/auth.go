package fleetapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/transsync/schedule-api/internal/domain"
	"github.com/transsync/schedule-api/internal/wire"
)

// Login calls POST /api/auth/login and returns the bearer token and user profile.
func (c *Client) Login(ctx context.Context, email, password string) (string, domain.UserProfile, error) {
	payload := map[string]string{"email": email, "password": password}
	body, err := c.do(ctx, http.MethodPost, "/api/auth/login", payload)
	if err != nil {
		return "", domain.UserProfile{}, fmt.Errorf("fleetapi.Client.Login: %w", err)
	}
	rec, err := wire.DecodeOne(body)
	if err != nil {
		return "", domain.UserProfile{}, fmt.Errorf("fleetapi.Client.Login: %w", err)
	}
	token, user := wire.LoginResponse(rec)
	if token == "" {
		return "", domain.UserProfile{}, fmt.Errorf("fleetapi.Client.Login: response carried no token: %w", domain.ErrUnauthorized)
	}
	return token, user, nil
}

// Logout calls POST /api/auth/logout with the token in ctx.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil); err != nil {
		return fmt.Errorf("fleetapi.Client.Logout: %w", err)
	}
	return nil
}
