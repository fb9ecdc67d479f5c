// Package config loads and validates application configuration from
// environment variables and an optional .env file.
package config

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the API server.
// Values are populated by Load.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string for the session store. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// FleetAPIURL is the base URL of the upstream TransSync API. Required.
	// A trailing "/api" is accepted and stripped.
	FleetAPIURL string

	// FleetAPITimeout bounds every upstream request. Defaults to 10s.
	FleetAPITimeout time.Duration

	// RedisURL selects the shared reference cache. When empty an in-process
	// cache is used.
	RedisURL string

	// CacheTTL is how long vehicles, drivers, and routes stay cached. Defaults to 30s.
	CacheTTL time.Duration

	// AMQPURL is the RabbitMQ broker carrying vehicle telemetry. When empty a
	// simulated feed is used.
	AMQPURL string

	// TelemetryInterval is the simulated feed's tick. Defaults to 2s.
	TelemetryInterval time.Duration

	// TelemetryVehicles is how many vehicles the simulated feed moves. Defaults to 10.
	TelemetryVehicles int

	// SessionTTL is the longest a console session may live. Defaults to 12h.
	SessionTTL time.Duration

	// NoticeDelay is how long the client shows a mutation banner. Defaults to 3s.
	NoticeDelay time.Duration

	// Location is the zone the upstream's naive timestamps are expressed in.
	// Set TIMEZONE to an IANA name. Defaults to America/Bogota.
	Location *time.Location
}

// Load reads configuration from environment variables, falling back to a
// .env file in the working directory, and returns a Config.
// Returns an error listing every required variable that is not set and
// every value that does not parse.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("FLEET_API_TIMEOUT", "10s")
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("TELEMETRY_INTERVAL", "2s")
	v.SetDefault("TELEMETRY_VEHICLES", 10)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("NOTICE_DELAY", "3s")
	v.SetDefault("TIMEZONE", "America/Bogota")

	// A missing .env is normal; the environment alone is enough.
	_ = v.ReadInConfig()

	cfg := Config{
		Port:              v.GetString("PORT"),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		LogLevel:          v.GetString("LOG_LEVEL"),
		CORSOrigins:       splitCSV(v.GetString("CORS_ORIGINS")),
		FleetAPIURL:       strings.TrimSpace(v.GetString("FLEET_API_URL")),
		FleetAPITimeout:   v.GetDuration("FLEET_API_TIMEOUT"),
		RedisURL:          v.GetString("REDIS_URL"),
		CacheTTL:          v.GetDuration("CACHE_TTL"),
		AMQPURL:           v.GetString("AMQP_URL"),
		TelemetryInterval: v.GetDuration("TELEMETRY_INTERVAL"),
		TelemetryVehicles: v.GetInt("TELEMETRY_VEHICLES"),
		SessionTTL:        v.GetDuration("SESSION_TTL"),
		NoticeDelay:       v.GetDuration("NOTICE_DELAY"),
	}

	var missing, invalid []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.FleetAPIURL == "" {
		missing = append(missing, "FLEET_API_URL")
	}

	for key, d := range map[string]time.Duration{
		"FLEET_API_TIMEOUT":  cfg.FleetAPITimeout,
		"CACHE_TTL":          cfg.CacheTTL,
		"TELEMETRY_INTERVAL": cfg.TelemetryInterval,
		"SESSION_TTL":        cfg.SessionTTL,
		"NOTICE_DELAY":       cfg.NoticeDelay,
	} {
		if d <= 0 {
			invalid = append(invalid, key)
		}
	}
	if cfg.TelemetryVehicles < 0 {
		invalid = append(invalid, "TELEMETRY_VEHICLES")
	}
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		invalid = append(invalid, "TIMEZONE")
	}
	cfg.Location = loc

	var problems []string
	if len(missing) > 0 {
		problems = append(problems, "required environment variables not set: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		slices.Sort(invalid)
		problems = append(problems, "invalid values for: "+strings.Join(invalid, ", "))
	}
	if len(problems) > 0 {
		return Config{}, errors.New(strings.Join(problems, "; "))
	}

	return cfg, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
