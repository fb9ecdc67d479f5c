// Package main is the entry point for the TransSync schedule console API.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/transsync/schedule-api/internal/cache"
	"github.com/transsync/schedule-api/internal/config"
	"github.com/transsync/schedule-api/internal/fleetapi"
	"github.com/transsync/schedule-api/internal/handler"
	"github.com/transsync/schedule-api/internal/middleware"
	"github.com/transsync/schedule-api/internal/repo"
	"github.com/transsync/schedule-api/internal/service"
	"github.com/transsync/schedule-api/internal/telemetry"
	"github.com/transsync/schedule-api/migrations"
)

// sweepInterval is how often expired console sessions are purged.
const sweepInterval = 10 * time.Minute

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Background work (telemetry, session sweeping) stops when ctx is cancelled.
	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// --- Database ---------------------------------------------------------
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	// goose drives database/sql, so borrow a *sql.DB view of the same pool.
	sqlDB := stdlib.OpenDBFromPool(pool)
	applied, err := migrations.Up(ctx, sqlDB)
	sqlDB.Close()
	if err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("migrations applied", "count", applied)

	// --- Reference cache --------------------------------------------------
	var store cache.Store
	if cfg.RedisURL != "" {
		redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisStore.Close()
		store = redisStore
		slog.Info("reference cache: redis")
	} else {
		store = cache.NewMemoryStore(time.Minute)
		slog.Info("reference cache: in-process")
	}

	// --- Services ---------------------------------------------------------
	fleet := fleetapi.New(cfg.FleetAPIURL, cfg.FleetAPITimeout, logger)

	scheduleSvc := service.NewScheduleService(fleet, store, service.ScheduleOptions{
		CacheTTL:    cfg.CacheTTL,
		NoticeDelay: cfg.NoticeDelay,
		Location:    cfg.Location,
	}, logger)
	sessionSvc := service.NewSessionService(repo.NewSessionRepo(pool), fleet, cfg.SessionTTL, logger)
	exportSvc := service.NewExportService(scheduleSvc)

	// --- Telemetry --------------------------------------------------------
	var source telemetry.Source
	if cfg.AMQPURL != "" {
		source = telemetry.NewAMQPSource(cfg.AMQPURL, logger)
		slog.Info("telemetry source: amqp")
	} else {
		source = telemetry.NewSimulator(cfg.TelemetryVehicles, cfg.TelemetryInterval, uint64(time.Now().UnixNano()))
		slog.Info("telemetry source: simulator", "vehicles", cfg.TelemetryVehicles)
	}
	hub := telemetry.NewHub(logger)
	go func() {
		// Run only fails when the source cannot subscribe at all (a malformed
		// AMQP_URL); an unreachable broker is retried inside the source.
		if err := hub.Run(ctx, source); err != nil {
			slog.Error("failed to start telemetry", "error", err)
			os.Exit(1)
		}
	}()

	go sweepSessions(ctx, sessionSvc)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(1 << 20))

	server := handler.NewServer(scheduleSvc, sessionSvc, exportSvc, hub, fleet, cfg.CORSOrigins, logger)
	r.Mount("/", server.Handler())

	// --- HTTP Server ------------------------------------------------------
	// WriteTimeout covers the PDF export; websocket connections manage their
	// own deadlines once hijacked.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	// Ending the telemetry feed closes every position stream; Shutdown does
	// not wait for hijacked websocket connections.
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// sweepSessions purges expired console sessions until ctx is done.
func sweepSessions(ctx context.Context, sessions *service.SessionService) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.Sweep(ctx)
			if err != nil {
				slog.WarnContext(ctx, "session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}
