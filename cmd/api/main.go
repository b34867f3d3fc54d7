package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/dlathrop/geoscout/internal/adapters/http"
	natsadapter "github.com/dlathrop/geoscout/internal/adapters/nats"
	"github.com/dlathrop/geoscout/internal/adapters/nominatim"
	"github.com/dlathrop/geoscout/internal/adapters/osrm"
	"github.com/dlathrop/geoscout/internal/adapters/overpass"
	"github.com/dlathrop/geoscout/internal/adapters/valkey"
	"github.com/dlathrop/geoscout/internal/core/ports"
	"github.com/dlathrop/geoscout/internal/core/usecases"
	"github.com/dlathrop/geoscout/internal/pkg/config"
	"github.com/dlathrop/geoscout/internal/pkg/logging"
	"github.com/dlathrop/geoscout/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("geoscout-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache. The nil interface keeps the services on their no-cache path
	// when Valkey is down.
	var cacheSvc ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		cacheSvc = cache
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	}

	// Providers
	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	placesProvider := overpass.New(cfg.Providers.OverpassURL, cfg.Providers.UserAgent, timeout)
	routingProvider := osrm.New(cfg.Providers.OSRMURL, cfg.Providers.UserAgent, timeout)
	geocodingProvider := nominatim.New(cfg.Providers.NominatimURL, cfg.Providers.UserAgent, timeout)

	// Use cases
	locatorSvc := usecases.NewLocatorService(placesProvider, cacheSvc)
	plannerSvc := usecases.NewPlannerService(routingProvider, cacheSvc)
	geocodeSvc := usecases.NewGeocodeService(geocodingProvider, cacheSvc)
	sessionSvc := usecases.NewSessionService(locatorSvc, plannerSvc, publisher)

	deps := &http.Dependencies{
		Locator:  locatorSvc,
		Planner:  plannerSvc,
		Geocoder: geocodeSvc,
		Sessions: sessionSvc,
		Map:      cfg.Map,
		NATS:     natsConn,
		Cache:    cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "GeoScout API",
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
