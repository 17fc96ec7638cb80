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
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/mapexplorer/internal/adapters/gemini"
	"github.com/samirrijal/mapexplorer/internal/adapters/gmaps"
	"github.com/samirrijal/mapexplorer/internal/adapters/http"
	natsadapter "github.com/samirrijal/mapexplorer/internal/adapters/nats"
	"github.com/samirrijal/mapexplorer/internal/adapters/valkey"
	"github.com/samirrijal/mapexplorer/internal/core/ports"
	"github.com/samirrijal/mapexplorer/internal/core/usecases"
	"github.com/samirrijal/mapexplorer/internal/pkg/config"
	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
	"github.com/samirrijal/mapexplorer/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapexplorer-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(os.Stdout, cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

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

	// Generative model
	model, err := gemini.New(ctx, cfg.Model.APIKey, cfg.Model.Name)
	if err != nil {
		log.Fatalf("model: %v", err)
	}

	deps := &http.Dependencies{
		QueryTimeout: time.Duration(cfg.Server.QueryTimeout) * time.Second,
	}

	// Cache (query replay). Optional: queries always go to the model without it.
	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			defer c.Close()
			cache = c
			deps.Cache = c
		}
	}

	// NATS (live event bus). Optional: SSE streams work without it.
	var publisher ports.EventPublisher
	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.MaxAge)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer pub.Close()
			publisher = pub
			deps.NATS = pub.Conn()
			deps.Events = natsadapter.NewSubscriber(pub.Conn())
		}
	}

	// Static map snapshots
	if cfg.Maps.APIKey != "" {
		renderer, err := gmaps.New(cfg.Maps.APIKey, cfg.Maps.SnapshotWidth, cfg.Maps.SnapshotHeight)
		if err != nil {
			slog.Warn("map snapshots disabled", "error", err)
		} else {
			deps.Renderer = renderer
		}
	}

	// Use cases
	deps.Sessions = usecases.NewSessionService(cfg.Session.MaxSessions, cfg.Session.IdleTTL)
	deps.Explorer = usecases.NewExploreService(deps.Sessions, model, publisher, cache, cfg.Model.Temperature, cfg.Valkey.ReplayTTL)
	deps.Exports = usecases.NewExportService(deps.Sessions)

	if cfg.Session.IdleTTL > 0 {
		go deps.Sessions.RunJanitor(ctx, cfg.Session.SweepInterval)
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Map Explorer API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "model", cfg.Model.Name)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
