package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	httpapi "github.com/i474232898/meteo-forecast-service/internal/api/http"
	"github.com/i474232898/meteo-forecast-service/internal/config"
	"github.com/i474232898/meteo-forecast-service/internal/scheduler"
	"github.com/i474232898/meteo-forecast-service/internal/store"
	"github.com/i474232898/meteo-forecast-service/internal/weather"
	"github.com/i474232898/meteo-forecast-service/internal/weather/meteomatics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Sqlite record store, opened once and shared by ingestion and queries.
	recordStore, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer recordStore.Close()

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source := meteomatics.NewClient(httpClient, cfg.MeteoUsername, cfg.MeteoPassword)

	ingestor := weather.NewIngestor(source, recordStore, cfg.Locations, weather.IngestOptions{
		Days:         cfg.ForecastDays,
		FetchTimeout: cfg.HTTPTimeout,
		SnapshotPath: cfg.SnapshotPath,
	})

	// Populate the store before serving any traffic. Per-location fetch
	// failures are non-fatal; only a store failure aborts startup.
	ingestCtx, cancelIngest := context.WithTimeout(context.Background(), 5*time.Minute)
	if err := ingestor.Run(ingestCtx); err != nil {
		cancelIngest()
		log.Fatalf("initial ingestion failed: %v", err)
	}
	cancelIngest()

	if cfg.CSVExportPath != "" {
		if err := exportCSV(recordStore, cfg.CSVExportPath); err != nil {
			log.Printf("ERROR: csv export failed: %v", err)
		}
	}

	// Optional background re-ingestion.
	if cfg.FetchInterval > 0 {
		sched := scheduler.New(ingestor, cfg.FetchInterval)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	service := weather.NewService(recordStore)

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "meteo-forecast-service",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "meteo-forecast-service",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, service)

	// Start server with graceful shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func exportCSV(recordStore *store.Store, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := recordStore.ExportCSV(ctx, f); err != nil {
		f.Close()
		return err
	}
	log.Printf("exported weather table to %s", path)
	return f.Close()
}
