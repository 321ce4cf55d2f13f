package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"casedocs/internal/config"
	"casedocs/internal/database"
	"casedocs/internal/database/migration"
	handlers "casedocs/internal/http/handler"
	"casedocs/internal/http/middleware"
	"casedocs/internal/ingest"
	"casedocs/internal/otel"
	"casedocs/internal/repository/postgres"
	"casedocs/internal/service"
	"casedocs/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	// Initialize tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Local ingestion service owns the per-case upload directories
	ingester := ingest.New(ingest.Config{
		Root:        cfg.Storage.UploadDir,
		MaxFileSize: cfg.Storage.MaxFileSize,
	})

	// Optional off-site archive (S3-compatible)
	var archiver storage.ObjectStore
	if cfg.Archive.Enabled {
		archiver, err = storage.NewMinIOArchive(cfg.Archive)
		if err != nil {
			log.Fatalf("failed to initialize archive storage: %v", err)
		}
	}

	docRepo := postgres.NewDocumentPostgres(db)
	docSvc := service.NewDocumentService(ingester, docRepo, archiver)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Storage.MaxFileSize) + 1024*1024, // let oversize uploads reach the size check
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	registry := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, docSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
