package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"docuvault/internal/access"
	"docuvault/internal/backup"
	"docuvault/internal/config"
	"docuvault/internal/database"
	"docuvault/internal/database/migration"
	handlers "docuvault/internal/http/handler"
	"docuvault/internal/http/middleware"
	"docuvault/internal/otel"
	"docuvault/internal/repository/postgres"
	"docuvault/internal/service"
	"docuvault/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	loc := time.Local
	if tz := os.Getenv("APP_TIMEZONE"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			logger.Fatal("invalid APP_TIMEZONE", zap.String("tz", tz), zap.Error(err))
		}
		loc = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry tracing (no-op when OTEL_SDK_DISABLED=true)
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// Initialize local document storage rooted at the upload directory
	files, err := storage.NewLocal(cfg.Upload.Dir)
	if err != nil {
		logger.Fatal("failed to initialize file storage", zap.Error(err))
	}
	handlers.CleanupStaleTempFiles(cfg.Upload.TempDir)

	// Repositories
	customerRepo := postgres.NewCustomerPostgres(db)
	documentRepo := postgres.NewDocumentPostgres(db)
	typeRepo := postgres.NewDocumentTypePostgres(db)
	userRepo := postgres.NewUserPostgres(db)
	settingsRepo := postgres.NewSettingsPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)

	resolver := access.NewResolver(customerRepo)
	audit := service.NewAuditRecorder(auditRepo, logger)

	// Services
	customerSvc := service.NewCustomerService(customerRepo, documentRepo, settingsRepo, files, resolver, audit, logger)
	documentSvc := service.NewDocumentService(documentRepo, customerRepo, typeRepo, files, resolver, audit, logger)
	typeSvc := service.NewDocumentTypeService(typeRepo, documentRepo, audit)
	userSvc := service.NewUserService(userRepo, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMin)*time.Minute, audit)
	portalSvc := service.NewPortalService(customerRepo, userRepo, audit)

	// Optional cloud replica for backup archives
	var replica backup.Replica
	if cfg.MinIO.Enabled {
		replica, err = backup.NewMinIOReplica(cfg.MinIO)
		if err != nil {
			logger.Fatal("failed to initialize backup replica", zap.Error(err))
		}
	}
	engine := backup.NewEngine(settingsRepo, backup.NewExporter(db), cfg.Upload.Dir, cfg.Backup.StagingDir, replica, audit, logger)
	if cfg.Backup.IntervalHours > 0 {
		go engine.RunScheduled(ctx, time.Duration(cfg.Backup.IntervalHours)*time.Hour)
	}

	api := handlers.NewAPI(db, customerSvc, documentSvc, typeSvc, userSvc, portalSvc, engine, settingsRepo, auditRepo, cfg.Upload)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// Leave headroom above the enforced per-file limit so oversized
		// uploads reach the handler and get a proper JSON error.
		BodyLimit: int(cfg.Upload.MaxSizeBytes) + 1024*1024,
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, api, middleware.Auth(cfg.Auth.JWTSecret, userRepo))

	addr := ":" + cfg.Port

	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", addr))

	<-ctx.Done()
	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown did not complete cleanly", zap.Error(err))
	}
}
