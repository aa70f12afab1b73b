package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/scratch-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const (
	startupTimeout      = 30 * time.Second
	logCleanupInterval  = 24 * time.Hour
	shutdownGracePeriod = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Structured logging (JSON to stdout) before config is known
		logging.Setup("info").Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	stdout := logging.Setup(cfg.LogLevel)

	collector := metrics.NewCollector("scratch")

	// Database
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	db, err := database.New(ctx, cfg.Mongo,
		database.WithObserver(collector),
		database.WithDatabaseName(cfg.DatabaseName()),
	)
	if err != nil {
		cancel()
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := db.EnsureIndexes(ctx, database.IndexPlan()); err != nil {
		cancel()
		slog.Error("index provisioning failed", "error", err)
		os.Exit(1)
	}
	cancel()

	// Mongo log handler (ERROR+ async batch). The store logs its own failures
	// to stdout only.
	logStore := repository.NewSystemLogStore(db, repository.WithLogger(stdout))
	storeHandler := logging.NewStoreHandler(logStore, stdout, logging.WithLevel(slog.LevelError))
	logging.Setup(cfg.LogLevel, storeHandler)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(logStore, cfg.LogRetention, logCleanupInterval, stdout, cleanupDone)

	// Services
	stores := repository.NewStores(db)
	moderationService := services.NewModerationService(stores)
	notificationService := services.NewNotificationService(stores, cfg.NotificationTTL)
	authService := services.NewAuthService(db, stores, cfg)
	userService := services.NewUserService(db, stores, notificationService)
	postService := services.NewPostService(db, stores, moderationService, notificationService)
	scratchService := services.NewScratchService(db, stores, moderationService, notificationService)
	playlistService := services.NewPlaylistService(db, stores)
	// No external catalog is wired yet; imports answer 503 until one is.
	catalogService := services.NewCatalogService(db, stores, nil)

	// Handlers
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Health:       handlers.NewHealthHandler(db),
		Moderation:   handlers.NewModerationHandler(moderationService),
		User:         handlers.NewUserHandler(userService),
		Post:         handlers.NewPostHandler(postService),
		Scratch:      handlers.NewScratchHandler(scratchService),
		Playlist:     handlers.NewPlaylistHandler(playlistService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Album:        handlers.NewAlbumHandler(catalogService),
		Admin:        handlers.NewAdminHandler(catalogService, logStore),
	}

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())
	app.Use(collector.Middleware())

	routes.Setup(app, cfg, stores.Users, collector, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(shutdownGracePeriod); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	storeHandler.Stop()
	sentry.Flush(2 * time.Second)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer closeCancel()
	if err := db.Close(closeCtx); err != nil {
		stdout.Error("database close error", "error", err)
	}

	stdout.Info("server stopped")
}
