// Command api serves the emergency alert dispatch API.
//
// @title EMS Dispatch API
// @version 1.0
// @description Emergency alert intake, lifecycle and realtime dispatch.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pratik-mahalle/emsdispatch/internal/api/handlers"
	"github.com/pratik-mahalle/emsdispatch/internal/api/middleware"
	"github.com/pratik-mahalle/emsdispatch/internal/api/router"
	"github.com/pratik-mahalle/emsdispatch/internal/config"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/alert"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/notification"
	"github.com/pratik-mahalle/emsdispatch/internal/integrations"
	"github.com/pratik-mahalle/emsdispatch/internal/pkg/logger"
	"github.com/pratik-mahalle/emsdispatch/internal/realtime"
	"github.com/pratik-mahalle/emsdispatch/internal/repository/postgres"
	"github.com/pratik-mahalle/emsdispatch/internal/repository/redis"
	"github.com/pratik-mahalle/emsdispatch/internal/services"
	"github.com/pratik-mahalle/emsdispatch/internal/worker"
	"github.com/pratik-mahalle/emsdispatch/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})

	if err := run(cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	db, dialect, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.RunMigrations(db, dialect, migrations.GetFS())
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	alertRepo := postgres.NewAlertRepository(db, dialect)
	archiveRepo := postgres.NewArchiveRepository(db, dialect)
	userRepo := postgres.NewUserRepository(db, dialect)
	notificationRepo := postgres.NewNotificationRepository(db, dialect)

	// Staff push tokens, optionally cached in Redis.
	var tokens notification.TokenSource = services.NewStaffTokenSource(userRepo)
	var invalidator services.TokenCacheInvalidator
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		cache := redis.NewStaffTokenCache(redisClient, tokens, cfg.Redis.TokenCacheTTL, log.WithComponent("token-cache"))
		tokens = cache
		invalidator = cache
	}

	var gateway notification.Gateway
	if cfg.Push.Endpoint != "" {
		gateway = integrations.NewHTTPPushGateway(cfg.Push.Endpoint, cfg.Push.ServerKey, cfg.Push.AndroidTag, cfg.Push.Timeout)
	} else {
		log.Warn("PUSH_ENDPOINT not set, push notifications will only be logged")
		gateway = integrations.NewLogGateway(log.WithComponent("push"))
	}

	dispatcher := services.NewNotificationService(gateway, tokens, notificationRepo, services.NotificationConfig{
		QueueSize: cfg.Push.QueueSize,
		Workers:   cfg.Push.Workers,
		Timeout:   cfg.Push.Timeout,
	}, log)
	dispatcher.Start()
	defer dispatcher.Stop()

	bus := realtime.NewBus(cfg.Realtime.SubscriberBuffer, log.WithComponent("realtime-bus"))
	tracker := services.NewPresenceTracker(bus, log)

	alertService := services.NewAlertService(
		alertRepo, archiveRepo, userRepo, bus, dispatcher,
		alert.ArchivalPolicy{ArchiveCancelled: cfg.Lifecycle.ArchiveCancelled},
		log.WithComponent("alerts"),
	)
	userService := services.NewUserService(userRepo, invalidator, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reconciler := worker.NewArchiveReconciler(alertService.Archiver(), cfg.Worker.ReconcileSchedule, log)
	if err := reconciler.Start(ctx); err != nil {
		return err
	}
	defer reconciler.Stop()

	val := services.NewAlertValidator()
	verifier := middleware.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	var health *handlers.HealthHandler
	if redisClient != nil {
		health = handlers.NewHealthHandler(db, redisClient, log)
	} else {
		health = handlers.NewHealthHandler(db, nil, log)
	}

	h := &router.Handlers{
		Health:   health,
		Alert:    handlers.NewAlertHandler(alertService, log, val),
		Archive:  handlers.NewArchiveHandler(alertService, log),
		Presence: handlers.NewPresenceHandler(tracker),
		User:     handlers.NewUserHandler(userService, log, val),
		Realtime: handlers.NewRealtimeHandler(bus, tracker, cfg.Realtime, middleware.AllowedOrigins(cfg.Server.FrontendURL), log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, verifier, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	// Realtime sessions end with the server; they are not tracked by Shutdown.
	srv.RegisterOnShutdown(bus.CloseAll)

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
		}).Info("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("Server stopped")
	return nil
}
