package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/cbt-service/internal/config"
	"github.com/SAP-F-2025/cbt-service/internal/events"
	"github.com/SAP-F-2025/cbt-service/internal/handlers"
	"github.com/SAP-F-2025/cbt-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/cbt-service/internal/services"
	"github.com/SAP-F-2025/cbt-service/internal/utils"
	"github.com/SAP-F-2025/cbt-service/internal/validator"
	"github.com/SAP-F-2025/cbt-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if cfg.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Redis only backs read caches; run without it when unreachable.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, caching disabled", "error", err)
			redisClient = nil
		}
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:            db,
		RedisClient:   redisClient,
		CasdoorConfig: cfg.Casdoor,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	bus, err := events.NewBus(events.BusConfig{
		KafkaBrokers:  cfg.KafkaBrokers,
		ConsumerGroup: cfg.KafkaGroup,
	}, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditConsumer, err := events.NewAuditConsumer(bus, repo.AuditLog(), slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize audit consumer: %v", err)
	}
	go func() {
		if err := auditConsumer.Run(ctx); err != nil {
			logger.Error("Audit consumer stopped", "error", err)
		}
	}()
	<-auditConsumer.Running()

	publisher := events.NewWatermillPublisher(bus.Publisher, events.AuditTopic, slogLogger)

	serviceManager := services.NewServiceManager(db, repo, slogLogger, validator.New(), publisher, services.ServiceManagerConfig{
		Auth:    cfg.Auth,
		Casdoor: cfg.Casdoor,
		Exam:    cfg.Exam,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	if err := serviceManager.Auth().EnsureBootstrapAdmin(ctx); err != nil {
		log.Fatalf("Failed to seed bootstrap admin: %v", err)
	}

	go serviceManager.Attempt().RunSweeper(ctx, cfg.Exam.SweepInterval)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	handlers.SetupMiddleware(router, logger)
	handlers.NewHandlerManager(serviceManager, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "event_transport", bus.Transport())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	if err := auditConsumer.Close(); err != nil {
		logger.Error("Failed to close audit consumer", "error", err)
	}
	if err := bus.Close(); err != nil {
		logger.Error("Failed to close event bus", "error", err)
	}
	if err := repoManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	logger.Info("Server exited")
}
