// @title           ACTREC Telephone Directory API
// @version         1.0
// @description     Staff telephone directory with bulk contact ingestion and linked login accounts

// @BasePath  /api

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Enter the token with the `Bearer ` prefix
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"actrec-directory/internal/app/routes"
	"actrec-directory/internal/domain/services"
	"actrec-directory/internal/domain/services/container"
	"actrec-directory/internal/infrastructure/config"
	"actrec-directory/internal/infrastructure/database"
	"actrec-directory/internal/infrastructure/store"
	Logger "actrec-directory/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; the environment may already be set
	envErr := godotenv.Load()

	cfg := config.GetConfig()

	logger, err := Logger.NewLogger(cfg.LogLevel, cfg.LogFormat, "actrec-directory")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("no .env file loaded", zap.Error(envErr))
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if cfg.EnvType == "SERVER" {
		gin.SetMode(gin.ReleaseMode)
	}

	pool, err := database.NewConnectionPool(cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	db := pool.GetDB()

	if err := database.Migrate(db, cfg, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	var publisher services.InterfaceEventPublisher
	if cfg.MQTTEnabled() {
		mqttPublisher, err := services.NewMQTTEventPublisher(cfg, logger)
		if err != nil {
			logger.Warn("MQTT unavailable, change events disabled", zap.Error(err))
		} else {
			publisher = mqttPublisher
		}
	}

	directoryStore := store.NewGormStore(db)
	serviceContainer := container.NewServiceContainer(container.Options{
		Store:     directoryStore,
		DB:        db,
		Config:    cfg,
		Redis:     redisClient,
		Publisher: publisher,
		Logger:    logger,
	})
	defer serviceContainer.Close()

	credentials := serviceContainer.GetService("credential").(services.InterfaceCredentialService)
	created, err := services.EnsureAdminExists(context.Background(), directoryStore, credentials, cfg, logger)
	if err != nil {
		return fmt.Errorf("bootstrap administrator: %w", err)
	}
	if created != nil {
		logger.Warn("generated bootstrap administrator password; store it now, it is not shown again",
			zap.String("email", created.Email), zap.String("password", created.Password))
	}

	printSystemInfo(pool, logger)

	server := &http.Server{
		Addr:              "0.0.0.0:" + cfg.ServerPort,
		Handler:           routes.SetupRouter(serviceContainer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func printSystemInfo(pool *database.ConnectionPool, logger *zap.Logger) {
	if stats, err := pool.Stats(); err == nil {
		logger.Info("database pool", zap.Any("stats", stats))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	logger.Info("runtime",
		zap.Int("cpus", runtime.NumCPU()),
		zap.Int("goroutines", runtime.NumGoroutine()),
		zap.Uint64("alloc_mib", m.Alloc/1024/1024),
		zap.Uint64("sys_mib", m.Sys/1024/1024))
}
