package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/estatecrm/internal/bootstrap"
	"anoa.com/estatecrm/internal/config"
	"anoa.com/estatecrm/internal/server"
	"anoa.com/estatecrm/pkg/database"
	"anoa.com/estatecrm/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	zap.ReplaceGlobals(zapLogger)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("database unavailable", zap.Error(err))
	}
	if err := bootstrap.Migrate(db); err != nil {
		zapLogger.Fatal("migration failed", zap.Error(err))
	}

	redisClient := connectRedis(cfg.RedisURL, zapLogger)

	srv, err := server.NewServer(cfg, db, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize server", zap.Error(err))
	}
	srv.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		zapLogger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server exited with error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("http shutdown failed", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("background shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}

// connectRedis returns nil when Redis is not configured or unreachable; the
// service then runs without pub/sub and with an in-process sweep lock.
func connectRedis(url string, log *zap.Logger) *redis.Client {
	if url == "" {
		log.Info("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("invalid REDIS_URL, running without redis", zap.Error(err))
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, running without redis", zap.Error(err))
		_ = client.Close()
		return nil
	}
	return client
}
