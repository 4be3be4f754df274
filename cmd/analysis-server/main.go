// cmd/analysis-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crisis-atlas/internal/agents"
	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/database"
	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/common/observability"
	"crisis-atlas/internal/countrydata"
	"crisis-atlas/internal/fallback"
	"crisis-atlas/internal/gdelt"
	"crisis-atlas/internal/llm"
	"crisis-atlas/internal/pipeline"
	"crisis-atlas/internal/server"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New("info", "console")
		fallbackLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting analysis server...",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Redis with retry (optional: context cache degrades without it) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init PostgreSQL with retry (optional: country-data endpoint 503s without it) ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Host != "" {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Warn("postgres unavailable, country data disabled", zap.Error(err))
			pg = nil
		} else {
			defer pg.Close()
			zapLog.Info("PostgreSQL connected successfully")
		}
	}

	var cacheClient *redis.Client
	if redisClient != nil {
		cacheClient = redisClient.Client
	}

	// --- Assemble the pipeline ---
	gdeltClient := gdelt.NewClient(&cfg.GDELT, cacheClient, log)
	llmClient := llm.NewHTTPClient(&cfg.LLM, log)
	runner := agents.NewRunner(llmClient, &cfg.LLM, log)
	orchestrator := pipeline.New(runner, gdeltClient, &cfg.Pipeline, obs, log)

	var replayer *fallback.Replayer
	if cfg.Fallback.Enabled {
		replayer, err = fallback.NewReplayer(log)
		if err != nil {
			zapLog.Fatal("fallback fixtures failed to load", zap.Error(err))
		}
		replayer.SetDelays(
			config.GetDuration(cfg.Fallback.EventDelay),
			config.GetDuration(cfg.Fallback.ChunkDelay),
		)
		zapLog.Info("Fallback replay enabled")
	}

	var countries server.CountryStore
	if pg != nil {
		countries = countrydata.New(pg.DB, cacheClient, 10*time.Minute, log)
	}

	srv := server.New(orchestrator, replayer, countries, cfg, log)

	httpServer := &http.Server{
		Addr:        cfg.Server.Address,
		Handler:     srv.Routes(),
		ReadTimeout: config.GetDuration(cfg.Server.ReadTimeout),
		// No WriteTimeout: event streams stay open for the whole run.
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during shutdown", zap.Error(err))
	}

	zapLog.Info("Analysis server stopped gracefully")
}
