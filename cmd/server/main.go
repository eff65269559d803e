// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/replenish/internal/api"
	"github.com/andresuchdata/replenish/internal/cache"
	"github.com/andresuchdata/replenish/internal/config"
	"github.com/andresuchdata/replenish/internal/repository"
	"github.com/andresuchdata/replenish/internal/repository/postgres"
	"github.com/andresuchdata/replenish/internal/service"
	"github.com/andresuchdata/replenish/internal/storage"
	"github.com/andresuchdata/replenish/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetFormat(cfg.Log.Format)
	if cfg.Log.Level != "" {
		logger.SetLevel(cfg.Log.Level)
	} else {
		logger.SetLevel(cfg.Server.Mode)
	}
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	store, err := storage.New(ctx, cfg.Sources)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("kind", cfg.Sources.Kind).Msg("Failed to initialize sources")
	}

	var baselines repository.BaselineRepository = repository.NewFileBaselineRepository(store, cfg.Sources.BaselineKey)
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()
		baselines, err = prepareBaselineStore(ctx, postgres.NewBaselineRepository(db))
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to prepare baselines table")
		}
	}
	forecasts := repository.NewFileForecastRepository(store, cfg.Sources.ForecastKey)

	resultCache, err := cache.NewReplenishmentCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, continuing without cache")
		resultCache = cache.NewNoopReplenishmentCache()
	}

	// Initialize services
	replenishment := service.NewReplenishmentService(baselines, forecasts, resultCache, cfg.Policy, cfg.Simulation)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{ReplenishmentService: replenishment}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("sources", cfg.Sources.Kind).
			Bool("database", cfg.Database.Enabled).
			Bool("cache", cfg.Cache.Enabled).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

// schemaBaselineStore is a baseline store that owns its table.
type schemaBaselineStore interface {
	repository.BaselineRepository
	EnsureSchema(ctx context.Context) error
}

// prepareBaselineStore creates the backing table on a fresh database before
// the store serves lookups.
func prepareBaselineStore(ctx context.Context, store schemaBaselineStore) (repository.BaselineRepository, error) {
	if err := store.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store, nil
}
