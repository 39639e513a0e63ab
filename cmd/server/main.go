package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/agristat/internal/config"
	"github.com/stwalsh4118/agristat/internal/database"
	"github.com/stwalsh4118/agristat/internal/handlers"
	"github.com/stwalsh4118/agristat/internal/location"
	"github.com/stwalsh4118/agristat/internal/logger"
	"github.com/stwalsh4118/agristat/internal/middleware"
	"github.com/stwalsh4118/agristat/internal/provider"
	"github.com/stwalsh4118/agristat/internal/repository"
	"github.com/stwalsh4118/agristat/internal/services"
	"github.com/stwalsh4118/agristat/internal/store"
)

const (
	shutdownTimeout = 30 * time.Second
	loadTimeout     = 2 * time.Minute
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log, err := logger.NewWithLevel(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		log.Warn("Ignoring LOG_LEVEL", map[string]interface{}{
			"log_level": cfg.Server.LogLevel,
			"error":     err.Error(),
		})
	}
	log.Info("Starting agristat API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
		"data_mode":   cfg.Data.Mode,
	})

	hierarchy := location.Default()
	if cfg.Data.LocationsFile != "" {
		hierarchy, err = location.LoadFile(cfg.Data.LocationsFile)
		if err != nil {
			log.Fatal("Failed to load locations file", err, map[string]interface{}{
				"path": cfg.Data.LocationsFile,
			})
		}
		log.Info("Locations loaded", map[string]interface{}{
			"path":     cfg.Data.LocationsFile,
			"counties": len(hierarchy.Counties()),
		})
	}

	p, db, err := newProvider(context.Background(), cfg, hierarchy, log)
	if err != nil {
		log.Fatal("Failed to configure data source", err, map[string]interface{}{
			"mode": cfg.Data.Mode,
		})
	}
	if db != nil {
		defer db.Close()
	}

	// Load once; handlers only ever read the result
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), loadTimeout)
	st := store.New(loadCtx, p, log)
	cancelLoad()

	recordService := services.NewRecordService(st, log)

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	var pinger handlers.Pinger
	if db != nil {
		pinger = db
	}
	healthHandler := handlers.NewHealthHandler(st, pinger, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)

	api := router.Group("/api")
	api.GET("/info", healthHandler.Info)

	recordsHandler := handlers.NewRecordsHandler(recordService, hierarchy)
	recordsHandler.RegisterRoutes(api)

	// Everything else is the frontend, or a JSON 404 under /api
	router.NoRoute(handlers.NewStaticHandler(cfg.Server.StaticDir).NoRoute)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port":       cfg.Server.Port,
			"addr":       srv.Addr,
			"static_dir": cfg.Server.StaticDir,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}

// newProvider builds the data provider for the configured mode. In postgres
// mode it also returns the open pool so readiness checks can ping it; a
// failed connection becomes an unavailable provider rather than an error.
func newProvider(ctx context.Context, cfg *config.Config, hierarchy *location.Hierarchy, log *logger.Logger) (provider.DataProvider, *database.Database, error) {
	switch cfg.Data.Mode {
	case provider.ModeSynthetic:
		return provider.NewSynthetic(provider.SyntheticOptions{
			Seed:        cfg.Data.Seed,
			Farmers:     cfg.Data.Farmers,
			Crops:       cfg.Data.Crops,
			Livestock:   cfg.Data.Livestock,
			Aquaculture: cfg.Data.Aquaculture,
			MaxAcreage:  cfg.Data.MaxAcreage,
			Hierarchy:   hierarchy,
		}), nil, nil

	case provider.ModeFile:
		return provider.NewFile(cfg.Data.Dir, cfg.Data.Format), nil, nil

	case provider.ModePostgres:
		db, err := database.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Error("Failed to connect to database", err, map[string]interface{}{
				"host": cfg.Database.Host,
				"port": cfg.Database.Port,
				"name": cfg.Database.Name,
			})
			return provider.NewUnavailable(provider.ModePostgres, err), nil, nil
		}

		log.Info("Database connection established", map[string]interface{}{
			"host":     cfg.Database.Host,
			"port":     cfg.Database.Port,
			"database": cfg.Database.Name,
			"pool_min": cfg.Database.PoolMin,
			"pool_max": cfg.Database.PoolMax,
		})
		return provider.NewPostgres(repository.NewRecordRepository(db)), db, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", provider.ErrUnknownMode, cfg.Data.Mode)
	}
}
