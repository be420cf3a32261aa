package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/buildgrid/catalog-backend/internal/app"
	redisclient "github.com/buildgrid/catalog-backend/internal/clients/redis"
	"github.com/buildgrid/catalog-backend/internal/db"
	"github.com/buildgrid/catalog-backend/internal/handlers"
	"github.com/buildgrid/catalog-backend/internal/observability"
	"github.com/buildgrid/catalog-backend/internal/pkg/logger"
	"github.com/buildgrid/catalog-backend/internal/repos"
	"github.com/buildgrid/catalog-backend/internal/server"
	"github.com/buildgrid/catalog-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	log.Info("Loading configuration from main...")
	cfg := app.LoadConfig(log)

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOtel(ctx)
	}()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	componentRepo := repos.NewComponentRepo(thePG, log)
	taxonomyRepo := repos.NewTaxonomyRepo(thePG, log)

	// Cache (optional; resolution falls back to storage without it)
	var latestCache redisclient.LatestCache
	if cfg.CacheEnabled {
		latestCache, err = redisclient.NewLatestCache(log)
		if err != nil {
			log.Warn("Could not init LatestCache, resolving without cache", "error", err)
			latestCache = nil
		}
	}

	// Services
	log.Info("Setting up Services from main...")
	latestService := services.NewLatestService(thePG, log, componentRepo, latestCache)

	// Handlers
	log.Info("Setting up Handlers from main...")
	latestHandler := handlers.NewLatestHandler(latestService, taxonomyRepo)
	componentHandler := handlers.NewComponentHandler(componentRepo)

	// Router
	router := server.NewRouter(server.RouterConfig{
		ServiceName:      cfg.ServiceName,
		AllowOrigins:     cfg.AllowOrigins,
		LatestHandler:    latestHandler,
		ComponentHandler: componentHandler,
	})

	log.Info("Starting HTTP server", "addr", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
