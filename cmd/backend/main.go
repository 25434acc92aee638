// Package main provides the entry point for the LinkPulse URL shortener service.
package main

import (
	"LinkPulse-Backend/internal/auth"
	"LinkPulse-Backend/internal/cache"
	"LinkPulse-Backend/internal/clicks"
	"LinkPulse-Backend/internal/config"
	"LinkPulse-Backend/internal/database"
	"LinkPulse-Backend/internal/geo"
	httpHandler "LinkPulse-Backend/internal/handler/http"
	"LinkPulse-Backend/internal/repository/postgres"
	"LinkPulse-Backend/internal/service"
	"LinkPulse-Backend/pkg/logger"
	"LinkPulse-Backend/pkg/useragent"
	"context"
	lg "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)
	defer func() {
		if err := log.Sync(); err != nil {
			lg.Printf("ERROR: failed to sync zap logger: %v\n", err)
		}
	}()

	log.Info("starting LinkPulse service", zap.String("env", cfg.Env))

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations if enabled
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, log); err != nil {
			log.Fatal("failed to run database migrations", zap.Error(err))
		}
	} else {
		log.Info("skipping database migrations (auto_migrate: false)")
	}

	// Initialize Redis-backed caches
	redisClient := cache.NewRedisClient(&cfg.Redis, log)
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("failed to close redis connection", zap.Error(err))
		}
	}()
	cacheStore := cache.NewRedisStore(redisClient)
	linkCache := cache.NewLinkCache(cacheStore, log)
	analyticsCache := cache.NewAnalyticsCache(cacheStore, log)

	// Initialize GeoIP resolver (noop when no database is configured)
	geoResolver, err := geo.New(cfg.Geo.DBPath, log)
	if err != nil {
		log.Fatal("failed to open GeoIP database", zap.Error(err))
	}
	defer func() {
		if err := geoResolver.Close(); err != nil {
			log.Error("failed to close GeoIP database", zap.Error(err))
		}
	}()

	// Initialize User-Agent parser
	uaParser, err := useragent.New("assets/regexes.yaml", log)
	if err != nil {
		log.Fatal("failed to initialize User-Agent parser", zap.Error(err))
	}

	// Initialize storage, click pipeline and services
	storage := postgres.New(db, log)
	classifier := clicks.NewClassifier(storage)

	processorCfg := clicks.DefaultConfig()
	processorCfg.WorkerCount = cfg.Clicks.Workers
	processorCfg.BufferSize = cfg.Clicks.BufferSize
	processor := clicks.NewProcessor(storage, classifier, uaParser, geoResolver, log, processorCfg)
	if err := processor.Start(); err != nil {
		log.Fatal("failed to start click processor", zap.Error(err))
	}

	shortener := service.NewShortener(storage, linkCache, &cfg.URLShortener, log)
	resolver := service.NewResolver(storage, linkCache, log)
	analytics := service.NewAnalytics(storage, analyticsCache, cfg.URLShortener.BaseURL, log)

	// Initialize JWT service for authentication
	accessTTL, err := time.ParseDuration(cfg.Auth.AccessTokenTTL)
	if err != nil {
		log.Fatal("invalid access token TTL", zap.Error(err))
	}
	refreshTTL, err := time.ParseDuration(cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatal("invalid refresh token TTL", zap.Error(err))
	}
	jwtService := auth.NewJWTService(&auth.JWTConfig{
		SecretKey:            []byte(cfg.Auth.Secret),
		AccessTokenDuration:  accessTTL,
		RefreshTokenDuration: refreshTTL,
		Issuer:               "LinkPulse-Backend",
	})
	passwordService := auth.NewPasswordService(auth.DefaultBcryptCost)

	// Create unified HTTP server
	apiServer := httpHandler.NewServer(
		storage,
		db,
		redisClient,
		shortener,
		resolver,
		analytics,
		processor,
		linkCache,
		jwtService,
		passwordService,
		log,
		cfg.URLShortener.BaseURL,
	)

	httpServer := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      apiServer.SetupRoutes(),
		ReadTimeout:  time.Duration(cfg.HTTPServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTPServer.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.HTTPServer.IdleTimeout) * time.Second,
	}

	log.Info("starting HTTP server", zap.String("address", cfg.HTTPServer.Address))

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down LinkPulse service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// Drain the click queue before closing the database
	if err := processor.Stop(); err != nil {
		log.Error("failed to stop click processor", zap.Error(err))
	}
}
