package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	deliveryHTTP "github.com/nightpass/curfew/internal/delivery/http"
	"github.com/nightpass/curfew/internal/events"
	"github.com/nightpass/curfew/internal/pkg/config"
	"github.com/nightpass/curfew/internal/pkg/database"
	"github.com/nightpass/curfew/internal/pkg/jwt"
	"github.com/nightpass/curfew/internal/pkg/logger"
	"github.com/nightpass/curfew/internal/pkg/redis"
	"github.com/nightpass/curfew/internal/repository/cached"
	"github.com/nightpass/curfew/internal/repository/postgres"
	"github.com/nightpass/curfew/internal/usecase/auth"
	"github.com/nightpass/curfew/internal/usecase/pass"
	"github.com/nightpass/curfew/internal/usecase/verify"
)

func main() {
	// =========================================================================
	// Load configuration
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Initialize logger
	// =========================================================================

	log := logger.New(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.Output)
	log.Info("Starting curfew pass API server", map[string]interface{}{
		"version": "1.0.0",
	})

	// =========================================================================
	// Connect to PostgreSQL
	// =========================================================================

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer database.Close(db)

	log.Info("Connected to PostgreSQL", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Database,
	})

	// =========================================================================
	// Connect to Redis
	// =========================================================================

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer redisClient.Close()

	log.Info("Connected to Redis", map[string]interface{}{
		"host": cfg.Redis.Host,
		"port": cfg.Redis.Port,
	})

	// =========================================================================
	// Create repositories
	// =========================================================================

	userRepo := postgres.NewUserRepository(db)
	logRepo := postgres.NewVerificationLogRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)

	// Pass reads go through the Redis cache; the change feed below keeps
	// cross-instance entries from going stale.
	passRepo := cached.NewPassRepository(postgres.NewPassRepository(db), redisClient, cfg.QR.CacheTTL)

	log.Info("Repositories initialized")

	// =========================================================================
	// Create change feed
	// =========================================================================

	feed := events.NewRedisFeed(redisClient, log)

	go passRepo.ListenInvalidations(ctx, events.Subscribe(ctx, redisClient, events.ChannelPasses))

	log.Info("Change feed initialized", map[string]interface{}{
		"channels": []string{events.ChannelPasses, events.ChannelVerifications},
	})

	// =========================================================================
	// Create JWT token service
	// =========================================================================

	tokenService := jwt.NewTokenService(
		cfg.JWT.SecretKey,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	log.Info("JWT token service initialized")

	// =========================================================================
	// Create use case services
	// =========================================================================

	authService := auth.NewService(userRepo, refreshTokenRepo, tokenService, log)
	passService := pass.NewService(passRepo, feed, log, cfg.QR.ImageSize)
	verifyService := verify.NewService(passRepo, logRepo, feed, log)

	log.Info("Use case services initialized")

	// =========================================================================
	// Create HTTP handlers
	// =========================================================================

	authHandler := deliveryHTTP.NewAuthHandler(authService, log)
	passHandler := deliveryHTTP.NewPassHandler(passService, log)
	verifyHandler := deliveryHTTP.NewVerifyHandler(verifyService, log)

	log.Info("HTTP handlers initialized")

	// =========================================================================
	// Create and set up the HTTP router
	// =========================================================================

	router := deliveryHTTP.NewRouter(
		authHandler,
		passHandler,
		verifyHandler,
		tokenService,
		cfg,
		log,
	)

	handler := router.Setup()

	log.Info("HTTP router configured")

	// =========================================================================
	// Create HTTP server
	// =========================================================================

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// =========================================================================
	// Start the server in a goroutine
	// =========================================================================

	serverErrors := make(chan error, 1)

	go func() {
		log.Info("API server listening", map[string]interface{}{
			"address": srv.Addr,
		})
		serverErrors <- srv.ListenAndServe()
	}()

	// =========================================================================
	// Graceful shutdown
	// =========================================================================

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal arrives or the server fails
	select {
	case err := <-serverErrors:
		log.Fatal("Server error", map[string]interface{}{
			"error": err.Error(),
		})

	case sig := <-shutdown:
		log.Info("Shutdown signal received", map[string]interface{}{
			"signal": sig.String(),
		})

		// Give the server 30 seconds to drain in-flight requests
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Graceful shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})

			if err := srv.Close(); err != nil {
				log.Fatal("Failed to close server", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		log.Info("Server stopped gracefully")
	}
}
