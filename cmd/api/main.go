package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"grindsheet/internal/config"
	"grindsheet/internal/database"
	"grindsheet/internal/logger"
	"grindsheet/internal/mailer"
	"grindsheet/internal/middleware"
	"grindsheet/internal/router"
	"grindsheet/internal/services"
	"grindsheet/internal/validator"
)

// @title           Grind Sheet API
// @version         1.0
// @description     The Grind Sheet tracks poker sessions, goals and bankroll transactions per user.

// @host      localhost:3000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		logger.Init(os.Getenv("ENV"))
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.InitWithOptions(appConfig.Env, logger.Options{Level: appConfig.LogLevel, File: appConfig.LogFile})
	defer logger.Sync()
	log := logger.Get()

	// Initialize database configuration
	dbConfig, err := database.NewConfig(appConfig)
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db, appConfig.PasswordMinLength)
	resetService := services.NewResetTokenService(db, services.ResetTokenOptions{
		TTL:               appConfig.ResetTokenTTL,
		SingleActive:      appConfig.ResetTokenSingleActive,
		PasswordMinLength: appConfig.PasswordMinLength,
	})
	userDataService := services.NewUserDataService(db)
	auditService := services.NewAuditService(db)

	if appConfig.IsProduction() && appConfig.JWTSecret == "fallback-secret-key-for-dev-only" {
		log.Warn("JWT_SECRET is the development fallback; set a real secret")
	}

	engine := router.New(router.Dependencies{
		UserService:     userService,
		ResetService:    resetService,
		UserDataService: userDataService,
		AuditService:    auditService,
		Issuer:          middleware.NewTokenIssuer(appConfig.JWTSecret, appConfig.JWTExpirationDur),
		Mailer:          mailer.New(appConfig),
		BaseURL:         appConfig.BaseURL,
		AllowedOrigins:  appConfig.AllowedOrigins,
		Version:         appConfig.Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if appConfig.ResetTokenPurgeInterval > 0 {
		go purgeExpiredTokens(ctx, resetService, appConfig.ResetTokenPurgeInterval)
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Grind Sheet server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// purgeExpiredTokens removes abandoned reset tokens until ctx is cancelled.
func purgeExpiredTokens(ctx context.Context, resets services.ResetTokenServicer, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := resets.PurgeExpired(ctx)
			if err != nil {
				logger.Get().Warnw("failed to purge expired reset tokens", "error", err)
				continue
			}
			if n > 0 {
				logger.Get().Infow("purged expired reset tokens", "count", n)
			}
		}
	}
}
