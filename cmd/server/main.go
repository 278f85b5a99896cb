package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/prehome/backend/internal/router"
	"github.com/anonto42/prehome/backend/pkg/config"
	"github.com/anonto42/prehome/backend/pkg/firebase"
	"github.com/anonto42/prehome/backend/pkg/mailer"
	"github.com/anonto42/prehome/backend/pkg/places"
	"github.com/anonto42/prehome/backend/pkg/storage"
	"github.com/anonto42/prehome/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Prehome property browsing API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create relational tables and MongoDB indexes, then exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatal(err)
	}
}

func migrate(ctx context.Context) error {
	cfg := config.Load()

	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	defer db.CloseDB()

	return router.Migrate(ctx, db, cfg)
}

func serve(ctx context.Context) error {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("initialize databases: %w", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when serve returns

	if err := router.Migrate(ctx, db, cfg); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	deps := router.Dependencies{
		Config: cfg,
		Stores: db,
		Repos:  router.NewRepositories(db),
		Mailer: mailer.NewSMTPSender(cfg.Mail),
	}

	// Firebase backs Google sign-in only; the API runs without it.
	googleVerifier, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Google login disabled: %v", err)
	} else {
		deps.Google = googleVerifier
	}

	gateway, err := places.NewGoogleGateway(cfg.GoogleMapsAPIKey)
	if err != nil {
		log.Printf("Nearby places disabled: %v", err)
	} else {
		deps.Places = gateway
	}

	deps.Storage, err = storage.New(cfg.Storage)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Validator
	e.Validator = validators.NewValidator()

	// Setup global middleware
	config.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	router.SetupRoutes(e, deps)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
