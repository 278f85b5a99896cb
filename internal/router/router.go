package router

import (
	"context"
	"fmt"
	"log"

	"github.com/anonto42/prehome/backend/internal/handlers"
	"github.com/anonto42/prehome/backend/internal/middleware"
	"github.com/anonto42/prehome/backend/internal/models"
	"github.com/anonto42/prehome/backend/internal/repositories"
	"github.com/anonto42/prehome/backend/pkg/config"
	"github.com/anonto42/prehome/backend/pkg/mailer"
	"github.com/anonto42/prehome/backend/pkg/storage"
	"github.com/labstack/echo/v4"
)

// Dependencies are the external services the routes are wired to.
// Google and Places may be nil when their credentials are not configured.
type Dependencies struct {
	Config  *config.Config
	Stores  handlers.Pinger
	Repos   Repositories
	Google  handlers.GoogleVerifier
	Places  handlers.NearbyFinder
	Mailer  mailer.Sender
	Storage storage.Storage
}

// Repositories are the stores behind the handlers
type Repositories struct {
	Properties    repositories.PropertyRepository
	Users         repositories.UserRepository
	Otps          repositories.OtpRepository
	Activities    repositories.ActivityRepository
	Forms         repositories.FormProgressRepository
	Notifications repositories.NotificationRepository
	Chats         repositories.ChatRepository
}

// NewRepositories builds the MongoDB and relational repositories on db
func NewRepositories(db *config.DB) Repositories {
	return Repositories{
		Properties:    repositories.NewMongoPropertyRepository(db.MongoDB),
		Users:         repositories.NewMongoUserRepository(db.MongoDB),
		Otps:          repositories.NewMongoOtpRepository(db.MongoDB),
		Activities:    repositories.NewMongoActivityRepository(db.MongoDB),
		Forms:         repositories.NewMongoFormProgressRepository(db.MongoDB),
		Notifications: repositories.NewPostgresNotificationRepository(db.SQL),
		Chats:         repositories.NewPostgresChatRepository(db.SQL),
	}
}

// Migrate creates the relational tables and the MongoDB indexes
func Migrate(ctx context.Context, db *config.DB, cfg *config.Config) error {
	if err := db.SQL.AutoMigrate(&models.Notification{}, &models.ChatMessage{}); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Println("Relational auto-migrations completed.")

	if err := repositories.EnsureIndexes(ctx, db.MongoDB, cfg.OtpTTL); err != nil {
		return err
	}
	log.Println("MongoDB indexes ensured.")
	return nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Dependencies) {
	cfg := deps.Config
	repos := deps.Repos

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(deps.Stores).HealthCheck)

	if local, ok := deps.Storage.(*storage.LocalStorage); ok {
		e.Static(cfg.Storage.BaseURL, local.Dir())
		log.Printf("Serving uploads from %s at %s.", local.Dir(), cfg.Storage.BaseURL)
	}

	// --- Unprotected routes for authentication ---
	authHandler := handlers.NewAuthHandler(repos.Users, repos.Otps, deps.Google, deps.Mailer, cfg)
	authHandler.RegisterAuthRoutes(e.Group("/api/auth"))
	authHandler.RegisterAdminAuthRoutes(e.Group("/api/admin/auth"))
	log.Println("Auth routes configured.")

	// Public property routes
	propertyHandler := handlers.NewPropertyHandler(repos.Properties, deps.Places)
	propertyHandler.RegisterPropertyRoutes(e.Group("/api/properties"))
	log.Println("Property routes configured.")

	// --- Admin routes (JWT with admin role) ---
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireAdmin())

	propertyHandler.RegisterAdminPropertyRoutes(admin)

	userHandler := handlers.NewUserHandler(repos.Users)
	userHandler.RegisterAdminUserRoutes(admin)

	activityHandler := handlers.NewActivityHandler(repos.Activities, repos.Properties, repos.Notifications)
	activityHandler.RegisterAdminActivityRoutes(admin)

	uploadHandler := handlers.NewUploadHandler(deps.Storage)
	uploadHandler.RegisterAdminUploadRoutes(admin)
	log.Println("Admin routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api group.")

	activityHandler.RegisterActivityRoutes(api)
	log.Println("Activity routes configured.")

	notificationHandler := handlers.NewNotificationHandler(repos.Notifications)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	chatHandler := handlers.NewChatHandler(repos.Chats)
	chatHandler.RegisterChatRoutes(api)
	log.Println("Chat routes configured.")

	formHandler := handlers.NewFormHandler(repos.Forms)
	formHandler.RegisterFormRoutes(api)
	log.Println("Form routes configured.")

	log.Println("All routes configured.")
}
