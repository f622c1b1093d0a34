package routes

import (
	"offertrack/internal/adapters/http/handlers"
	"offertrack/internal/adapters/http/middleware"
	"offertrack/internal/adapters/persistence/repositories"
	"offertrack/internal/adapters/storage"
	"offertrack/internal/config"
	"offertrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup wires repositories, services and handlers and registers all
// routes.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) error {
	// Repositories
	offerRepo := repositories.NewOfferRepository(db)
	memberRepo := repositories.NewMemberRepository(db)

	// Attachment storage
	store, err := storage.NewLocalStore(cfg.Storage.Dir)
	if err != nil {
		return err
	}

	// Services
	attachmentService := services.NewAttachmentService(store)
	offerService := services.NewOfferService(offerRepo, attachmentService)
	quotationService := services.NewQuotationService(offerRepo)
	authService := services.NewAuthService(memberRepo, cfg.Auth.TokenTTL)

	// Handlers
	healthHandler := handlers.NewHealthHandler(db)
	authHandler := handlers.NewAuthHandler(authService)
	offerHandler := handlers.NewOfferHandler(offerService, quotationService)

	requireAuth := middleware.AuthMiddleware(authService)

	// Health & docs
	app.Get("/health", healthHandler.HealthCheck)
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Attachments are public: the frontend links them directly
	app.Static(cfg.Storage.PublicPath, cfg.Storage.Dir)

	// Auth
	app.Post("/login", middleware.LoginRateLimiter(), authHandler.Login)
	app.Get("/validate", requireAuth, authHandler.Validate)

	// Offers
	offers := app.Group("/offers", requireAuth)
	offers.Get("/", offerHandler.List)
	offers.Post("/", offerHandler.Create)
	offers.Patch("/", offerHandler.AllocateNumber)
	offers.Get("/:id", offerHandler.Get)
	offers.Post("/:id", offerHandler.Update)
	offers.Delete("/:id", offerHandler.Delete)

	// No catch-all: fiber's own fall-through yields 404 on unknown
	// routes and 405 when the path exists under another method, and
	// middleware.ErrorHandler renders both as JSON.

	return nil
}
