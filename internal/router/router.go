package router

import (
	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/handlers"
	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/middleware"
	"github.com/ahmedembaby/chat/internal/repositories"
	"github.com/ahmedembaby/chat/internal/services"
	"github.com/ahmedembaby/chat/pkg/config"
)

// Services holds the wired service layer so the caller can reach pieces
// with a lifecycle of their own, like the story sweeper.
type Services struct {
	Directory *services.DirectoryService
	Social    *services.SocialGraphService
	Chats     *services.ChatService
	Stories   *services.StoryService
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
}

// SetupRoutes wires repositories, services and handlers onto the Echo
// instance and returns the service layer.
func SetupRoutes(e *echo.Echo, repos repositories.Manager, firebaseAuthClient *auth.Client, bus *live.Bus, logger *zap.Logger, cfg *config.Config) *Services {
	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	svcs := &Services{
		Directory: services.NewDirectoryService(repos.Users(), bus, logger),
		Social:    services.NewSocialGraphService(repos.Users(), bus, logger),
		Chats:     services.NewChatService(repos.Chats(), repos.Users(), bus, logger),
		Stories:   services.NewStoryService(repos.Stories(), repos.Users(), bus, logger),
	}

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(repos.Accounts(), svcs.Directory, firebaseAuthClient, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (local JWT or Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg.JWTSecret, firebaseAuthClient, repos.Accounts()))

	userHandler := handlers.NewUserHandler(svcs.Directory, svcs.Social, repos.Accounts())
	userHandler.RegisterUserRoutes(api)

	socialHandler := handlers.NewSocialHandler(svcs.Social)
	socialHandler.RegisterSocialRoutes(api)

	chatHandler := handlers.NewChatHandler(svcs.Chats)
	chatHandler.RegisterChatRoutes(api)

	storyHandler := handlers.NewStoryHandler(svcs.Stories)
	storyHandler.RegisterStoryRoutes(api)

	// --- Websocket endpoints (token authenticated per connection) ---
	wsHandler := handlers.NewWSHandler(svcs.Chats, bus, cfg.JWTSecret, logger)
	wsHandler.RegisterWSRoutes(e)

	logger.Info("all routes configured")
	return svcs
}
