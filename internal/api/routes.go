package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/parleyhq/parley-backend/internal/api/handlers"
	"github.com/parleyhq/parley-backend/internal/api/middleware"
	"github.com/parleyhq/parley-backend/internal/auth"
	"github.com/parleyhq/parley-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services, authService *auth.Service) {
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "parley-backend",
		})
	})

	// Authentication endpoints
	authGroup := api.Group("/auth")
	authGroup.Post("/signup", handlers.Signup(authService))
	authGroup.Post("/login", handlers.Login(authService))

	// Protected routes
	protected := api.Group("", middleware.AuthRequired(authService.JWT()))

	protected.Post("/conversations", handlers.CreateConversation(svc.Chat))
	protected.Get("/conversations", handlers.ListConversations(svc.Chat))
	protected.Get("/conversations/:id", handlers.GetConversation(svc.Chat))
	protected.Delete("/conversations/:id", handlers.DeleteConversation(svc.Chat))
	protected.Get("/conversations/:id/messages", handlers.GetMessages(svc.Chat))
	protected.Post("/conversations/:id/messages", handlers.SendMessage(svc.Chat))

	protected.Post("/tool-servers/:id/test", handlers.TestToolServer(svc.Tools))

	// WebSocket chat. The upgrade middleware validates the token from the
	// query string or Authorization header before the connection is opened.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := c.Query("token")
		if token == "" {
			token = auth.ExtractTokenFromBearer(c.Get("Authorization"))
		}
		if token != "" {
			if claims, err := authService.JWT().ValidateToken(token); err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Locals("user_id", userID)
					return c.Next()
				}
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required for WebSocket",
		})
	})
	app.Get("/ws/chat", websocket.New(handlers.ChatSocket(svc.Chat)))
}
