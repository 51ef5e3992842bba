package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley-backend/internal/api"
	"github.com/parleyhq/parley-backend/internal/auth"
	"github.com/parleyhq/parley-backend/internal/cache"
	"github.com/parleyhq/parley-backend/internal/config"
	"github.com/parleyhq/parley-backend/internal/database"
	"github.com/parleyhq/parley-backend/internal/providers/factory"
	"github.com/parleyhq/parley-backend/internal/repository/postgres"
	"github.com/parleyhq/parley-backend/internal/services"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if os.Getenv("PARLEY_DEBUG") != "" {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis backs the memory cache; fall back to in-process when unreachable
	// so a cache outage never takes chat down.
	var cacheClient cache.Cache
	if redisCache, err := cache.NewRedisCache(context.Background(), cfg.Redis); err != nil {
		logger.WithError(err).Warn("Redis unavailable, using in-process cache")
		cacheClient = cache.NewMemoryCache()
	} else {
		cacheClient = redisCache
	}

	registry, err := factory.BuildRegistry(cfg.Providers)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build provider registry")
	}

	repos := services.Repositories{
		Conversations: postgres.NewConversationRepository(db.DB),
		Messages:      postgres.NewMessageRepository(db.DB),
		Sessions:      postgres.NewSessionRepository(db.DB),
		Models:        postgres.NewModelRepository(db.DB),
		ToolServers:   postgres.NewToolServerRepository(db.DB),
	}
	userRepo := postgres.NewUserRepository(db.DB)

	if cfg.Server.JWTSecret == "dev-secret-change-me" {
		logger.Warn("Using default JWT secret. Set PARLEY_JWT_SECRET in production")
	}
	authService := auth.NewService(userRepo, cfg.Server.JWTSecret)

	svc := services.NewServices(cfg, repos, registry, cacheClient, logger)

	app := fiber.New(fiber.Config{
		AppName:      "Parley Backend",
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: corsOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	api.SetupRoutes(app, svc, authService)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("addr", addr).Info("Parley backend starting")
	if err := app.Listen(addr); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func corsOrigins() string {
	if origins := os.Getenv("PARLEY_CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "http://localhost:3000"
}
