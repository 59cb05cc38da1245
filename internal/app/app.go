// Package app assembles the HTTP application from its repositories, services
// and handlers.
package app

import (
	"context"
	"time"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/handlers"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Deps are the external resources the application runs on. Events and Cache may be nil.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Events services.EventPublisher
	Cache  cache.Cache
	// AccessLog enables the per-request access log line.
	AccessLog bool
}

// New wires every module and returns the Fiber application.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	userRepo := repositories.NewGORMUserRepository(deps.DB)
	categoryRepo := repositories.NewGORMCategoryRepository(deps.DB)
	productRepo := repositories.NewGORMProductRepository(deps.DB)
	orderRepo := repositories.NewGORMOrderRepository(deps.DB)
	reviewRepo := repositories.NewGORMReviewRepository(deps.DB)
	analyticsRepo := repositories.NewGORMAnalyticsRepository(deps.DB)
	txManager := repositories.NewGORMTxManager(deps.DB)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	userService := services.NewUserService(userRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	productService := services.NewProductService(productRepo, categoryRepo)
	orderService := services.NewOrderService(orderRepo, txManager, deps.Events)
	reviewService := services.NewReviewService(reviewRepo, productRepo, orderRepo)
	analyticsService := services.NewAnalyticsService(analyticsRepo, deps.Cache, cfg.AnalyticsCacheTTL)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ErrorHandler: handlers.ErrorHandler(cfg.IsProduction()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger())
	if deps.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		}))
	}
	app.Use(middleware.Metrics())

	app.Get("/health", healthHandler(deps.DB))
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	auth := middleware.AuthRequired(authService)
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewUserHandler(userService).RegisterRoutes(api, auth)
	handlers.NewCategoryHandler(categoryService).RegisterRoutes(api, auth)
	handlers.NewProductHandler(productService).RegisterRoutes(api, auth)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api, auth)
	handlers.NewReviewHandler(reviewService).RegisterRoutes(api, auth)
	handlers.NewAnalyticsHandler(analyticsService).RegisterRoutes(api, auth)

	return app
}

func healthHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, database := "healthy", "up"
		code := fiber.StatusOK

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status, database = "unhealthy", "down"
			code = fiber.StatusServiceUnavailable
		}

		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"database": database,
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}
