package routes

import (
	"nutrition-catalog/internal/api/handlers"
	"nutrition-catalog/internal/metrics"
	"nutrition-catalog/internal/middleware"
	"nutrition-catalog/pkg/jwt"
	"nutrition-catalog/pkg/verification"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type Config struct {
	App               *fiber.App
	CatalogHandler    handlers.CatalogHandler
	SubmissionHandler handlers.SubmissionHandler
	AssetHandler      handlers.AssetHandler
	Middleware        middleware.Middleware
	JWTService        jwt.JWTService
	Verification      verification.VerificationService
	Metrics           *metrics.Registry
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.GuestRoute()
	c.Catalog()
	c.Submissions()
	c.Moderation()
	c.Assets()
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong, its works. test"})
	})
	if c.Metrics != nil {
		c.App.Get("/metrics", adaptor.HTTPHandler(c.Metrics.Handler()))
	}
}

func (c *Config) Catalog() {
	catalog := c.App.Group("/api/v1/catalog", c.Middleware.AuthMiddleware(c.JWTService))
	catalog.Get("", c.CatalogHandler.GetCatalog)
	catalog.Post("/items", c.CatalogHandler.SubmitItem)
	catalog.Get("/items/:id/scale", c.CatalogHandler.ScaleItem)
	catalog.Post("/meal", c.CatalogHandler.MealTotals)
}

func (c *Config) Submissions() {
	submissions := c.App.Group("/api/v1/submissions", c.Middleware.AuthMiddleware(c.JWTService))
	submissions.Get("/mine", c.SubmissionHandler.GetMySubmissions)
}

func (c *Config) Moderation() {
	moderation := c.App.Group("/api/v1/moderation",
		c.Middleware.AuthMiddleware(c.JWTService),
		c.Middleware.ModeratorMiddleware(c.Verification.IsModerator),
	)
	moderation.Get("/pending", c.SubmissionHandler.GetPending)
	moderation.Post("/:id/approve", c.SubmissionHandler.Approve)
	moderation.Post("/:id/reject", c.SubmissionHandler.Reject)
}

func (c *Config) Assets() {
	assets := c.App.Group("/api/v1/assets", c.Middleware.AuthMiddleware(c.JWTService))
	assets.Get("/:id", c.AssetHandler.GetAsset)
}
