package http

import (
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sakashimaa/storefront/internal/transport/http/handler"
)

type Handlers struct {
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
	Product *handler.ProductHandler
}

type AppConfig struct {
	// LimiterMax of zero disables rate limiting.
	LimiterMax        int
	LimiterExpiration time.Duration
	// Metrics is optional.
	Metrics *Metrics
}

func NewApp(cfg AppConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		Immutable:             true,
	})

	app.Use(otelfiber.Middleware())

	if cfg.Metrics != nil {
		app.Use(cfg.Metrics.Middleware())
	}

	if cfg.LimiterMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.LimiterMax,
			Expiration: cfg.LimiterExpiration,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests. Try again later.",
				})
			},
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	return app
}

func RegisterRoutes(app *fiber.App, h *Handlers) {
	cart := app.Group("/cart/:userId")
	cart.Get("", h.Cart.GetItems)
	cart.Get("/total", h.Cart.GetTotal)
	cart.Post("/items", h.Cart.AddItem)
	cart.Put("/items/:productId", h.Cart.UpdateQuantity)
	cart.Delete("/items/:productId", h.Cart.RemoveItem)

	order := app.Group("/orders")
	order.Get("", h.Order.ListOrders)
	order.Post("/:userId/confirm", h.Order.Confirm)
	order.Get("/:id", h.Order.GetOrder)

	product := app.Group("/products")
	product.Post("", h.Product.Create)
	product.Put("/:id", h.Product.Update)
	product.Delete("/:id", h.Product.DeleteProduct)
	product.Get("/:id", h.Product.FindByID)
	product.Get("", h.Product.ListProducts)
}
