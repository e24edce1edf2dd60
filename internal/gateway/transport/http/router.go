package http

import (
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sakashimaa/flash-sale/internal/gateway/transport/http/handler"
	"github.com/sakashimaa/flash-sale/internal/gateway/ws"
)

type Handlers struct {
	Order   *handler.OrderHandler
	Product *handler.ProductHandler
}

// NewApp builds the gateway's fiber app: traced HTTP handlers behind a
// per-IP rate limit sized for flash-sale bursts.
func NewApp(h *Handlers, hub *ws.Hub) *fiber.App {
	app := fiber.New()

	app.Use(otelfiber.Middleware())

	app.Use(limiter.New(limiter.Config{
		Max:        20,
		Expiration: 5 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests. Try again later.",
			})
		},
	}))

	RegisterRoutes(app, h, hub)

	return app
}

func RegisterRoutes(app *fiber.App, h *Handlers, hub *ws.Hub) {
	app.Get("/health", func(c *fiber.Ctx) error {
		connections, rooms := hub.ConnectionStats()

		return c.JSON(fiber.Map{
			"status":      "ok",
			"connections": connections,
			"rooms":       rooms,
		})
	})

	orders := app.Group("/orders")
	orders.Post("", h.Order.Create)
	orders.Get("/:orderId", h.Order.GetByID)

	products := app.Group("/products")
	products.Get("/:productId", h.Product.GetByID)
	products.Put("/:productId/stock", h.Product.SetStock)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(hub.Handler))
}
