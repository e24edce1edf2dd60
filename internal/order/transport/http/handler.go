package http

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/flash-sale/internal/order/repository"
	"github.com/sakashimaa/flash-sale/internal/order/service"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.uber.org/zap"
)

// Handler serves the order service's internal boundary reads, consumed by the
// gateway.
type Handler struct {
	service     service.OrderService
	stockClient StockClient
	logger      *zap.Logger
}

// StockClient reads live stock from the inventory service. A failed read
// falls back to the snapshot stored in Postgres.
type StockClient interface {
	GetStock(ctx context.Context, productID string) (int64, error)
}

func NewHandler(service service.OrderService, stockClient StockClient, logger *zap.Logger) *Handler {
	return &Handler{
		service:     service,
		stockClient: stockClient,
		logger:      logger,
	}
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("Order Service is alive!")
	})
	app.Get("/orders/:orderId", h.GetOrder)
	app.Get("/products/:productId", h.GetProduct)
}

type orderResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	ProductID string  `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

func (h *Handler) GetOrder(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	order, err := h.service.GetOrder(c.UserContext(), orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "order " + orderID + " not found",
			})
		}

		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Failed to get order",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(orderResponse{
		ID:        order.ID,
		UserID:    order.UserID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		Status:    string(order.Status),
		Reason:    order.Reason,
		CreatedAt: order.CreatedAt.Format(time.RFC3339),
		UpdatedAt: order.UpdatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) GetProduct(c *fiber.Ctx) error {
	productID := c.Params("productId")

	product, err := h.service.GetProduct(c.UserContext(), productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product " + productID + " not found",
			})
		}

		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Failed to get product",
			zap.String("product_id", productID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	availableStock := product.CurrentStock
	if h.stockClient != nil {
		if stock, err := h.stockClient.GetStock(c.UserContext(), productID); err == nil {
			availableStock = stock
		} else {
			mylogger.Warn(
				c.UserContext(),
				h.logger,
				"Failed to get live stock, using database snapshot",
				zap.String("product_id", productID),
				zap.Error(err),
			)
		}
	}

	return c.JSON(fiber.Map{
		"id":             product.ID,
		"name":           product.Name,
		"description":    product.Description,
		"price":          product.Price,
		"availableStock": availableStock,
	})
}
