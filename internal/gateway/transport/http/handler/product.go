package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/flash-sale/internal/gateway/client"
	"github.com/sakashimaa/flash-sale/pkg/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type setStockRequest struct {
	Stock *int64 `json:"stock" validate:"required,gte=0"`
}

type ProductHandler struct {
	orders    *client.OrderClient
	inventory *client.InventoryClient
	validate  *validator.Validate
	logger    *zap.Logger
	cb        *gobreaker.CircuitBreaker
}

func NewProductHandler(orders *client.OrderClient, inventory *client.InventoryClient, logger *zap.Logger) *ProductHandler {
	settings := gobreaker.Settings{
		Name:        "ProductReads",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn(
				"Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &ProductHandler{
		orders:    orders,
		inventory: inventory,
		validate:  validator.New(),
		logger:    logger,
		cb:        gobreaker.NewCircuitBreaker(settings),
	}
}

func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	productID := c.Params("productId")

	result, err := h.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		return h.orders.GetProduct(ctx, productID)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			h.logger.Warn("Circuit breaker open")

			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "service temporarily unavailable",
			})
		}

		if errors.Is(err, client.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		h.logger.Warn("get product failed", zap.String("product_id", productID), zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to get product",
		})
	}

	product, ok := result.(*client.ProductView)
	if !ok {
		h.logger.Warn("result cast error")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(product)
}

// SetStock resets sale stock through the inventory service. Admin surface,
// used to re-arm a sale between runs.
func (h *ProductHandler) SetStock(c *fiber.Ctx) error {
	productID := c.Params("productId")

	input := new(setStockRequest)
	if err := c.BodyParser(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	view, err := h.inventory.SetStock(ctx, productID, *input.Stock)
	if err != nil {
		h.logger.Warn("set stock failed", zap.String("product_id", productID), zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to set stock",
		})
	}

	h.logger.Info(
		"Stock reset",
		zap.String("product_id", productID),
		zap.Int64("available_stock", view.AvailableStock),
	)

	return c.JSON(view)
}
