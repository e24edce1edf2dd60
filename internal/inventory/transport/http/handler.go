package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/flash-sale/internal/inventory/repository"
	"github.com/sakashimaa/flash-sale/internal/inventory/service"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.uber.org/zap"
)

type Handler struct {
	service service.InventoryService
	logger  *zap.Logger
}

func NewHandler(service service.InventoryService, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func RegisterRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("Inventory Service is alive!")
	})
	app.Get("/stock/:productId", h.GetStock)
	app.Put("/stock/:productId", h.SetStock)
}

func (h *Handler) GetStock(c *fiber.Ctx) error {
	productID := c.Params("productId")

	stock, err := h.service.GetStock(c.UserContext(), productID)
	if err != nil {
		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Failed to get stock",
			zap.String("product_id", productID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(fiber.Map{
		"productId":      productID,
		"availableStock": stock,
	})
}

type setStockRequest struct {
	Stock *int64 `json:"stock"`
}

func (h *Handler) SetStock(c *fiber.Ctx) error {
	productID := c.Params("productId")

	var req setStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if req.Stock == nil || *req.Stock < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "stock must be a non-negative number",
		})
	}

	if err := h.service.SetStock(c.UserContext(), productID, *req.Stock); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "product not found",
			})
		}

		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Failed to set stock",
			zap.String("product_id", productID),
			zap.Int64("stock", *req.Stock),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(fiber.Map{
		"productId":      productID,
		"availableStock": *req.Stock,
	})
}
