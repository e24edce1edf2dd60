package handler

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/flash-sale/internal/gateway/client"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"github.com/sakashimaa/flash-sale/pkg/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type createOrderRequest struct {
	UserID    string `json:"userId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
}

type OrderHandler struct {
	producer kafka.Producer
	orders   *client.OrderClient
	validate *validator.Validate
	logger   *zap.Logger
	cb       *gobreaker.CircuitBreaker
}

func NewOrderHandler(producer kafka.Producer, orders *client.OrderClient, logger *zap.Logger) *OrderHandler {
	settings := gobreaker.Settings{
		Name:        "OrderService",
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

	return &OrderHandler{
		producer: producer,
		orders:   orders,
		validate: validator.New(),
		logger:   logger,
		cb:       gobreaker.NewCircuitBreaker(settings),
	}
}

// Create accepts an order and publishes order.created without waiting for
// the saga to finish. The client learns the outcome over the websocket.
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	input := new(createOrderRequest)

	if err := c.BodyParser(input); err != nil {
		h.logger.Warn("failed to parse body in create", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "error parsing body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": utils.FormatValidationError(err),
		})
	}

	orderID := events.NewOrderID()

	envelope, err := events.NewEnvelope(events.TypeOrderCreated, &events.OrderCreatedData{
		OrderID:   orderID,
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Quantity:  input.Quantity,
	})
	if err != nil {
		mylogger.Error(c.UserContext(), h.logger, "Failed to build order.created", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	if err := h.producer.PublishEvent(c.UserContext(), events.TopicOrderEvents, envelope); err != nil {
		// Fire and forget: the client already has an order id, a retry
		// lands on the same id through the idempotent consumers.
		mylogger.Error(
			c.UserContext(),
			h.logger,
			"Failed to publish order.created",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
	}

	mylogger.Info(
		c.UserContext(),
		h.logger,
		"Order creation initiated",
		zap.String("order_id", orderID),
		zap.String("user_id", input.UserID),
	)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"orderId":                 orderID,
		"status":                  "PENDING",
		"message":                 "Order is being processed. Status will be updated shortly.",
		"estimatedProcessingTime": 2000,
	})
}

func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	orderID := c.Params("orderId")

	result, err := h.cb.Execute(func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		return h.orders.GetOrder(ctx, orderID)
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
				"error": "order not found",
			})
		}

		h.logger.Warn("get order failed", zap.String("order_id", orderID), zap.Error(err))

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "failed to get order status",
		})
	}

	order, ok := result.(*client.OrderView)
	if !ok {
		h.logger.Warn("result cast error")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal error",
		})
	}

	return c.JSON(order)
}
