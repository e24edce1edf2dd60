package service

import (
	"context"
	"fmt"

	"github.com/sakashimaa/flash-sale/internal/inventory/engine"
	"github.com/sakashimaa/flash-sale/internal/inventory/repository"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const outOfStockReason = "OUT_OF_STOCK"

// InventoryService glues the reservation engine to the event bus: it consumes
// order.saved, runs the reservation and translates the outcome into
// inventory.reserved / inventory.insufficient. The engine itself never
// publishes anything.
type InventoryService interface {
	SeedStockCounters(ctx context.Context) error
	HandleOrderSaved(ctx context.Context, data *events.OrderSavedData) error
	GetStock(ctx context.Context, productID string) (int64, error)
	SetStock(ctx context.Context, productID string, value int64) error
}

type inventoryService struct {
	engine      *engine.Engine
	productRepo repository.ProductRepository
	producer    kafka.Producer
	logger      *zap.Logger
	tracer      trace.Tracer
}

func NewInventoryService(
	eng *engine.Engine,
	productRepo repository.ProductRepository,
	producer kafka.Producer,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		engine:      eng,
		productRepo: productRepo,
		producer:    producer,
		logger:      logger,
		tracer:      otel.Tracer("inventory_service"),
	}
}

// SeedStockCounters initializes the Redis counters from the recorded stock in
// Postgres. Runs once at service start.
func (s *inventoryService) SeedStockCounters(ctx context.Context) error {
	products, err := s.productRepo.ListProductStocks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load product stocks: %w", err)
	}

	for _, p := range products {
		if err := s.engine.InitializeStock(ctx, p.ProductID, p.CurrentStock); err != nil {
			return err
		}
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Stock counters seeded",
		zap.Int("products", len(products)),
	)

	return nil
}

// HandleOrderSaved is not idempotent: consumption is at-least-once, so a
// redelivered order.saved decrements the counter again. The coordinator
// ignores the duplicate outcome for an already-terminal order, but the
// extra decrement stays in the counter.
func (s *inventoryService) HandleOrderSaved(ctx context.Context, data *events.OrderSavedData) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.HandleOrderSaved")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", data.OrderID),
		attribute.String("product_id", data.ProductID),
		attribute.Int64("quantity", data.Quantity),
	)

	reservation, err := s.engine.Reserve(ctx, data.ProductID, data.Quantity)
	if err != nil {
		return fmt.Errorf("reservation failed for order %s: %w", data.OrderID, err)
	}

	if reservation.Accepted {
		return s.publishReserved(ctx, data, reservation.Remaining)
	}

	return s.publishInsufficient(ctx, data, reservation.Remaining)
}

func (s *inventoryService) publishReserved(ctx context.Context, data *events.OrderSavedData, remaining int64) error {
	envelope, err := events.NewEnvelope(events.TypeInventoryReserved, &events.InventoryReservedData{
		OrderID:        data.OrderID,
		ProductID:      data.ProductID,
		Quantity:       data.Quantity,
		RemainingStock: remaining,
	})
	if err != nil {
		return err
	}

	if err := s.producer.PublishEvent(ctx, events.TopicInventoryEvents, envelope); err != nil {
		return fmt.Errorf("failed to publish inventory.reserved: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Stock reserved",
		zap.String("order_id", data.OrderID),
		zap.String("product_id", data.ProductID),
		zap.Int64("remaining_stock", remaining),
	)

	return nil
}

func (s *inventoryService) publishInsufficient(ctx context.Context, data *events.OrderSavedData, available int64) error {
	envelope, err := events.NewEnvelope(events.TypeInventoryInsufficient, &events.InventoryInsufficientData{
		OrderID:        data.OrderID,
		ProductID:      data.ProductID,
		Quantity:       data.Quantity,
		AvailableStock: available,
		Reason:         outOfStockReason,
	})
	if err != nil {
		return err
	}

	if err := s.producer.PublishEvent(ctx, events.TopicInventoryEvents, envelope); err != nil {
		return fmt.Errorf("failed to publish inventory.insufficient: %w", err)
	}

	mylogger.Warn(
		ctx,
		s.logger,
		"Insufficient stock for order",
		zap.String("order_id", data.OrderID),
		zap.String("product_id", data.ProductID),
		zap.Int64("requested", data.Quantity),
		zap.Int64("available", available),
	)

	return nil
}

func (s *inventoryService) GetStock(ctx context.Context, productID string) (int64, error) {
	return s.engine.GetStock(ctx, productID)
}

// SetStock is the administrative override behind PUT /stock/:productId. It
// also pushes a stock_update notification so connected clients see resets
// immediately.
func (s *inventoryService) SetStock(ctx context.Context, productID string, value int64) error {
	// Reject unknown products so a typo cannot create a stray counter.
	if _, err := s.productRepo.GetProductName(ctx, productID); err != nil {
		return err
	}

	if err := s.engine.SetStock(ctx, productID, value); err != nil {
		return err
	}

	envelope, err := events.NewEnvelope(events.TypeNotificationStockUpdate, &events.StockUpdateData{
		ProductID:      productID,
		AvailableStock: value,
		Message:        fmt.Sprintf("Stock has been reset to %d items.", value),
	})
	if err != nil {
		return err
	}

	// Best effort: the counter is already set, a lost notification only
	// delays the UI until the next reservation.
	if err := s.producer.PublishEvent(ctx, events.TopicNotificationEvents, envelope); err != nil {
		mylogger.Warn(
			ctx,
			s.logger,
			"Failed to publish stock_update after set",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}

	return nil
}
