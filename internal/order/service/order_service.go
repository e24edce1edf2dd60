package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/flash-sale/internal/order/domain"
	"github.com/sakashimaa/flash-sale/internal/order/repository"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	outboxDomain "github.com/sakashimaa/flash-sale/pkg/outbox/domain"
	"github.com/sakashimaa/flash-sale/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const outOfStockReason = "Out of stock"

// OrderService owns the order lifecycle state machine. Incoming decision
// events are applied idempotently; follow-up events leave through the outbox
// in the same transaction as the status change.
type OrderService interface {
	HandleOrderCreated(ctx context.Context, data *events.OrderCreatedData) error
	HandleInventoryReserved(ctx context.Context, data *events.InventoryReservedData) error
	HandleInventoryInsufficient(ctx context.Context, data *events.InventoryInsufficientData) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
}

type orderService struct {
	pool        *pgxpool.Pool
	logger      *zap.Logger
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	outboxRepo  worker.OutboxRepository
	tracer      trace.Tracer
}

func NewOrderService(
	pool *pgxpool.Pool,
	logger *zap.Logger,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	outboxRepo worker.OutboxRepository,
) OrderService {
	return &orderService{
		pool:        pool,
		logger:      logger,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		tracer:      otel.Tracer("order_service"),
	}
}

func (s *orderService) HandleOrderCreated(ctx context.Context, data *events.OrderCreatedData) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandleOrderCreated")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", data.OrderID),
		attribute.String("product_id", data.ProductID),
	)

	if data.OrderID == "" || data.UserID == "" || data.ProductID == "" || data.Quantity <= 0 {
		return fmt.Errorf("invalid order.created payload for order %q", data.OrderID)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	order := &domain.Order{
		ID:        data.OrderID,
		UserID:    data.UserID,
		ProductID: data.ProductID,
		Quantity:  data.Quantity,
		Status:    domain.OrderStatusPending,
	}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, repository.ErrOrderExists) {
			// Duplicate delivery of order.created, already persisted.
			return nil
		}

		return fmt.Errorf("failed to create order: %w", err)
	}

	err = s.emitEvent(ctx, tx, order.ID, events.TypeOrderSaved, &events.OrderSavedData{
		OrderID:   order.ID,
		UserID:    order.UserID,
		ProductID: order.ProductID,
		Quantity:  order.Quantity,
		Status:    string(domain.OrderStatusPending),
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order saved, order.saved queued",
		zap.String("order_id", order.ID),
		zap.String("status", string(order.Status)),
	)

	return nil
}

func (s *orderService) HandleInventoryReserved(ctx context.Context, data *events.InventoryReservedData) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandleInventoryReserved")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", data.OrderID))

	order, err := s.transition(ctx, data.OrderID, domain.OrderStatusConfirmed, nil)
	if err != nil || order == nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order confirmed",
		zap.String("order_id", order.ID),
		zap.Int64("remaining_stock", data.RemainingStock),
	)

	return nil
}

func (s *orderService) HandleInventoryInsufficient(ctx context.Context, data *events.InventoryInsufficientData) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.HandleInventoryInsufficient")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", data.OrderID))

	reason := outOfStockReason
	order, err := s.transition(ctx, data.OrderID, domain.OrderStatusCancelled, &reason)
	if err != nil || order == nil {
		return err
	}

	mylogger.Info(
		ctx,
		s.logger,
		"Order cancelled",
		zap.String("order_id", order.ID),
		zap.String("reason", reason),
		zap.Int64("available_stock", data.AvailableStock),
	)

	return nil
}

// transition applies a reservation decision. A nil order with nil error means
// the transition was a duplicate and nothing happened.
func (s *orderService) transition(ctx context.Context, orderID string, to domain.OrderStatus, reason *string) (*domain.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer s.rollback(ctx, tx)

	order, err := s.orderRepo.TransitionStatus(ctx, tx, orderID, to, reason)
	if err != nil {
		if errors.Is(err, repository.ErrOrderTerminal) {
			// Duplicate or reordered decision, the order is settled.
			return nil, nil
		}

		if errors.Is(err, repository.ErrOrderNotFound) {
			mylogger.Warn(
				ctx,
				s.logger,
				"Decision for unknown order",
				zap.String("order_id", orderID),
				zap.String("status", string(to)),
			)

			return nil, fmt.Errorf("order %s not found: %w", orderID, err)
		}

		return nil, fmt.Errorf("failed to transition order: %w", err)
	}

	switch to {
	case domain.OrderStatusConfirmed:
		err = s.emitEvent(ctx, tx, order.ID, events.TypeOrderConfirmed, &events.OrderConfirmedData{
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProductID: order.ProductID,
			Quantity:  order.Quantity,
		})
	case domain.OrderStatusCancelled:
		err = s.emitEvent(ctx, tx, order.ID, events.TypeOrderCancelled, &events.OrderCancelledData{
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProductID: order.ProductID,
			Quantity:  order.Quantity,
			Reason:    *reason,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		mylogger.Error(ctx, s.logger, "Failed to commit transaction", zap.Error(err))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return order, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orderRepo.GetOrder(ctx, orderID)
}

func (s *orderService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	return s.productRepo.GetProduct(ctx, productID)
}

func (s *orderService) emitEvent(ctx context.Context, tx pgx.Tx, orderID, eventType string, data any) error {
	envelope, err := events.NewEnvelope(eventType, data)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	outboxEvent := &outboxDomain.OutboxEvent{
		AggregateType: "Order",
		AggregateID:   orderID,
		EventType:     eventType,
		Topic:         events.TopicOrderEvents,
		Payload:       payload,
	}

	if err := s.outboxRepo.SaveOutboxEvent(ctx, tx, outboxEvent); err != nil {
		mylogger.Error(
			ctx,
			s.logger,
			"Failed to save outbox event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)

		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

func (s *orderService) rollback(ctx context.Context, tx pgx.Tx) {
	shutdownCtx := context.WithoutCancel(ctx)

	if err := tx.Rollback(shutdownCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		mylogger.Warn(shutdownCtx, s.logger, "Failed to rollback transaction", zap.Error(err))
	}
}
