package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sakashimaa/flash-sale/internal/order/domain"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	TransitionStatus(ctx context.Context, tx pgx.Tx, orderID string, to domain.OrderStatus, reason *string) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
}

type orderRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
	tracer trace.Tracer
}

func NewOrderRepository(pool *pgxpool.Pool, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		pool:   pool,
		logger: logger,
		tracer: otel.Tracer("order_repository"),
	}
}

func (r *orderRepo) CreateOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.CreateOrder")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("product_id", order.ProductID),
	)

	query := `
		INSERT INTO orders (id, user_id, product_id, quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.ProductID,
		order.Quantity,
		string(order.Status),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == "23505" {
			mylogger.Warn(
				ctx,
				r.logger,
				"Order already exists, skipping",
				zap.String("order_id", order.ID),
			)

			return ErrOrderExists
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to insert order",
			zap.String("order_id", order.ID),
			zap.Error(err),
		)

		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// TransitionStatus moves a PENDING order into a terminal status. An order
// that is already terminal is reported as ErrOrderTerminal so duplicate or
// reordered decision events become no-ops instead of regressions.
func (r *orderRepo) TransitionStatus(ctx context.Context, tx pgx.Tx, orderID string, to domain.OrderStatus, reason *string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.TransitionStatus")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.String("status", string(to)),
	)

	query := `
		UPDATE orders
		SET status = $2, reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING id, user_id, product_id, quantity, status, reason, created_at, updated_at
	`

	var order domain.Order
	err := tx.QueryRow(ctx, query, orderID, string(to), reason).Scan(
		&order.ID,
		&order.UserID,
		&order.ProductID,
		&order.Quantity,
		&order.Status,
		&order.Reason,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err == nil {
		return &order, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to update order status",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	// No PENDING row matched: either the order does not exist or it is
	// already terminal.
	var status domain.OrderStatus
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load order status: %w", err)
	}

	if !status.IsTerminal() {
		return nil, fmt.Errorf("order %s in unexpected status %s", orderID, status)
	}

	mylogger.Warn(
		ctx,
		r.logger,
		"Order already terminal, skipping transition",
		zap.String("order_id", orderID),
		zap.String("current_status", string(status)),
		zap.String("requested_status", string(to)),
	)

	return nil, ErrOrderTerminal
}

func (r *orderRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetOrder")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	query := `
		SELECT id, user_id, product_id, quantity, status, reason, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order domain.Order
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&order.ID,
		&order.UserID,
		&order.ProductID,
		&order.Quantity,
		&order.Status,
		&order.Reason,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to query order",
			zap.String("order_id", orderID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return &order, nil
}
