package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// Reservation is the outcome of a single reserve attempt. On rejection
// Remaining carries the pre-decrement count the attempt saw.
type Reservation struct {
	Accepted  bool
	Remaining int64
}

// Engine is the only mutator of the per-product stock counters. All
// decrements go through an optimistic WATCH/MULTI transaction, never a blind
// DECRBY, so concurrent reservations can never drive a counter negative.
type Engine struct {
	client *redis.Client
	logger *zap.Logger
	tracer trace.Tracer
}

func NewEngine(client *redis.Client, logger *zap.Logger) *Engine {
	return &Engine{
		client: client,
		logger: logger,
		tracer: otel.Tracer("reservation_engine"),
	}
}

func stockKey(productID string) string {
	return "stock:" + productID
}

// Reserve atomically checks and decrements the counter for productID. When a
// concurrent modifier wins the optimistic transaction the attempt retries
// against fresh state; retries are unbounded, each round settles exactly one
// contender.
func (e *Engine) Reserve(ctx context.Context, productID string, quantity int64) (Reservation, error) {
	ctx, span := e.tracer.Start(ctx, "Engine.Reserve")
	defer span.End()

	span.SetAttributes(
		attribute.String("product_id", productID),
		attribute.Int64("quantity", quantity),
	)

	if quantity <= 0 {
		return Reservation{}, ErrInvalidQuantity
	}

	key := stockKey(productID)

	var result Reservation
	for attempt := 1; ; attempt++ {
		err := e.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Int64()
			if errors.Is(err, redis.Nil) {
				current = 0
			} else if err != nil {
				return err
			}

			if current < quantity {
				result = Reservation{Accepted: false, Remaining: current}
				return nil
			}

			// Conditional decrement: fails with TxFailedErr when the
			// watched key changed after the read above.
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.DecrBy(ctx, key, quantity)
				return nil
			})
			if err != nil {
				return err
			}

			result = Reservation{Accepted: true, Remaining: current - quantity}
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			mylogger.Debug(
				ctx,
				e.logger,
				"Reservation conflict, retrying",
				zap.String("product_id", productID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			span.RecordError(err)
			return Reservation{}, fmt.Errorf("reservation transaction failed: %w", err)
		}

		mylogger.Info(
			ctx,
			e.logger,
			"Stock reservation attempt",
			zap.String("product_id", productID),
			zap.Int64("quantity", quantity),
			zap.Bool("accepted", result.Accepted),
			zap.Int64("remaining", result.Remaining),
			zap.Int("attempts", attempt),
		)

		span.SetAttributes(attribute.Bool("accepted", result.Accepted))
		return result, nil
	}
}

// InitializeStock seeds the counter for a product. Idempotent: setting the
// same value twice is harmless.
func (e *Engine) InitializeStock(ctx context.Context, productID string, value int64) error {
	if err := e.client.Set(ctx, stockKey(productID), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to initialize stock for %s: %w", productID, err)
	}

	mylogger.Info(
		ctx,
		e.logger,
		"Stock initialized",
		zap.String("product_id", productID),
		zap.Int64("stock", value),
	)

	return nil
}

// SetStock unconditionally overrides the counter. Administrative use only.
func (e *Engine) SetStock(ctx context.Context, productID string, value int64) error {
	if err := e.client.Set(ctx, stockKey(productID), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set stock for %s: %w", productID, err)
	}

	mylogger.Info(
		ctx,
		e.logger,
		"Stock set",
		zap.String("product_id", productID),
		zap.Int64("stock", value),
	)

	return nil
}

// GetStock is a point read for display only, not linearizable with
// concurrent reservations. A missing key reads as zero.
func (e *Engine) GetStock(ctx context.Context, productID string) (int64, error) {
	value, err := e.client.Get(ctx, stockKey(productID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock for %s: %w", productID, err)
	}

	return value, nil
}
