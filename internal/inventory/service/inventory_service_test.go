package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sakashimaa/flash-sale/internal/inventory/engine"
	"github.com/sakashimaa/flash-sale/internal/inventory/repository"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedEvent struct {
	topic    string
	envelope *events.Envelope
}

type captureProducer struct {
	published []capturedEvent
}

func (p *captureProducer) PublishEvent(_ context.Context, topic string, envelope *events.Envelope) error {
	p.published = append(p.published, capturedEvent{topic: topic, envelope: envelope})
	return nil
}

func (p *captureProducer) Close() error { return nil }

type stubProductRepo struct {
	stocks []repository.ProductStock
}

func (r *stubProductRepo) ListProductStocks(_ context.Context) ([]repository.ProductStock, error) {
	return r.stocks, nil
}

func (r *stubProductRepo) GetProductName(_ context.Context, productID string) (string, error) {
	for _, p := range r.stocks {
		if p.ProductID == productID {
			return p.Name, nil
		}
	}
	return "", repository.ErrProductNotFound
}

func newTestService(t *testing.T) (InventoryService, *captureProducer) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	producer := &captureProducer{}
	repo := &stubProductRepo{
		stocks: []repository.ProductStock{
			{ProductID: "p1", Name: "Limited Edition Sneakers", CurrentStock: 5},
		},
	}

	svc := NewInventoryService(engine.NewEngine(client, zap.NewNop()), repo, producer, zap.NewNop())
	require.NoError(t, svc.SeedStockCounters(context.Background()))

	return svc, producer
}

func TestHandleOrderSaved_PublishesReserved(t *testing.T) {
	svc, producer := newTestService(t)
	ctx := context.Background()

	err := svc.HandleOrderSaved(ctx, &events.OrderSavedData{
		OrderID:   "order_1",
		UserID:    "user_1",
		ProductID: "p1",
		Quantity:  2,
		Status:    "PENDING",
	})
	require.NoError(t, err)

	require.Len(t, producer.published, 1)
	require.Equal(t, events.TopicInventoryEvents, producer.published[0].topic)
	require.Equal(t, events.TypeInventoryReserved, producer.published[0].envelope.EventType)

	var data events.InventoryReservedData
	require.NoError(t, json.Unmarshal(producer.published[0].envelope.Data, &data))
	require.Equal(t, "order_1", data.OrderID)
	require.Equal(t, int64(3), data.RemainingStock)
}

func TestHandleOrderSaved_PublishesInsufficient(t *testing.T) {
	svc, producer := newTestService(t)
	ctx := context.Background()

	err := svc.HandleOrderSaved(ctx, &events.OrderSavedData{
		OrderID:   "order_1",
		UserID:    "user_1",
		ProductID: "p1",
		Quantity:  6,
		Status:    "PENDING",
	})
	require.NoError(t, err)

	require.Len(t, producer.published, 1)
	require.Equal(t, events.TypeInventoryInsufficient, producer.published[0].envelope.EventType)

	var data events.InventoryInsufficientData
	require.NoError(t, json.Unmarshal(producer.published[0].envelope.Data, &data))
	require.Equal(t, int64(5), data.AvailableStock)
	require.Equal(t, "OUT_OF_STOCK", data.Reason)

	// The rejected attempt must leave the counter untouched.
	stock, err := svc.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(5), stock)
}

func TestHandleOrderSaved_DrainsStockExactly(t *testing.T) {
	svc, producer := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		err := svc.HandleOrderSaved(ctx, &events.OrderSavedData{
			OrderID:   events.NewOrderID(),
			UserID:    "user_1",
			ProductID: "p1",
			Quantity:  1,
			Status:    "PENDING",
		})
		require.NoError(t, err)
	}

	var reserved, insufficient int
	for _, e := range producer.published {
		switch e.envelope.EventType {
		case events.TypeInventoryReserved:
			reserved++
		case events.TypeInventoryInsufficient:
			insufficient++
		}
	}

	require.Equal(t, 5, reserved)
	require.Equal(t, 2, insufficient)

	stock, err := svc.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(0), stock)
}

func TestHandleOrderSaved_RedeliveryDecrementsAgain(t *testing.T) {
	svc, producer := newTestService(t)
	ctx := context.Background()

	saved := &events.OrderSavedData{
		OrderID:   "order_1",
		UserID:    "user_1",
		ProductID: "p1",
		Quantity:  2,
		Status:    "PENDING",
	}

	require.NoError(t, svc.HandleOrderSaved(ctx, saved))
	require.NoError(t, svc.HandleOrderSaved(ctx, saved))

	// A redelivered order.saved is not deduplicated: the same order
	// reserves twice and the counter drops for both deliveries.
	require.Len(t, producer.published, 2)
	require.Equal(t, events.TypeInventoryReserved, producer.published[0].envelope.EventType)
	require.Equal(t, events.TypeInventoryReserved, producer.published[1].envelope.EventType)

	stock, err := svc.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(1), stock)
}

func TestSetStock_PublishesNotification(t *testing.T) {
	svc, producer := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SetStock(ctx, "p1", 100))

	stock, err := svc.GetStock(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(100), stock)

	require.Len(t, producer.published, 1)
	require.Equal(t, events.TopicNotificationEvents, producer.published[0].topic)
	require.Equal(t, events.TypeNotificationStockUpdate, producer.published[0].envelope.EventType)

	var data events.StockUpdateData
	require.NoError(t, json.Unmarshal(producer.published[0].envelope.Data, &data))
	require.Equal(t, "Stock has been reset to 100 items.", data.Message)
}

func TestSetStock_UnknownProduct(t *testing.T) {
	svc, producer := newTestService(t)

	err := svc.SetStock(context.Background(), "ghost", 10)
	require.ErrorIs(t, err, repository.ErrProductNotFound)
	require.Empty(t, producer.published)
}
