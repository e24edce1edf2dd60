package service

import (
	"encoding/json"
	"testing"

	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/stretchr/testify/require"
)

func mustEnvelope(t *testing.T, eventType string, data any) *events.Envelope {
	t.Helper()

	envelope, err := events.NewEnvelope(eventType, data)
	require.NoError(t, err)

	return envelope
}

func decodeOrderUpdate(t *testing.T, out *events.Envelope) events.OrderUpdateData {
	t.Helper()

	require.Equal(t, events.TypeNotificationOrderUpdate, out.EventType)

	var data events.OrderUpdateData
	require.NoError(t, json.Unmarshal(out.Data, &data))

	return data
}

func decodeStockUpdate(t *testing.T, out *events.Envelope) events.StockUpdateData {
	t.Helper()

	require.Equal(t, events.TypeNotificationStockUpdate, out.EventType)

	var data events.StockUpdateData
	require.NoError(t, json.Unmarshal(out.Data, &data))

	return data
}

func TestTranslate_OrderCreated(t *testing.T) {
	tr := NewTranslator()

	in := mustEnvelope(t, events.TypeOrderCreated, &events.OrderCreatedData{
		OrderID:   "order_1",
		UserID:    "user_1",
		ProductID: "p1",
		Quantity:  1,
	})

	out, known, err := tr.Translate(in)
	require.NoError(t, err)
	require.True(t, known)
	require.NotNil(t, out)

	data := decodeOrderUpdate(t, out)
	require.Equal(t, "order_1", data.OrderID)
	require.Equal(t, "user_1", data.UserID)
	require.Equal(t, "PENDING", data.Status)
	require.Equal(t, "Your order has been received and is being processed.", data.Message)
}

func TestTranslate_OrderConfirmed(t *testing.T) {
	tr := NewTranslator()

	in := mustEnvelope(t, events.TypeOrderConfirmed, &events.OrderConfirmedData{
		OrderID:   "order_1",
		UserID:    "user_1",
		ProductID: "p1",
		Quantity:  1,
	})

	out, known, err := tr.Translate(in)
	require.NoError(t, err)
	require.True(t, known)

	data := decodeOrderUpdate(t, out)
	require.Equal(t, "CONFIRMED", data.Status)
	require.Equal(t, "Your order has been confirmed!", data.Message)
}

func TestTranslate_OrderCancelled(t *testing.T) {
	tr := NewTranslator()

	in := mustEnvelope(t, events.TypeOrderCancelled, &events.OrderCancelledData{
		OrderID:   "order_1",
		UserID:    "user_1",
		ProductID: "p1",
		Quantity:  1,
		Reason:    "Out of stock",
	})

	out, known, err := tr.Translate(in)
	require.NoError(t, err)
	require.True(t, known)

	data := decodeOrderUpdate(t, out)
	require.Equal(t, "CANCELLED", data.Status)
	require.Equal(t, "Your order has been cancelled. Reason: Out of stock", data.Message)
}

func TestTranslate_OrderCancelled_EmptyReason(t *testing.T) {
	tr := NewTranslator()

	in := mustEnvelope(t, events.TypeOrderCancelled, &events.OrderCancelledData{
		OrderID: "order_1",
		UserID:  "user_1",
	})

	out, known, err := tr.Translate(in)
	require.NoError(t, err)
	require.True(t, known)

	data := decodeOrderUpdate(t, out)
	require.Equal(t, "Your order has been cancelled. Reason: Unknown", data.Message)
}

func TestTranslate_InventoryReserved_StockMessages(t *testing.T) {
	tests := []struct {
		name      string
		remaining int64
		message   string
	}{
		{"plenty left", 42, "Stock updated: 42 items available."},
		{"low stock boundary", 10, "Only 10 items left in stock!"},
		{"single item", 1, "Only 1 items left in stock!"},
		{"sold out", 0, "This product is now out of stock!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTranslator()

			in := mustEnvelope(t, events.TypeInventoryReserved, &events.InventoryReservedData{
				OrderID:        "order_1",
				ProductID:      "p1",
				Quantity:       1,
				RemainingStock: tt.remaining,
			})

			out, known, err := tr.Translate(in)
			require.NoError(t, err)
			require.True(t, known)

			data := decodeStockUpdate(t, out)
			require.Equal(t, "p1", data.ProductID)
			require.Equal(t, tt.remaining, data.AvailableStock)
			require.Equal(t, tt.message, data.Message)
		})
	}
}

func TestTranslate_SilentEventTypes(t *testing.T) {
	tr := NewTranslator()

	for _, eventType := range []string{events.TypeOrderSaved, events.TypeInventoryInsufficient} {
		in := mustEnvelope(t, eventType, map[string]string{"orderId": "order_1"})

		out, known, err := tr.Translate(in)
		require.NoError(t, err)
		require.True(t, known)
		require.Nil(t, out)
	}
}

func TestTranslate_UnknownEventType(t *testing.T) {
	tr := NewTranslator()

	in := mustEnvelope(t, "order.shipped", map[string]string{"orderId": "order_1"})

	out, known, err := tr.Translate(in)
	require.NoError(t, err)
	require.False(t, known)
	require.Nil(t, out)
}

func TestTranslate_MalformedPayload(t *testing.T) {
	tr := NewTranslator()

	in := &events.Envelope{
		EventID:   events.NewEventID(),
		EventType: events.TypeOrderCreated,
		Version:   events.Version,
		Data:      json.RawMessage(`{"orderId": 42}`),
	}

	out, known, err := tr.Translate(in)
	require.Error(t, err)
	require.True(t, known)
	require.Nil(t, out)
}
