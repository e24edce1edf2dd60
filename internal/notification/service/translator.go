package service

import (
	"encoding/json"
	"fmt"

	"github.com/sakashimaa/flash-sale/pkg/events"
)

// Translator maps domain events to user-facing notification events. It holds
// no state: the mapping is a total function over the closed set of event
// types, with an explicit "no notification" outcome.
type Translator struct{}

func NewTranslator() *Translator {
	return &Translator{}
}

// Translate returns the notification envelope for a domain event. known is
// false for event types outside the closed set; a known type may still
// produce no notification (nil envelope).
func (t *Translator) Translate(envelope *events.Envelope) (out *events.Envelope, known bool, err error) {
	switch envelope.EventType {
	case events.TypeOrderCreated:
		var data events.OrderCreatedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, true, fmt.Errorf("failed to unmarshal order.created: %w", err)
		}

		out, err := events.NewEnvelope(events.TypeNotificationOrderUpdate, &events.OrderUpdateData{
			OrderID: data.OrderID,
			UserID:  data.UserID,
			Status:  "PENDING",
			Message: "Your order has been received and is being processed.",
		})
		return out, true, err

	case events.TypeOrderConfirmed:
		var data events.OrderConfirmedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, true, fmt.Errorf("failed to unmarshal order.confirmed: %w", err)
		}

		out, err := events.NewEnvelope(events.TypeNotificationOrderUpdate, &events.OrderUpdateData{
			OrderID: data.OrderID,
			UserID:  data.UserID,
			Status:  "CONFIRMED",
			Message: "Your order has been confirmed!",
		})
		return out, true, err

	case events.TypeOrderCancelled:
		var data events.OrderCancelledData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, true, fmt.Errorf("failed to unmarshal order.cancelled: %w", err)
		}

		reason := data.Reason
		if reason == "" {
			reason = "Unknown"
		}

		out, err := events.NewEnvelope(events.TypeNotificationOrderUpdate, &events.OrderUpdateData{
			OrderID: data.OrderID,
			UserID:  data.UserID,
			Status:  "CANCELLED",
			Message: fmt.Sprintf("Your order has been cancelled. Reason: %s", reason),
		})
		return out, true, err

	case events.TypeInventoryReserved:
		var data events.InventoryReservedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, true, fmt.Errorf("failed to unmarshal inventory.reserved: %w", err)
		}

		out, err := events.NewEnvelope(events.TypeNotificationStockUpdate, &events.StockUpdateData{
			ProductID:      data.ProductID,
			AvailableStock: data.RemainingStock,
			Message:        stockMessage(data.RemainingStock),
		})
		return out, true, err

	case events.TypeOrderSaved, events.TypeInventoryInsufficient:
		// Covered by the order.created / order.cancelled notifications.
		return nil, true, nil

	default:
		return nil, false, nil
	}
}

func stockMessage(remaining int64) string {
	switch {
	case remaining == 0:
		return "This product is now out of stock!"
	case remaining <= 10:
		return fmt.Sprintf("Only %d items left in stock!", remaining)
	default:
		return fmt.Sprintf("Stock updated: %d items available.", remaining)
	}
}
