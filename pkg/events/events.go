package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kafka topics shared by every service.
const (
	TopicOrderEvents        = "order.events"
	TopicInventoryEvents    = "inventory.events"
	TopicNotificationEvents = "notification.events"
)

// Consumer groups, one per independently scaled service.
const (
	GroupOrderService        = "order-service-group"
	GroupInventoryService    = "inventory-service-group"
	GroupNotificationService = "notification-service-group"
	GroupAPIGateway          = "api-gateway-group"
)

const (
	TypeOrderCreated = "order.created"
	TypeOrderSaved   = "order.saved"

	TypeOrderConfirmed = "order.confirmed"
	TypeOrderCancelled = "order.cancelled"

	TypeInventoryReserved     = "inventory.reserved"
	TypeInventoryInsufficient = "inventory.insufficient"

	TypeNotificationOrderUpdate = "notification.order_update"
	TypeNotificationStockUpdate = "notification.stock_update"
)

const Version = "1.0"

// Envelope is the wire format for every event on every topic. Data stays raw
// until the consumer knows the event type.
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	Timestamp time.Time       `json:"timestamp"`
	Version   string          `json:"version"`
	Data      json.RawMessage `json:"data"`
}

// NewEnvelope wraps a payload into a freshly stamped envelope.
func NewEnvelope(eventType string, data any) (*Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}

	return &Envelope{
		EventID:   NewEventID(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Version:   Version,
		Data:      raw,
	}, nil
}

func NewEventID() string {
	return "event_" + uuid.NewString()
}

func NewOrderID() string {
	return "order_" + uuid.NewString()
}

type OrderCreatedData struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type OrderSavedData struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Status    string `json:"status"`
}

type OrderConfirmedData struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type OrderCancelledData struct {
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason"`
}

type InventoryReservedData struct {
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	Quantity       int64  `json:"quantity"`
	RemainingStock int64  `json:"remainingStock"`
}

type InventoryInsufficientData struct {
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	Quantity       int64  `json:"quantity"`
	AvailableStock int64  `json:"availableStock"`
	Reason         string `json:"reason"`
}

type OrderUpdateData struct {
	OrderID     string `json:"orderId"`
	UserID      string `json:"userId"`
	Status      string `json:"status"`
	ProductName string `json:"productName,omitempty"`
	Message     string `json:"message"`
}

type StockUpdateData struct {
	ProductID      string `json:"productId"`
	AvailableStock int64  `json:"availableStock"`
	TotalSold      int64  `json:"totalSold,omitempty"`
	Message        string `json:"message"`
}
