package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/flash-sale/internal/gateway/ws"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.uber.org/zap"
)

// Consumer bridges notification events into the websocket hub.
type Consumer struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewConsumer(hub *ws.Hub, logger *zap.Logger) *Consumer {
	return &Consumer{
		hub:    hub,
		logger: logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		events.GroupAPIGateway,
		[]string{events.TopicNotificationEvents},
		c.processMessage,
		c.logger,
	)

	return consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var envelope events.Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling envelope", zap.Error(err))
		return err
	}

	switch envelope.EventType {
	case events.TypeNotificationOrderUpdate:
		var data events.OrderUpdateData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal order_update", zap.Error(err))
			return err
		}

		c.hub.PushOrderUpdate(data.OrderID, &data)
	case events.TypeNotificationStockUpdate:
		var data events.StockUpdateData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal stock_update", zap.Error(err))
			return err
		}

		c.hub.PushStockUpdate(&data)
	default:
		mylogger.Warn(ctx, c.logger, "Unknown event type", zap.String("event_type", envelope.EventType))
	}

	return nil
}
