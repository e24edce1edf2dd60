package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/flash-sale/internal/inventory/service"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	service service.InventoryService
	logger  *zap.Logger
}

func NewConsumer(service service.InventoryService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		events.GroupInventoryService,
		[]string{events.TopicOrderEvents},
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

	if envelope.EventType != events.TypeOrderSaved {
		// order.created/confirmed/cancelled need no reservation work.
		return nil
	}

	var data events.OrderSavedData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		mylogger.Error(ctx, c.logger, "Failed to unmarshal order.saved", zap.Error(err))
		return err
	}

	mylogger.Info(
		ctx,
		c.logger,
		"Processing order.saved",
		zap.String("event_id", envelope.EventID),
		zap.String("order_id", data.OrderID),
	)

	if err := c.service.HandleOrderSaved(ctx, &data); err != nil {
		mylogger.Error(ctx, c.logger, "Failed to handle order.saved", zap.Error(err))
		return err
	}

	return nil
}
