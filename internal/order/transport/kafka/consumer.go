package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/flash-sale/internal/order/service"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	service service.OrderService
	logger  *zap.Logger
}

func NewConsumer(service service.OrderService, logger *zap.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		events.GroupOrderService,
		[]string{events.TopicOrderEvents, events.TopicInventoryEvents},
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

	mylogger.Debug(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
		zap.String("event_type", envelope.EventType),
		zap.String("event_id", envelope.EventID),
	)

	switch envelope.EventType {
	case events.TypeOrderCreated:
		var data events.OrderCreatedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal order.created", zap.Error(err))
			return err
		}

		if err := c.service.HandleOrderCreated(ctx, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle order.created", zap.Error(err))
			return err
		}
	case events.TypeInventoryReserved:
		var data events.InventoryReservedData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal inventory.reserved", zap.Error(err))
			return err
		}

		if err := c.service.HandleInventoryReserved(ctx, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle inventory.reserved", zap.Error(err))
			return err
		}
	case events.TypeInventoryInsufficient:
		var data events.InventoryInsufficientData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to unmarshal inventory.insufficient", zap.Error(err))
			return err
		}

		if err := c.service.HandleInventoryInsufficient(ctx, &data); err != nil {
			mylogger.Error(ctx, c.logger, "Failed to handle inventory.insufficient", zap.Error(err))
			return err
		}
	default:
		// order.saved/confirmed/cancelled on our own topic, nothing to do.
		mylogger.Debug(ctx, c.logger, "Ignored event type", zap.String("event_type", envelope.EventType))
	}

	return nil
}
