package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/flash-sale/internal/notification/service"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"github.com/sakashimaa/flash-sale/pkg/kafka"
	"github.com/sakashimaa/flash-sale/pkg/mylogger"
	"go.uber.org/zap"
)

type Consumer struct {
	translator *service.Translator
	producer   kafka.Producer
	logger     *zap.Logger
}

func NewConsumer(translator *service.Translator, producer kafka.Producer, logger *zap.Logger) *Consumer {
	return &Consumer{
		translator: translator,
		producer:   producer,
		logger:     logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		events.GroupNotificationService,
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

	out, known, err := c.translator.Translate(&envelope)
	if err != nil {
		mylogger.Error(
			ctx,
			c.logger,
			"Failed to translate event",
			zap.String("event_type", envelope.EventType),
			zap.String("event_id", envelope.EventID),
			zap.Error(err),
		)
		return err
	}

	if !known {
		mylogger.Warn(ctx, c.logger, "Dropped unknown event type", zap.String("event_type", envelope.EventType))
		return nil
	}

	if out == nil {
		return nil
	}

	if err := c.producer.PublishEvent(ctx, events.TopicNotificationEvents, out); err != nil {
		mylogger.Error(ctx, c.logger, "Failed to publish notification", zap.Error(err))
		return err
	}

	mylogger.Info(
		ctx,
		c.logger,
		"Published notification",
		zap.String("notification_type", out.EventType),
		zap.String("source_event_id", envelope.EventID),
	)

	return nil
}
