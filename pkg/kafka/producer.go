package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/flash-sale/pkg/events"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Producer publishes event envelopes. Messages are keyed by event id so
// downstream consumers can deduplicate; the broker itself does no dedup.
type Producer interface {
	PublishEvent(ctx context.Context, topic string, event *events.Envelope) error
	Close() error
}

type producer struct {
	syncProducer sarama.SyncProducer
}

func NewProducer(brokers []string) (Producer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	p, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("error creating producer: %w", err)
	}

	return &producer{syncProducer: p}, nil
}

// NewProducerFromSarama wraps an existing sarama producer, used by tests.
func NewProducerFromSarama(p sarama.SyncProducer) Producer {
	return &producer{syncProducer: p}
}

func (p *producer) PublishEvent(ctx context.Context, topic string, event *events.Envelope) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("error marshalling event %s: %w", event.EventID, err)
	}

	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]sarama.RecordHeader, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(event.EventID),
		Value:   sarama.ByteEncoder(value),
		Headers: headers,
	}

	if _, _, err := p.syncProducer.SendMessage(msg); err != nil {
		return fmt.Errorf("error sending %s to %s: %w", event.EventType, topic, err)
	}

	return nil
}

func (p *producer) Close() error {
	return p.syncProducer.Close()
}
