package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/order"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OrderPublisher sends order events to Kafka, keyed by order id so every
// event of one order lands on the same partition.
type OrderPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     *logrus.Logger
}

// NewOrderPublisher returns a Kafka publisher, or a no-op publisher when no
// brokers are configured.
func NewOrderPublisher(cfg config.KafkaConfig, log *logrus.Logger) order.EventPublisher {
	if len(cfg.Brokers) == 0 {
		log.Info("Kafka brokers not configured, order events disabled")
		return order.NoopPublisher{}
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.OrderTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	log.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.OrderTopic,
	}).Info("Kafka order publisher ready")

	return newOrderPublisher(w, cfg.WriteTimeout, log)
}

func newOrderPublisher(w messageWriter, timeout time.Duration, log *logrus.Logger) *OrderPublisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OrderPublisher{writer: w, timeout: timeout, log: log}
}

// Publish writes one event synchronously, bounded by the write timeout
func (p *OrderPublisher) Publish(ctx context.Context, event order.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.OrderID), 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write order event: %w", err)
	}

	p.log.WithFields(logrus.Fields{
		"event_type": event.Type,
		"order_id":   event.OrderID,
	}).Debug("order event published")
	return nil
}

// Close flushes and closes the underlying writer
func (p *OrderPublisher) Close() error {
	return p.writer.Close()
}
