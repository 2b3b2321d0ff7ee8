package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes order lifecycle events keyed by order id.
type Producer struct {
	Writer messageWriter
	topics config.TopicConfig
	logger *logger.Logger
}

func NewProducer(brokers []string, topics config.TopicConfig, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{Writer: writer, topics: topics, logger: log}
}

func (p *Producer) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.topics.OrderCreated, order)
}

func (p *Producer) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.topics.OrderPaid, order)
}

func (p *Producer) PublishOrderFailed(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.topics.OrderFailed, order)
}

func (p *Producer) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, p.topics.OrderCancelled, order)
}

func (p *Producer) publish(ctx context.Context, topic string, order *models.Order) error {
	msg, err := orderMessage(topic, order)
	if err != nil {
		return err
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	p.logger.LogKafka("PUBLISHED", topic, order.ID)
	return nil
}

func orderMessage(topic string, order *models.Order) (kafka.Message, error) {
	value, err := json.Marshal(models.NewOrderEvent(order))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal order event: %w", err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(order.ID),
		Value: value,
	}, nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// LogPublisher stands in for the producer when Kafka is disabled.
type LogPublisher struct {
	Logger *logger.Logger
}

func (l LogPublisher) log(kind string, order *models.Order) error {
	l.Logger.Debug("KAFKA", fmt.Sprintf("kafka disabled, skipping order.%s for %s", kind, order.ID))
	return nil
}

func (l LogPublisher) PublishOrderCreated(_ context.Context, order *models.Order) error {
	return l.log("created", order)
}

func (l LogPublisher) PublishOrderPaid(_ context.Context, order *models.Order) error {
	return l.log("paid", order)
}

func (l LogPublisher) PublishOrderFailed(_ context.Context, order *models.Order) error {
	return l.log("failed", order)
}

func (l LogPublisher) PublishOrderCancelled(_ context.Context, order *models.Order) error {
	return l.log("cancelled", order)
}
