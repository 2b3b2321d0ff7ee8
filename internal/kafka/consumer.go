package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/segmentio/kafka-go"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads order events from one or more topics in a consumer group.
type Consumer struct {
	reader messageReader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topics []string, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Consumer{reader: reader, logger: log}
}

// Run hands every decoded event to handle until ctx is cancelled. Messages
// are committed after handle returns, whether or not it failed.
func (c *Consumer) Run(ctx context.Context, handle func(context.Context, models.OrderEvent) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var event models.OrderEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping malformed message on %s: %v", msg.Topic, err))
		} else if err := handle(ctx, event); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Handler failed for order %s on %s: %v", event.OrderID, msg.Topic, err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Commit failed on %s: %v", msg.Topic, err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
