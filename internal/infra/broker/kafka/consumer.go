package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg *sarama.ConsumerMessage) error
}

// Consumer feeds a consumer group's messages to one handler. A message whose
// handler keeps failing is logged and skipped after MaxAttempts so a single
// bad event cannot stall its partition.
type Consumer struct {
	group       sarama.ConsumerGroup
	handler     MessageHandler
	logger      *slog.Logger
	MaxAttempts int
	RetryDelay  time.Duration
}

func NewConsumer(brokers []string, groupID string, cfg *sarama.Config, handler MessageHandler, logger *slog.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("kafka: consumer handler required")
	}
	if cfg == nil {
		cfg = sarama.NewConfig()
	}
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Return.Errors = true
	group, err := sarama.NewConsumerGroup(brokers, groupID, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: join group %s: %w", groupID, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{group: group, handler: handler, logger: logger, MaxAttempts: 3, RetryDelay: 200 * time.Millisecond}, nil
}

// Run consumes until ctx is cancelled, rejoining the group after rebalances.
func (c *Consumer) Run(ctx context.Context, topics []string) error {
	go func() {
		for err := range c.group.Errors() {
			c.logger.Warn("kafka consumer error", "error", err)
		}
	}()
	for {
		if err := c.group.Consume(ctx, topics, c); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) Setup(sess sarama.ConsumerGroupSession) error {
	c.logger.Info("kafka partitions assigned", "claims", sess.Claims())
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.deliver(sess.Context(), msg); err != nil {
			if sess.Context().Err() != nil {
				return nil
			}
			c.logger.Error("kafka message dropped",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

// deliver retries the handler and converts a panic into an error.
func (c *Consumer) deliver(ctx context.Context, msg *sarama.ConsumerMessage) error {
	attempts := max(c.MaxAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = c.handleSafely(ctx, msg); err == nil {
			return nil
		}
		c.logger.Warn("kafka handler failed", "topic", msg.Topic, "offset", msg.Offset, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay * time.Duration(attempt)):
		}
	}
	return err
}

func (c *Consumer) handleSafely(ctx context.Context, msg *sarama.ConsumerMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kafka: handler panic: %v", r)
		}
	}()
	return c.handler.Handle(ctx, msg)
}
