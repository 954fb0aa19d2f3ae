package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/kafka"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

// CacheEvictor drops a cached product so the next lookup reads the store.
type CacheEvictor interface {
	Evict(ctx context.Context, id string) error
}

// Consumer evicts cached products on catalog changes published on
// product_events. Instances share one group id, so each message reaches a
// single instance; that is enough because the cache lives in shared Redis.
type Consumer struct {
	evictor CacheEvictor
	logger  *zap.Logger
}

func NewConsumer(evictor CacheEvictor, logger *zap.Logger) *Consumer {
	return &Consumer{
		evictor: evictor,
		logger:  logger,
	}
}

func (c *Consumer) Start(ctx context.Context, brokers []string, groupID string) error {
	consumerGroup := kafka.NewConsumerGroup(
		brokers,
		groupID,
		[]string{domain.TopicProductEvents},
		c.processMessage,
		c.logger,
	)

	return consumerGroup.Run(ctx)
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	mylogger.Debug(
		ctx,
		c.logger,
		"Processing message",
		zap.String("topic", msg.Topic),
	)

	type EventWrapper struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload"`
	}

	var wrapper EventWrapper
	if err := json.Unmarshal(msg.Value, &wrapper); err != nil {
		mylogger.Error(ctx, c.logger, "Error unmarshalling wrapper", zap.Error(err))
		return err
	}

	switch wrapper.Event {
	case domain.EventProductUpdated, domain.EventProductDeleted:
		var event domain.ProductEvent
		if err := json.Unmarshal(wrapper.Payload, &event); err != nil {
			mylogger.Warn(ctx, c.logger, "Error unmarshalling event structure", zap.Error(err))
			return err
		}

		if event.ProductID == "" {
			return fmt.Errorf("%s without product_id", wrapper.Event)
		}

		if err := c.evictor.Evict(ctx, event.ProductID); err != nil {
			mylogger.Warn(ctx, c.logger, "Error evicting product", zap.String("product_id", event.ProductID), zap.Error(err))
			return err
		}

		mylogger.Debug(
			ctx,
			c.logger,
			"Product evicted from cache",
			zap.String("product_id", event.ProductID),
			zap.String("event_type", wrapper.Event),
		)
	case domain.EventProductCreated:
	default:
		mylogger.Warn(ctx, c.logger, "Ignored event type", zap.String("event_type", wrapper.Event))
	}

	return nil
}
