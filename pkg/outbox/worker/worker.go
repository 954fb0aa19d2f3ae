package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/pkg/outbox/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OutboxRepository interface {
	// SaveOutboxEvent stages the event in batch; it is stored when the batch commits.
	SaveOutboxEvent(batch *docstore.Batch, event *domain.OutboxEvent) error
	GetUnpublishedEvents(ctx context.Context, batchSize int) ([]*domain.OutboxEvent, error)
	MarkEventPublished(ctx context.Context, event *domain.OutboxEvent) error
	MarkEventFailed(ctx context.Context, event *domain.OutboxEvent, errMsg string) error
}

type KafkaProducer interface {
	ProduceMessage(ctx context.Context, topic, key string, message any) error
}

type Config struct {
	BatchSize int
	Interval  time.Duration
}

type OutboxProcessor struct {
	repo          OutboxRepository
	kafkaProducer KafkaProducer
	logger        *zap.Logger
	batchSize     int
	interval      time.Duration
	tracer        trace.Tracer
}

func NewOutboxProcessor(
	repo OutboxRepository,
	producer KafkaProducer,
	logger *zap.Logger,
	cfg Config,
) *OutboxProcessor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}

	return &OutboxProcessor{
		repo:          repo,
		kafkaProducer: producer,
		logger:        logger,
		batchSize:     cfg.BatchSize,
		interval:      cfg.Interval,
		tracer:        otel.Tracer("outbox-worker"),
	}
}

// Start polls the outbox until ctx is cancelled. Delivery is at least once:
// an event published right before a failed delete is sent again.
func (p *OutboxProcessor) Start(ctx context.Context) {
	mylogger.Info(
		ctx,
		p.logger,
		"Starting outbox processor",
		zap.Duration("interval", p.interval),
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			mylogger.Info(
				ctx,
				p.logger,
				"Outbox processor stopping",
			)

			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				mylogger.Error(
					ctx,
					p.logger,
					"Error processing outbox batch",
					zap.Error(err),
				)
			}
		}
	}
}

// ProcessBatch publishes up to one batch of pending events and returns how
// many were published.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	ctx, span := p.tracer.Start(ctx, "OutboxProcessor.ProcessBatch")
	defer span.End()

	events, err := p.repo.GetUnpublishedEvents(ctx, p.batchSize)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	mylogger.Debug(
		ctx,
		p.logger,
		"Processing outbox events",
		zap.Int("count", len(events)),
	)

	published := 0
	for _, event := range events {
		var payloadMap map[string]any
		if err := json.Unmarshal(event.Payload, &payloadMap); err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"outbox worker unmarshal event payload failed",
				zap.String("id", event.ID),
				zap.Error(err),
			)

			p.markFailed(ctx, event, err)
			continue
		}

		payloadMap["event_id"] = event.ID

		err = p.kafkaProducer.ProduceMessage(
			ctx,
			event.Topic,
			event.AggregateID,
			payloadMap,
		)
		if err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"outbox worker produce message failed",
				zap.String("id", event.ID),
				zap.Error(err),
			)

			p.markFailed(ctx, event, err)
			continue
		}

		if err := p.repo.MarkEventPublished(ctx, event); err != nil {
			mylogger.Error(
				ctx,
				p.logger,
				"outbox worker mark event published failed",
				zap.String("id", event.ID),
				zap.Error(err),
			)

			span.RecordError(err)
			return published, err
		}

		published++
		mylogger.Debug(
			ctx,
			p.logger,
			"outbox worker event published successfully",
			zap.String("id", event.ID),
			zap.String("topic", event.Topic),
		)
	}

	span.SetAttributes(attribute.Int("published", published))
	return published, nil
}

func (p *OutboxProcessor) markFailed(ctx context.Context, event *domain.OutboxEvent, cause error) {
	if err := p.repo.MarkEventFailed(ctx, event, cause.Error()); err != nil {
		mylogger.Error(
			ctx,
			p.logger,
			"outbox worker mark event failed failed",
			zap.String("id", event.ID),
			zap.Error(err),
		)
	}
}
