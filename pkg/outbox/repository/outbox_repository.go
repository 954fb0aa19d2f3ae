package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/pkg/outbox/domain"
	"github.com/sakashimaa/storefront/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	collection = "outbox"
	// deadCollection keeps events that ran out of attempts, out of the worker's scan.
	deadCollection = "outbox_dead"
)

type outboxRepo struct {
	store       docstore.Store
	maxAttempts int64
	tracer      trace.Tracer
	logger      *zap.Logger
	now         func() time.Time
}

func NewOutboxRepository(store docstore.Store, maxAttempts int, logger *zap.Logger) worker.OutboxRepository {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}

	return &outboxRepo{
		store:       store,
		maxAttempts: int64(maxAttempts),
		tracer:      otel.Tracer("contract/outbox_repo"),
		logger:      logger,
		now:         time.Now,
	}
}

func eventPath(id string) string {
	return docstore.Join(collection, id)
}

func deadEventPath(id string) string {
	return docstore.Join(deadCollection, id)
}

func (r *outboxRepo) SaveOutboxEvent(batch *docstore.Batch, event *domain.OutboxEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.now().UTC()
	}

	return batch.SetJSON(eventPath(event.ID), event)
}

func (r *outboxRepo) GetUnpublishedEvents(ctx context.Context, batchSize int) ([]*domain.OutboxEvent, error) {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.GetUnpublishedEvents")
	defer span.End()

	span.SetAttributes(
		attribute.Int("batch_size", batchSize),
	)

	all, err := docstore.ListJSON[domain.OutboxEvent](ctx, r.store, collection)
	if err != nil {
		span.RecordError(err)

		return nil, fmt.Errorf("failed to list outbox events: %w", err)
	}

	events := make([]*domain.OutboxEvent, 0, len(all))
	for i := range all {
		if all[i].Attempts < r.maxAttempts {
			events = append(events, &all[i])
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})

	if batchSize > 0 && len(events) > batchSize {
		events = events[:batchSize]
	}

	span.SetAttributes(
		attribute.Int("result_count", len(events)),
	)

	return events, nil
}

// MarkEventPublished removes the event; a published event has nothing left to do.
func (r *outboxRepo) MarkEventPublished(ctx context.Context, event *domain.OutboxEvent) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkEventPublished")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", event.ID),
	)

	err := r.store.Delete(ctx, eventPath(event.ID))
	if err != nil {
		span.RecordError(err)
	}

	return err
}

func (r *outboxRepo) MarkEventFailed(ctx context.Context, event *domain.OutboxEvent, errMsg string) error {
	ctx, span := r.tracer.Start(ctx, "OutboxRepository.MarkEventFailed")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", event.ID),
		attribute.String("outbox.error_message", errMsg),
	)

	event.Attempts++
	event.LastError = &errMsg

	if event.Attempts < r.maxAttempts {
		err := docstore.SetJSON(ctx, r.store, eventPath(event.ID), event)
		if err != nil {
			span.RecordError(err)
		}

		return err
	}

	batch := docstore.NewBatch()
	if err := batch.SetJSON(deadEventPath(event.ID), event); err != nil {
		return fmt.Errorf("failed to encode dead outbox event: %w", err)
	}
	batch.Delete(eventPath(event.ID))

	if err := r.store.Commit(ctx, batch); err != nil {
		span.RecordError(err)
		return err
	}

	mylogger.Warn(
		ctx,
		r.logger,
		"Outbox event moved to dead letters",
		zap.String("event_id", event.ID),
		zap.Int64("attempts", event.Attempts),
		zap.String("last_error", errMsg),
	)

	return nil
}
