package repository

import (
	"context"

	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// UnitOfWork commits writes staged by several repositories as one atomic
// batch.
type UnitOfWork interface {
	Commit(ctx context.Context, batch *docstore.Batch) error
}

type unitOfWork struct {
	store  docstore.Store
	tracer trace.Tracer
	logger *zap.Logger
}

func NewUnitOfWork(store docstore.Store, logger *zap.Logger) UnitOfWork {
	return &unitOfWork{
		store:  store,
		tracer: otel.Tracer("contract/unit_of_work"),
		logger: logger,
	}
}

func (u *unitOfWork) Commit(ctx context.Context, batch *docstore.Batch) error {
	ctx, span := u.tracer.Start(ctx, "UnitOfWork.Commit")
	defer span.End()

	span.SetAttributes(attribute.Int("batch.size", batch.Len()))

	if err := u.store.Commit(ctx, batch); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			u.logger,
			"Failed to commit batch",
			zap.Int("batch_size", batch.Len()),
			zap.Error(err),
		)

		return storeErr("commit batch", err)
	}

	return nil
}
