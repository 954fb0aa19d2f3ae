package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderRepository interface {
	// Create stages the order in batch.
	Create(ctx context.Context, batch *docstore.Batch, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// List returns every order, oldest first.
	List(ctx context.Context) ([]domain.Order, error)
}

type orderRepo struct {
	store  docstore.Store
	tracer trace.Tracer
	logger *zap.Logger
}

func NewOrderRepository(store docstore.Store, logger *zap.Logger) OrderRepository {
	return &orderRepo{
		store:  store,
		tracer: otel.Tracer("order_repository"),
		logger: logger,
	}
}

func (r *orderRepo) Create(ctx context.Context, batch *docstore.Batch, order *domain.Order) error {
	_, span := r.tracer.Start(ctx, "OrderRepository.Create")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.String("user_id", order.UserID),
		attribute.Int("items_count", len(order.Items)),
	)

	if err := batch.SetJSON(orderPath(order.ID), order); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", id),
	)

	order, err := docstore.GetJSON[domain.Order](ctx, r.store, orderPath(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrOrderNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to get order",
			zap.String("order_id", id),
			zap.Error(err),
		)

		return nil, storeErr("error getting order", err)
	}

	return order, nil
}

func (r *orderRepo) List(ctx context.Context) ([]domain.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	orders, err := docstore.ListJSON[domain.Order](ctx, r.store, ordersCollection)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to list orders",
			zap.Error(err),
		)

		return nil, storeErr("error listing orders", err)
	}

	sort.SliceStable(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID < orders[j].ID
	})

	span.SetAttributes(attribute.Int("result_count", len(orders)))
	return orders, nil
}
