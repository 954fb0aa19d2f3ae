package repository

import (
	"context"
	"errors"

	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type CartRepository interface {
	ListItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	GetItem(ctx context.Context, userID, productID string) (*domain.CartItem, error)
	SaveItem(ctx context.Context, userID string, item *domain.CartItem) error
	// DeleteItem succeeds when the line does not exist.
	DeleteItem(ctx context.Context, userID, productID string) error
	// Clear stages the removal of items in batch.
	Clear(ctx context.Context, batch *docstore.Batch, userID string, items []domain.CartItem)
}

type cartRepo struct {
	store  docstore.Store
	tracer trace.Tracer
	logger *zap.Logger
}

func NewCartRepository(store docstore.Store, logger *zap.Logger) CartRepository {
	return &cartRepo{
		store:  store,
		tracer: otel.Tracer("contract/cart_repo"),
		logger: logger,
	}
}

func (r *cartRepo) ListItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.ListItems")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
	)

	items, err := docstore.ListJSON[domain.CartItem](ctx, r.store, cartItemsPath(userID))
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to list cart items",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return nil, storeErr("error listing cart items", err)
	}

	span.SetAttributes(attribute.Int("items_count", len(items)))
	return items, nil
}

func (r *cartRepo) GetItem(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.GetItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", productID),
	)

	item, err := docstore.GetJSON[domain.CartItem](ctx, r.store, cartItemPath(userID, productID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to get cart item",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.Error(err),
		)

		return nil, storeErr("error getting cart item", err)
	}

	return item, nil
}

func (r *cartRepo) SaveItem(ctx context.Context, userID string, item *domain.CartItem) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.SaveItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", item.ProductID),
		attribute.Int64("quantity", item.Quantity),
	)

	if err := docstore.SetJSON(ctx, r.store, cartItemPath(userID, item.ProductID), item); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to save cart item",
			zap.String("user_id", userID),
			zap.String("product_id", item.ProductID),
			zap.Error(err),
		)

		return storeErr("error saving cart item", err)
	}

	return nil
}

func (r *cartRepo) DeleteItem(ctx context.Context, userID, productID string) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.DeleteItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", productID),
	)

	if err := r.store.Delete(ctx, cartItemPath(userID, productID)); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Failed to delete cart item",
			zap.String("user_id", userID),
			zap.String("product_id", productID),
			zap.Error(err),
		)

		return storeErr("error deleting cart item", err)
	}

	return nil
}

func (r *cartRepo) Clear(_ context.Context, batch *docstore.Batch, userID string, items []domain.CartItem) {
	for _, item := range items {
		batch.Delete(cartItemPath(userID, item.ProductID))
	}
}
