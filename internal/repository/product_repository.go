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

type ProductRepository interface {
	Save(ctx context.Context, batch *docstore.Batch, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, batch *docstore.Batch, id string)
}

type productRepo struct {
	store  docstore.Store
	tracer trace.Tracer
	logger *zap.Logger
}

func NewProductRepository(store docstore.Store, logger *zap.Logger) ProductRepository {
	return &productRepo{
		store:  store,
		tracer: otel.Tracer("contract/product_repo"),
		logger: logger,
	}
}

func (r *productRepo) Save(_ context.Context, batch *docstore.Batch, product *domain.Product) error {
	return batch.SetJSON(productPath(product.ID), product)
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.GetByID")
	defer span.End()

	span.SetAttributes(
		attribute.String("id", id),
	)

	product, err := docstore.GetJSON[domain.Product](ctx, r.store, productPath(id))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProductNotFound
		}

		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error get by id",
			zap.String("id", id),
			zap.Error(err),
		)

		return nil, storeErr("error getting product", err)
	}

	return product, nil
}

func (r *productRepo) List(ctx context.Context) ([]domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.List")
	defer span.End()

	products, err := docstore.ListJSON[domain.Product](ctx, r.store, productsCollection)
	if err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			r.logger,
			"Error getting products",
			zap.Error(err),
		)

		return nil, storeErr("error listing products", err)
	}

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})

	span.SetAttributes(attribute.Int("result_count", len(products)))
	return products, nil
}

func (r *productRepo) Delete(_ context.Context, batch *docstore.Batch, id string) {
	batch.Delete(productPath(id))
}
