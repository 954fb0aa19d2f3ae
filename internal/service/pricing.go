package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakashimaa/storefront/internal/domain"
	"golang.org/x/sync/errgroup"
)

const defaultMaxConcurrentLookups = 8

// ProductLookup resolves a product id to its current catalog entry.
type ProductLookup interface {
	FindByID(ctx context.Context, id string) (*domain.Product, error)
}

type pricedLine struct {
	item    domain.OrderItem
	product *domain.Product
}

// lineResolver prices cart lines against the catalog. Lookups run
// concurrently; results keep the order of the input lines.
type lineResolver struct {
	lookup        ProductLookup
	maxConcurrent int
}

func newLineResolver(lookup ProductLookup, maxConcurrent int) *lineResolver {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentLookups
	}

	return &lineResolver{lookup: lookup, maxConcurrent: maxConcurrent}
}

func (r *lineResolver) resolve(ctx context.Context, items []domain.CartItem) ([]pricedLine, error) {
	lines := make([]pricedLine, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)

	for idx, item := range items {
		g.Go(func() error {
			p, err := r.lookup.FindByID(gctx, item.ProductID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return fmt.Errorf("%w: %s: %w", ErrProductUnavailable, item.ProductID, err)
				}
				return fmt.Errorf("resolve product %s: %w", item.ProductID, err)
			}

			lines[idx] = pricedLine{
				item: domain.OrderItem{
					ProductID: p.ID,
					Name:      p.Name,
					Price:     p.Price,
					Quantity:  item.Quantity,
				},
				product: p,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *lineResolver) total(ctx context.Context, items []domain.CartItem) (int64, error) {
	lines, err := r.resolve(ctx, items)
	if err != nil {
		return 0, err
	}

	orderItems := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		orderItems = append(orderItems, l.item)
	}

	return domain.SumItems(orderItems)
}
