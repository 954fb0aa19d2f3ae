package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/utils"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// errCallerGone marks lookups that failed after the caller stopped waiting.
var errCallerGone = errors.New("lookup abandoned by caller")

// BreakerProductLookup stops calling the catalog after repeated failures.
// Missing products, bad ids and abandoned lookups do not count as failures.
type BreakerProductLookup struct {
	next ProductLookup
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerProductLookup(next ProductLookup, cfg utils.BreakerConfig, logger *zap.Logger) *BreakerProductLookup {
	if cfg.Name == "" {
		cfg.Name = "ProductLookup"
	}
	cfg.IsSuccessful = func(err error) bool {
		return err == nil ||
			errors.Is(err, domain.ErrNotFound) ||
			errors.Is(err, domain.ErrValidation) ||
			errors.Is(err, errCallerGone)
	}

	return &BreakerProductLookup{
		next: next,
		cb:   utils.NewBreaker(cfg, logger),
	}
}

func (b *BreakerProductLookup) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	product, err := utils.ExecuteWithBreaker(b.cb, func() (*domain.Product, error) {
		product, err := b.next.FindByID(ctx, id)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errCallerGone, err)
		}

		return product, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("product lookup %s: %w: %w", id, domain.ErrStoreUnavailable, err)
	}

	return product, err
}
