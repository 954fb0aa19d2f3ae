package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/repository"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AddPolicy decides what AddItem does when the product is already in the cart.
type AddPolicy string

const (
	// MergeQuantities adds the new quantity to the existing line.
	MergeQuantities AddPolicy = "merge"
	// ReplaceQuantity overwrites the existing line's quantity.
	ReplaceQuantity AddPolicy = "replace"
)

func ParseAddPolicy(s string) (AddPolicy, error) {
	switch AddPolicy(s) {
	case MergeQuantities, "":
		return MergeQuantities, nil
	case ReplaceQuantity:
		return ReplaceQuantity, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidAddPolicy)
	}
}

type CartService interface {
	AddItem(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartItem, error)
	// UpdateQuantity removes the line when quantity is not positive.
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, productID string) error
	GetItems(ctx context.Context, userID string) ([]domain.CartItem, error)
	// GetTotal prices the cart with current catalog prices, the same way
	// checkout does.
	GetTotal(ctx context.Context, userID string) (int64, error)
}

type CartOptions struct {
	Policy               AddPolicy
	MaxConcurrentLookups int
}

type cartService struct {
	cartRepo repository.CartRepository
	lookup   ProductLookup
	resolver *lineResolver
	locks    *UserLocks
	policy   AddPolicy
	logger   *zap.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewCartService(
	cartRepo repository.CartRepository,
	lookup ProductLookup,
	locks *UserLocks,
	logger *zap.Logger,
	opts CartOptions,
) CartService {
	if opts.Policy == "" {
		opts.Policy = MergeQuantities
	}

	return &cartService{
		cartRepo: cartRepo,
		lookup:   lookup,
		resolver: newLineResolver(lookup, opts.MaxConcurrentLookups),
		locks:    locks,
		policy:   opts.Policy,
		logger:   logger,
		tracer:   otel.Tracer("cart_service"),
		now:      time.Now,
	}
}

func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartItem, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", productID),
		attribute.Int64("quantity", quantity),
	)

	if err := validateLine(userID, productID); err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if _, err := s.lookup.FindByID(ctx, productID); err != nil {
		mylogger.Warn(ctx, s.logger, "Cannot add product to cart", zap.String("product_id", productID), zap.Error(err))
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now().UTC()

	item, err := s.cartRepo.GetItem(ctx, userID, productID)
	switch {
	case errors.Is(err, repository.ErrCartItemNotFound):
		item = &domain.CartItem{
			ID:        uuid.NewString(),
			ProductID: productID,
			Quantity:  quantity,
			AddedAt:   now,
		}
	case err != nil:
		span.RecordError(err)
		return nil, err
	case s.policy == ReplaceQuantity:
		item.Quantity = quantity
	case quantity > math.MaxInt64-item.Quantity:
		return nil, fmt.Errorf("%w: line already holds %d", ErrInvalidQuantity, item.Quantity)
	default:
		item.Quantity += quantity
	}
	item.UpdatedAt = now

	if err := s.cartRepo.SaveItem(ctx, userID, item); err != nil {
		span.RecordError(err)
		return nil, err
	}

	mylogger.Debug(
		ctx,
		s.logger,
		"Cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", productID),
		zap.Int64("quantity", item.Quantity),
		zap.String("policy", string(s.policy)),
	)

	return s.listItems(ctx, userID)
}

func (s *cartService) UpdateQuantity(ctx context.Context, userID, productID string, quantity int64) ([]domain.CartItem, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.UpdateQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", productID),
		attribute.Int64("quantity", quantity),
	)

	if err := validateLine(userID, productID); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	item, err := s.cartRepo.GetItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		if err := s.cartRepo.DeleteItem(ctx, userID, productID); err != nil {
			span.RecordError(err)
			return nil, err
		}

		mylogger.Debug(ctx, s.logger, "Cart item removed by update", zap.String("user_id", userID), zap.String("product_id", productID))
		return s.listItems(ctx, userID)
	}

	item.Quantity = quantity
	item.UpdatedAt = s.now().UTC()

	if err := s.cartRepo.SaveItem(ctx, userID, item); err != nil {
		span.RecordError(err)
		return nil, err
	}

	return s.listItems(ctx, userID)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) error {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("product_id", productID),
	)

	if err := validateLine(userID, productID); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.cartRepo.DeleteItem(ctx, userID, productID); err != nil {
		span.RecordError(err)
		return err
	}

	return nil
}

func (s *cartService) GetItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if err := validateID("user", userID); err != nil {
		return nil, err
	}

	return s.listItems(ctx, userID)
}

func (s *cartService) GetTotal(ctx context.Context, userID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetTotal")
	defer span.End()

	items, err := s.GetItems(ctx, userID)
	if err != nil {
		return 0, err
	}

	total, err := s.resolver.total(ctx, items)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int64("total", total))
	return total, nil
}

func (s *cartService) listItems(ctx context.Context, userID string) ([]domain.CartItem, error) {
	items, err := s.cartRepo.ListItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	sortCartItems(items)
	return items, nil
}

func sortCartItems(items []domain.CartItem) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})
}

func validateLine(userID, productID string) error {
	if err := validateID("user", userID); err != nil {
		return err
	}

	return validateID("product", productID)
}
