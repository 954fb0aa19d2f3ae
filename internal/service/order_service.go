package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/repository"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	outboxDomain "github.com/sakashimaa/storefront/pkg/outbox/domain"
	"github.com/sakashimaa/storefront/pkg/outbox/worker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type OrderService interface {
	// CreateOrder turns the user's cart into a confirmed order. The order, the
	// cart clear and the OrderConfirmed event are committed together or not at all.
	CreateOrder(ctx context.Context, userID string) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetAllOrders(ctx context.Context) ([]domain.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error)
}

type OrderOptions struct {
	MaxConcurrentLookups int
}

type orderService struct {
	cartRepo   repository.CartRepository
	orderRepo  repository.OrderRepository
	outboxRepo worker.OutboxRepository
	uow        repository.UnitOfWork
	resolver   *lineResolver
	locks      *UserLocks
	logger     *zap.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

func NewOrderService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	outboxRepo worker.OutboxRepository,
	uow repository.UnitOfWork,
	lookup ProductLookup,
	locks *UserLocks,
	logger *zap.Logger,
	opts OrderOptions,
) OrderService {
	return &orderService{
		cartRepo:   cartRepo,
		orderRepo:  orderRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		resolver:   newLineResolver(lookup, opts.MaxConcurrentLookups),
		locks:      locks,
		logger:     logger,
		tracer:     otel.Tracer("order_service"),
		now:        time.Now,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, userID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder")
	defer span.End()

	span.SetAttributes(attribute.String("user_id", userID))

	if err := validateID("user", userID); err != nil {
		return nil, err
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	items, err := s.cartRepo.ListItems(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	sortCartItems(items)

	lines, err := s.resolver.resolve(ctx, items)
	if err != nil {
		span.RecordError(err)

		mylogger.Warn(
			ctx,
			s.logger,
			"Cannot resolve cart for order",
			zap.String("user_id", userID),
			zap.Error(err),
		)

		return nil, err
	}

	order := &domain.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    domain.OrderStatusConfirmed,
		Items:     make([]domain.OrderItem, 0, len(lines)),
		CreatedAt: s.now().UTC(),
	}

	for _, line := range lines {
		if !line.product.Available(line.item.Quantity) {
			return nil, fmt.Errorf(
				"%w: product %s has %d, requested %d",
				ErrInsufficientStock,
				line.item.ProductID,
				line.product.StockQuantity,
				line.item.Quantity,
			)
		}
		order.Items = append(order.Items, line.item)
	}
	if err := order.CalculateTotal(); err != nil {
		return nil, err
	}

	batch := docstore.NewBatch()
	if err := s.orderRepo.Create(ctx, batch, order); err != nil {
		return nil, fmt.Errorf("error staging order: %w", err)
	}
	s.cartRepo.Clear(ctx, batch, userID, items)

	if err := s.stageConfirmed(batch, order); err != nil {
		return nil, err
	}

	if err := s.uow.Commit(ctx, batch); err != nil {
		span.RecordError(err)

		mylogger.Error(
			ctx,
			s.logger,
			"Failed to confirm order",
			zap.String("user_id", userID),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)

		return nil, fmt.Errorf("error confirming order: %w", err)
	}

	span.SetAttributes(
		attribute.String("order_id", order.ID),
		attribute.Int64("total", order.TotalSum),
	)

	mylogger.Info(
		ctx,
		s.logger,
		"Order confirmed",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.Int("items_count", len(order.Items)),
		zap.Int64("total", order.TotalSum),
	)

	return order, nil
}

func (s *orderService) stageConfirmed(batch *docstore.Batch, order *domain.Order) error {
	items := make([]domain.OrderItemEvent, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, domain.OrderItemEvent{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	event, err := outboxDomain.NewEnvelopeEvent(
		domain.TopicOrderEvents,
		"Order",
		order.ID,
		domain.EventOrderConfirmed,
		domain.OrderConfirmedEvent{
			OrderID:     order.ID,
			UserID:      order.UserID,
			Total:       order.TotalSum,
			Items:       items,
			ConfirmedAt: order.CreatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("event payload marshal error: %w", err)
	}

	if err := s.outboxRepo.SaveOutboxEvent(batch, event); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

func (s *orderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if err := validateID("order", id); err != nil {
		return nil, err
	}

	return s.orderRepo.GetByID(ctx, id)
}

func (s *orderService) GetAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orderRepo.List(ctx)
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	if err := validateID("user", userID); err != nil {
		return nil, err
	}

	all, err := s.orderRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0)
	for _, o := range all {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}

	return orders, nil
}
