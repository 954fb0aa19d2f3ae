package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/repository"
	"github.com/sakashimaa/storefront/pkg/docstore"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	outboxDomain "github.com/sakashimaa/storefront/pkg/outbox/domain"
	"github.com/sakashimaa/storefront/pkg/outbox/worker"
	"go.uber.org/zap"
)

type ProductService interface {
	// Save creates the product, or replaces it when the id already exists.
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	outboxRepo  worker.OutboxRepository
	uow         repository.UnitOfWork
	logger      *zap.Logger
	now         func() time.Time
}

func NewProductService(
	productRepo repository.ProductRepository,
	outboxRepo worker.OutboxRepository,
	uow repository.UnitOfWork,
	logger *zap.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		logger:      logger,
		now:         time.Now,
	}
}

func validateProduct(p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)

	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidProduct)
	}

	if p.ID != "" {
		return validateID("product", p.ID)
	}

	return nil
}

func (s *productService) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	p := *product
	if err := validateProduct(&p); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	eventType := domain.EventProductCreated

	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	} else {
		existing, err := s.productRepo.GetByID(ctx, p.ID)
		switch {
		case err == nil:
			p.CreatedAt = existing.CreatedAt
			eventType = domain.EventProductUpdated
		case errors.Is(err, repository.ErrProductNotFound):
			p.CreatedAt = now
		default:
			return nil, err
		}
	}
	p.UpdatedAt = now

	batch := docstore.NewBatch()
	if err := s.productRepo.Save(ctx, batch, &p); err != nil {
		return nil, fmt.Errorf("error staging product: %w", err)
	}

	if err := s.stageEvent(batch, eventType, p.ID); err != nil {
		return nil, err
	}

	if err := s.uow.Commit(ctx, batch); err != nil {
		mylogger.Error(ctx, s.logger, "Error saving product", zap.String("product_id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("error saving product: %w", err)
	}

	mylogger.Info(ctx, s.logger, "Product saved", zap.String("product_id", p.ID), zap.String("event", eventType))
	return &p, nil
}

func (s *productService) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := validateID("product", id); err != nil {
		return nil, err
	}

	res, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			mylogger.Debug(ctx, s.logger, "product not found", zap.String("product_id", id))
			return nil, err
		}

		mylogger.Error(ctx, s.logger, "error getting product", zap.Error(err))
		return nil, fmt.Errorf("error getting product by id: %w", err)
	}

	return res, nil
}

func (s *productService) List(ctx context.Context) ([]domain.Product, error) {
	list, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}

	return list, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if err := validateID("product", id); err != nil {
		return err
	}

	if _, err := s.productRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			mylogger.Warn(ctx, s.logger, "product not found", zap.String("product_id", id))
		}
		return err
	}

	batch := docstore.NewBatch()
	s.productRepo.Delete(ctx, batch, id)

	if err := s.stageEvent(batch, domain.EventProductDeleted, id); err != nil {
		return err
	}

	if err := s.uow.Commit(ctx, batch); err != nil {
		mylogger.Error(ctx, s.logger, "error deleting product", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("error deleting product: %w", err)
	}

	return nil
}

func (s *productService) stageEvent(batch *docstore.Batch, eventType, productID string) error {
	event, err := outboxDomain.NewEnvelopeEvent(
		domain.TopicProductEvents,
		"Product",
		productID,
		eventType,
		domain.ProductEvent{ProductID: productID},
	)
	if err != nil {
		return fmt.Errorf("event payload marshal error: %w", err)
	}

	if err := s.outboxRepo.SaveOutboxEvent(batch, event); err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}
