package handler

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/service"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type ProductHandler struct {
	products service.ProductService
	validate *validator.Validate
	timeout  time.Duration
	logger   *zap.Logger
}

func NewProductHandler(products service.ProductService, timeout time.Duration, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		validate: newValidator(),
		timeout:  timeout,
		logger:   logger,
	}
}

type SaveProductInput struct {
	ID            string `json:"id" validate:"omitempty,excludes=/"`
	Name          string `json:"name" validate:"required,min=1,max=100"`
	Description   string `json:"description" validate:"max=1000"`
	Price         int64  `json:"price" validate:"gte=0"`
	StockQuantity int64  `json:"stock" validate:"gte=0"`
}

func (in *SaveProductInput) toDomain() *domain.Product {
	return &domain.Product{
		ID:            in.ID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
	}
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	return h.save(c, "", fiber.StatusCreated)
}

// Update replaces the product stored under :id, creating it if needed.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	return h.save(c, c.Params("id"), fiber.StatusOK)
}

func (h *ProductHandler) save(c *fiber.Ctx, id string, status int) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	input := new(SaveProductInput)
	if err := c.BodyParser(input); err != nil {
		return writeValidationError(ctx, c, h.logger, err)
	}
	if id != "" {
		input.ID = id
	}

	if err := h.validate.Struct(input); err != nil {
		return writeValidationError(ctx, c, h.logger, err)
	}

	product, err := h.products.Save(ctx, input.toDomain())
	if err != nil {
		return writeError(ctx, c, h.logger, "save product failed", err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"save product succeeded",
		zap.String("product_id", product.ID),
	)

	return c.Status(status).JSON(product)
}

func (h *ProductHandler) FindByID(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	product, err := h.products.FindByID(ctx, c.Params("id"))
	if err != nil {
		return writeError(ctx, c, h.logger, "find by id failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(product)
}

func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	products, err := h.products.List(ctx)
	if err != nil {
		return writeError(ctx, c, h.logger, "list products failed", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"products":    products,
		"total_count": len(products),
	})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	id := c.Params("id")

	if err := h.products.Delete(ctx, id); err != nil {
		return writeError(ctx, c, h.logger, "delete product failed", err)
	}

	mylogger.Info(ctx, h.logger, "product deleted", zap.String("product_id", id))

	return c.SendStatus(fiber.StatusNoContent)
}
