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

type CartHandler struct {
	cart     service.CartService
	validate *validator.Validate
	timeout  time.Duration
	logger   *zap.Logger
}

func NewCartHandler(cart service.CartService, timeout time.Duration, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cart:     cart,
		validate: newValidator(),
		timeout:  timeout,
		logger:   logger,
	}
}

type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required,excludes=/"`
	Quantity  int64  `json:"quantity" validate:"gt=0"`
}

// UpdateQuantityInput allows zero and negative quantities; they remove the line.
type UpdateQuantityInput struct {
	Quantity *int64 `json:"quantity" validate:"required"`
}

type cartResponse struct {
	UserID string            `json:"user_id"`
	Items  []domain.CartItem `json:"items"`
}

func newCartResponse(userID string, items []domain.CartItem) cartResponse {
	if items == nil {
		items = []domain.CartItem{}
	}

	return cartResponse{UserID: userID, Items: items}
}

func (h *CartHandler) GetItems(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	userID := c.Params("userId")

	items, err := h.cart.GetItems(ctx, userID)
	if err != nil {
		return writeError(ctx, c, h.logger, "get cart failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(newCartResponse(userID, items))
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	input := new(AddItemInput)
	if err := c.BodyParser(input); err != nil {
		return writeValidationError(ctx, c, h.logger, err)
	}

	if err := h.validate.Struct(input); err != nil {
		return writeValidationError(ctx, c, h.logger, err)
	}

	userID := c.Params("userId")

	items, err := h.cart.AddItem(ctx, userID, input.ProductID, input.Quantity)
	if err != nil {
		return writeError(ctx, c, h.logger, "add cart item failed", err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", input.ProductID),
		zap.Int64("quantity", input.Quantity),
	)

	return c.Status(fiber.StatusCreated).JSON(newCartResponse(userID, items))
}

func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	input := new(UpdateQuantityInput)
	if err := c.BodyParser(input); err != nil {
		return writeValidationError(ctx, c, h.logger, err)
	}

	if err := h.validate.Struct(input); err != nil {
		return writeValidationError(ctx, c, h.logger, err)
	}

	userID := c.Params("userId")
	productID := c.Params("productId")

	items, err := h.cart.UpdateQuantity(ctx, userID, productID, *input.Quantity)
	if err != nil {
		return writeError(ctx, c, h.logger, "update cart item failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(newCartResponse(userID, items))
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	if err := h.cart.RemoveItem(ctx, c.Params("userId"), c.Params("productId")); err != nil {
		return writeError(ctx, c, h.logger, "remove cart item failed", err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) GetTotal(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	userID := c.Params("userId")

	total, err := h.cart.GetTotal(ctx, userID)
	if err != nil {
		return writeError(ctx, c, h.logger, "cart total failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user_id": userID,
		"total":   total,
	})
}
