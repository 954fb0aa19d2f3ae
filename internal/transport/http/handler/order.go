package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/service"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"go.uber.org/zap"
)

type OrderHandler struct {
	orders  service.OrderService
	timeout time.Duration
	logger  *zap.Logger
}

func NewOrderHandler(orders service.OrderService, timeout time.Duration, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		timeout: timeout,
		logger:  logger,
	}
}

func (h *OrderHandler) Confirm(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	userID := c.Params("userId")

	order, err := h.orders.CreateOrder(ctx, userID)
	if err != nil {
		return writeError(ctx, c, h.logger, "confirm order failed", err)
	}

	mylogger.Info(
		ctx,
		h.logger,
		"confirm order succeeded",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
	)

	return c.Status(fiber.StatusCreated).JSON(order)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, c.Params("id"))
	if err != nil {
		return writeError(ctx, c, h.logger, "get order failed", err)
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

// ListOrders returns every order, or only one user's when user_id is set.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	var (
		orders []domain.Order
		err    error
	)

	if userID := c.Query("user_id"); userID != "" {
		orders, err = h.orders.ListUserOrders(ctx, userID)
	} else {
		orders, err = h.orders.GetAllOrders(ctx)
	}
	if err != nil {
		return writeError(ctx, c, h.logger, "list orders failed", err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"orders":      orders,
		"total_count": len(orders),
	})
}
