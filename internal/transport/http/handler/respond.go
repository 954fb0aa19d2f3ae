package handler

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/internal/service"
	"github.com/sakashimaa/storefront/pkg/mylogger"
	"github.com/sakashimaa/storefront/pkg/utils"
	"go.uber.org/zap"
)

// StatusFor maps a service error to the HTTP status the client sees.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProductUnavailable):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(ctx context.Context, c *fiber.Ctx, logger *zap.Logger, msg string, err error) error {
	status := StatusFor(err)

	if status >= fiber.StatusInternalServerError {
		mylogger.Error(ctx, logger, msg, zap.Int("http_status", status), zap.Error(err))
	} else {
		mylogger.Warn(ctx, logger, msg, zap.Int("http_status", status), zap.Error(err))
	}

	body := err.Error()
	if status == fiber.StatusInternalServerError {
		body = "internal error"
	}

	return c.Status(status).JSON(fiber.Map{
		"error": body,
	})
}

func writeValidationError(ctx context.Context, c *fiber.Ctx, logger *zap.Logger, err error) error {
	mylogger.Warn(ctx, logger, "request validation failed", zap.Error(err))

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "invalid request",
		"fields": utils.FormatValidationError(err),
	})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}
