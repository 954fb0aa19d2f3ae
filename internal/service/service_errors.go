package service

import (
	"errors"
	"fmt"

	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/docstore"
)

var (
	ErrInvalidQuantity   = fmt.Errorf("%w: quantity must be greater than zero", domain.ErrValidation)
	ErrInvalidID         = fmt.Errorf("%w: identifier must be non-empty and must not contain '/'", domain.ErrValidation)
	ErrInvalidProduct    = fmt.Errorf("%w: invalid product", domain.ErrValidation)
	ErrInvalidAddPolicy  = fmt.Errorf("%w: unknown add policy", domain.ErrValidation)
	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", domain.ErrConflict)
	ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", domain.ErrConflict)

	// ErrProductUnavailable marks a cart line whose product can no longer be
	// resolved. It is joined with the underlying NotFound error.
	ErrProductUnavailable = errors.New("product unavailable")
)

func validateID(kind, id string) error {
	if !docstore.ValidSegment(id) {
		return fmt.Errorf("%s %q: %w", kind, id, ErrInvalidID)
	}

	return nil
}
