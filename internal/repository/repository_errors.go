package repository

import (
	"errors"
	"fmt"

	"github.com/sakashimaa/storefront/internal/domain"
	"github.com/sakashimaa/storefront/pkg/docstore"
)

var (
	ErrCartItemNotFound = fmt.Errorf("cart item %w", domain.ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", domain.ErrNotFound)
)

// storeErr attaches domain.ErrStoreUnavailable to retryable store failures.
func storeErr(msg string, err error) error {
	if errors.Is(err, docstore.ErrUnavailable) {
		return fmt.Errorf("%s: %w: %w", msg, domain.ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
