package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors wrap one of these so the transport layer can
// pick a status with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// ErrAmountOverflow is returned when a price or quantity sum leaves the int64 range.
var ErrAmountOverflow = fmt.Errorf("%w: amount out of range", ErrValidation)
