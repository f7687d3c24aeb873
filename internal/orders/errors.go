package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProfileNotFound = errors.New("buyer profile not found")
	ErrProfileExists   = errors.New("buyer profile already exists")
	ErrStorage         = errors.New("storage error")
	ErrGateway         = errors.New("payment gateway error")

	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrSellerNotFound   = fmt.Errorf("seller %w", ErrNotFound)
)

// StorageError tags a backend failure so callers can match it with ErrStorage.
func StorageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
