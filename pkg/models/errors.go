package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced record does not exist for any caller.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden means the caller is authenticated but may not access
	// the record. Existence is not concealed; this is distinct from ErrNotFound.
	ErrForbidden = errors.New("insufficient permissions")

	ErrInvalidInput = errors.New("invalid input")
)

// ProductNotFoundError aborts an order-creation attempt, naming the
// offending product so the client knows which line failed.
type ProductNotFoundError struct {
	ID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ID)
}
