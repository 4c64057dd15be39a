package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order validation.
var (
	ErrEmptyItems     = errors.New("items required")
	ErrUserIDRequired = errors.New("userId required")
	ErrTotalRange     = errors.New("order total out of range")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// NoOrdersFoundError is returned when a listing window has no orders with
// linked products.
type NoOrdersFoundError struct {
	UserID string
}

func (e *NoOrdersFoundError) Error() string {
	return fmt.Sprintf("no orders found for user_id '%s' with linked products", e.UserID)
}
