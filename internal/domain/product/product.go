package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/storefront-api/internal/domain/page"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Stored amounts are Decimal128: a coefficient of at most 34 digits scaled by
// an exponent in [-6176, 6111].
const (
	maxAmountDigits   = 34
	minAmountExponent = -6176
	maxAmountExponent = 6111
)

// AmountInRange reports whether d can be stored without losing precision.
// Trailing zeros in the coefficient count as significant.
func AmountInRange(d decimal.Decimal) bool {
	digits := d.NumDigits()
	if digits > maxAmountDigits {
		return false
	}
	exp := int(d.Exponent())
	return exp >= minAmountExponent && exp+digits <= maxAmountExponent+maxAmountDigits
}

// InvalidIDError indicates a product reference that is not a valid ObjectID.
type InvalidIDError struct {
	ID string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid productId format: %s", e.ID)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID    primitive.ObjectID
	Name  string
	Price decimal.Decimal
	Sizes []Size
}

// Size is a size label with its available quantity.
type Size struct {
	Size     string
	Quantity int
}

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	// Name matches a case-insensitive substring of the product name.
	Name string
	// Size matches products that offer the exact size label.
	Size string
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error)
	Create(ctx context.Context, p *Product) (primitive.ObjectID, error)
	List(ctx context.Context, f Filter, req page.Request) ([]Product, error)
}

// ParseID converts a hex string into a product reference.
func ParseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &InvalidIDError{ID: raw}
	}
	return id, nil
}
