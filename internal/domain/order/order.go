package order

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/storefront-api/internal/domain/page"
)

// Order is a placed customer order. Total is the price at purchase time and
// is never recomputed from the current catalog.
type Order struct {
	ID     primitive.ObjectID
	UserID string
	Items  []OrderItem
	Total  decimal.Decimal
}

// OrderItem represents a single line item in an order.
type OrderItem struct {
	ProductID primitive.ObjectID
	Quantity  int
}

// EnrichedOrder is an order joined with the products its items reference.
type EnrichedOrder struct {
	ID    string
	Total decimal.Decimal
	Items []EnrichedItem
}

// EnrichedItem is a line item with the referenced product's public details.
type EnrichedItem struct {
	Quantity int
	Product  ProductDetails
}

// ProductDetails is the subset of a product exposed in order listings.
type ProductDetails struct {
	ID   string
	Name string
}

// Writer persists new orders.
type Writer interface {
	// Create inserts o and returns the identifier generated by the store.
	Create(ctx context.Context, o *Order) (primitive.ObjectID, error)
}

// Reader lists orders joined with their products.
type Reader interface {
	// ListByUser returns the req window of userID's orders, newest first.
	// Items referencing missing products are dropped, and orders left
	// without items are dropped as well; the window is applied before the join.
	ListByUser(ctx context.Context, userID string, req page.Request) ([]EnrichedOrder, error)
}

// Repository defines persistence operations for orders.
type Repository interface {
	Writer
	Reader
}
