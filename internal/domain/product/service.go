package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/storefront-api/internal/domain/page"
)

// Sentinel errors for product validation.
var (
	ErrNameRequired  = errors.New("name required")
	ErrNegativePrice = errors.New("price must not be negative")
	ErrPriceRange    = errors.New("price out of range")
)

// InvalidSizeError indicates a size entry with a negative quantity.
type InvalidSizeError struct {
	Size string
}

func (e *InvalidSizeError) Error() string {
	return fmt.Sprintf("quantity must not be negative for size %q", e.Size)
}

// Service encapsulates catalog management.
type Service struct {
	products Repository
}

// NewService creates a product Service.
func NewService(products Repository) *Service {
	return &Service{products: products}
}

// Create validates and stores a new product, returning its identifier.
func (s *Service) Create(ctx context.Context, p Product) (primitive.ObjectID, error) {
	if p.Name == "" {
		return primitive.NilObjectID, ErrNameRequired
	}
	if p.Price.IsNegative() {
		return primitive.NilObjectID, ErrNegativePrice
	}
	if !AmountInRange(p.Price) {
		return primitive.NilObjectID, ErrPriceRange
	}
	for _, sz := range p.Sizes {
		if sz.Quantity < 0 {
			return primitive.NilObjectID, &InvalidSizeError{Size: sz.Size}
		}
	}
	if p.Sizes == nil {
		p.Sizes = []Size{}
	}

	id, err := s.products.Create(ctx, &p)
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "create product")
	}
	return id, nil
}

// List returns one window of the catalog matching f. Sizes are not loaded.
func (s *Service) List(ctx context.Context, f Filter, req page.Request) ([]Product, page.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, page.Page{}, err
	}

	products, err := s.products.List(ctx, f, req)
	if err != nil {
		return nil, page.Page{}, errors.Wrap(err, "list products")
	}
	return products, page.New(req, len(products)), nil
}
