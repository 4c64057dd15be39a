package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront-api/internal/domain/page"
)

// Lister serves paginated order history.
type Lister struct {
	orders Reader
}

// NewLister creates a Lister over the given order reader.
func NewLister(orders Reader) *Lister {
	return &Lister{orders: orders}
}

// ListByUser returns one window of userID's orders joined with product
// details, newest first.
//
// An empty window is reported as NoOrdersFoundError rather than an empty
// page. Orders whose every item references a deleted product are dropped by
// the join, so a window may hold fewer than req.Limit orders even when more
// exist beyond it.
func (l *Lister) ListByUser(ctx context.Context, userID string, req page.Request) ([]EnrichedOrder, page.Page, error) {
	if err := req.Validate(); err != nil {
		return nil, page.Page{}, err
	}

	orders, err := l.orders.ListByUser(ctx, userID, req)
	if err != nil {
		return nil, page.Page{}, errors.Wrap(err, "list orders")
	}
	if len(orders) == 0 {
		return nil, page.Page{}, &NoOrdersFoundError{UserID: userID}
	}

	return orders, page.New(req, len(orders)), nil
}
