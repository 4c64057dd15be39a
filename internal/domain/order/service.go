package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-api/internal/domain/product"
)

const defaultLookupConcurrency = 8

// Catalog resolves product references at order time.
type Catalog interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*product.Product, error)
}

// ItemRequest is a line item as supplied by the client.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// PlaceOrderRequest holds the input for placing an order. Any client
// supplied total is not part of the request: totals are always computed.
type PlaceOrderRequest struct {
	UserID string
	Items  []ItemRequest
}

// Options configures a Service.
type Options struct {
	// LookupConcurrency bounds parallel product lookups. Defaults to 8.
	LookupConcurrency int
	// MeterProvider records order counters. Defaults to a no-op provider.
	MeterProvider metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.LookupConcurrency <= 0 {
		o.LookupConcurrency = defaultLookupConcurrency
	}
	if o.MeterProvider == nil {
		o.MeterProvider = noop.NewMeterProvider()
	}
}

// Service encapsulates order placement business logic.
type Service struct {
	products    Catalog
	orders      Writer
	concurrency int

	created  metric.Int64Counter
	rejected metric.Int64Counter
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products Catalog, orders Writer, opts Options) (*Service, error) {
	opts.setDefaults()

	meter := opts.MeterProvider.Meter("github.com/xenking/storefront-api/internal/domain/order")
	created, err := meter.Int64Counter("shop.orders.created",
		metric.WithDescription("Orders persisted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}
	rejected, err := meter.Int64Counter("shop.orders.rejected",
		metric.WithDescription("Order requests rejected by validation"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create counter")
	}

	return &Service{
		products:    products,
		orders:      orders,
		concurrency: opts.LookupConcurrency,
		created:     created,
		rejected:    rejected,
	}, nil
}

// PlaceOrder validates every item, prices the order from the catalog and
// persists it with a single insert. Validation is done before any write, so a
// failed request leaves the store untouched.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (primitive.ObjectID, error) {
	if req.UserID == "" {
		return primitive.NilObjectID, s.reject(ctx, "user", ErrUserIDRequired)
	}
	if len(req.Items) == 0 {
		return primitive.NilObjectID, s.reject(ctx, "items", ErrEmptyItems)
	}

	items := make([]OrderItem, len(req.Items))
	for i, item := range req.Items {
		id, err := product.ParseID(item.ProductID)
		if err != nil {
			return primitive.NilObjectID, s.reject(ctx, "reference", err)
		}
		if item.Quantity <= 0 {
			return primitive.NilObjectID, s.reject(ctx, "quantity", &InvalidQuantityError{ProductID: item.ProductID})
		}
		items[i] = OrderItem{ProductID: id, Quantity: item.Quantity}
	}

	byID, err := s.lookup(ctx, items)
	if err != nil {
		return primitive.NilObjectID, err
	}

	total := decimal.Zero
	for i, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return primitive.NilObjectID, s.reject(ctx, "product", &ProductNotFoundError{ProductID: req.Items[i].ProductID})
		}
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !product.AmountInRange(total) {
		return primitive.NilObjectID, s.reject(ctx, "total", ErrTotalRange)
	}

	id, err := s.orders.Create(ctx, &Order{
		UserID: req.UserID,
		Items:  items,
		Total:  total,
	})
	if err != nil {
		return primitive.NilObjectID, errors.Wrap(err, "create order")
	}

	s.created.Add(ctx, 1)
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("order.id", id.Hex()),
		attribute.Int("order.items", len(items)),
	)
	return id, nil
}

// lookup fetches every distinct product referenced by items. Missing products
// are absent from the result; store failures cancel the remaining lookups.
func (s *Service) lookup(ctx context.Context, items []OrderItem) (map[primitive.ObjectID]*product.Product, error) {
	seen := make(map[primitive.ObjectID]struct{}, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}

	found := make([]*product.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.products.GetByID(gctx, id)
			if errors.Is(err, product.ErrNotFound) {
				return nil
			}
			if err != nil {
				return errors.Wrapf(err, "get product %s", id.Hex())
			}
			found[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]*product.Product, len(ids))
	for i, p := range found {
		if p != nil {
			byID[ids[i]] = p
		}
	}
	return byID, nil
}

func (s *Service) reject(ctx context.Context, reason string, err error) error {
	s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	return err
}
