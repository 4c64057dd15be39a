// Package handler exposes the order and catalog services over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/page"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// OrderPlacer creates orders.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (primitive.ObjectID, error)
}

// OrderLister reads a user's order history.
type OrderLister interface {
	ListByUser(ctx context.Context, userID string, req page.Request) ([]order.EnrichedOrder, page.Page, error)
}

// Catalog manages products.
type Catalog interface {
	Create(ctx context.Context, p product.Product) (primitive.ObjectID, error)
	List(ctx context.Context, f product.Filter, req page.Request) ([]product.Product, page.Page, error)
}

// Handler serves the storefront API.
type Handler struct {
	orders   OrderPlacer
	history  OrderLister
	products Catalog
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders OrderPlacer, history OrderLister, products Catalog) *Handler {
	return &Handler{
		orders:   orders,
		history:  history,
		products: products,
	}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.welcome)
	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.placeOrder)
		r.Get("/orders/{userId}", h.listOrders)
		r.Post("/products", h.createProduct)
		r.Get("/products", h.listProducts)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

func (h *Handler) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("Welcome to the E-commerce API!") })
		})
	})
}
