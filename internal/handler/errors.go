package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/order"
	"github.com/xenking/storefront-api/internal/domain/page"
	"github.com/xenking/storefront-api/internal/domain/product"
)

// statusOf maps a service error to an HTTP status. Zero means unrecognized.
func statusOf(err error) int {
	var (
		bodyErr  *bodyError
		queryErr *badQueryError
		pathErr  *badPathError
		idErr    *product.InvalidIDError
		sizeErr  *product.InvalidSizeError
		pnfErr   *order.ProductNotFoundError
		noneErr  *order.NoOrdersFoundError
		qtyErr   *order.InvalidQuantityError
	)
	switch {
	case errors.As(err, &bodyErr),
		errors.As(err, &queryErr),
		errors.As(err, &pathErr),
		errors.As(err, &idErr),
		errors.As(err, &sizeErr),
		errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrUserIDRequired),
		errors.Is(err, order.ErrTotalRange),
		errors.Is(err, product.ErrNameRequired),
		errors.Is(err, product.ErrNegativePrice),
		errors.Is(err, product.ErrPriceRange),
		errors.Is(err, page.ErrInvalidLimit),
		errors.Is(err, page.ErrInvalidOffset):
		return http.StatusBadRequest
	case errors.As(err, &pnfErr), errors.As(err, &noneErr):
		return http.StatusNotFound
	case errors.As(err, &qtyErr):
		return http.StatusUnprocessableEntity
	default:
		return 0
	}
}

// fail writes the error envelope for err. Unrecognized errors are logged and
// reported as 500 without details.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := statusOf(err); status != 0 {
		writeError(w, status, err.Error())
		return
	}
	zctx.From(r.Context()).Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}
