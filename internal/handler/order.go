package handler

import (
	"net/http"
	"net/url"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront-api/internal/domain/order"
)

// placeOrder handles POST /api/orders. A client supplied total is read and
// discarded.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req order.PlaceOrderRequest
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "userId":
			v, err := d.Str()
			req.UserID = v
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeOrderItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	id, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeID(w, id.Hex())
}

func decodeOrderItem(d *jx.Decoder) (order.ItemRequest, error) {
	var item order.ItemRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "productId":
			v, err := d.Str()
			item.ProductID = v
			return err
		case "qty":
			v, err := d.Int()
			item.Quantity = v
			return err
		default:
			return d.Skip()
		}
	})
	return item, err
}

// listOrders handles GET /api/orders/{userId}.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := pathParam(r, "userId")
	if err != nil {
		fail(w, r, err)
		return
	}

	req, err := pageRequest(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}

	orders, p, err := h.history.ListByUser(r.Context(), userID, req)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("data", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, o := range orders {
						encodeEnrichedOrder(e, o)
					}
				})
			})
			e.Field("page", func(e *jx.Encoder) {
				encodePage(e, "/api/orders/"+url.PathEscape(userID), nil, p)
			})
		})
	})
}

func encodeEnrichedOrder(e *jx.Encoder, o order.EnrichedOrder) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("total", func(e *jx.Encoder) { encodeDecimal(e, o.Total) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("qty", func(e *jx.Encoder) { e.Int(item.Quantity) })
						e.Field("productDetails", func(e *jx.Encoder) {
							e.Obj(func(e *jx.Encoder) {
								e.Field("id", func(e *jx.Encoder) { e.Str(item.Product.ID) })
								e.Field("name", func(e *jx.Encoder) { e.Str(item.Product.Name) })
							})
						})
					})
				}
			})
		})
	})
}
