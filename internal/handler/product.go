package handler

import (
	"net/http"
	"net/url"

	"github.com/go-faster/jx"

	"github.com/xenking/storefront-api/internal/domain/product"
)

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p product.Product
	err := decodeBody(w, r, func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "price":
			v, err := decodeDecimal(d)
			p.Price = v
			return err
		case "sizes":
			return d.Arr(func(d *jx.Decoder) error {
				var sz product.Size
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "size":
						v, err := d.Str()
						sz.Size = v
						return err
					case "quantity":
						v, err := d.Int()
						sz.Quantity = v
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				p.Sizes = append(p.Sizes, sz)
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

	id, err := h.products.Create(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeID(w, id.Hex())
}

// listProducts handles GET /api/products. Filters are echoed in page links.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := pageRequest(q)
	if err != nil {
		fail(w, r, err)
		return
	}
	f := product.Filter{Name: q.Get("name"), Size: q.Get("size")}

	products, p, err := h.products.List(r.Context(), f, req)
	if err != nil {
		fail(w, r, err)
		return
	}

	filters := url.Values{}
	if f.Name != "" {
		filters.Set("name", f.Name)
	}
	if f.Size != "" {
		filters.Set("size", f.Size)
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("data", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, item := range products {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Str(item.ID.Hex()) })
							e.Field("name", func(e *jx.Encoder) { e.Str(item.Name) })
							e.Field("price", func(e *jx.Encoder) { encodeDecimal(e, item.Price) })
						})
					}
				})
			})
			e.Field("page", func(e *jx.Encoder) { encodePage(e, "/api/products", filters, p) })
		})
	})
}
