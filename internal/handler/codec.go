package handler

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront-api/internal/domain/page"
)

// bodyError is reported for any request body that is not the expected JSON.
type bodyError struct {
	err error
}

func (e *bodyError) Error() string {
	return "invalid request body: " + e.err.Error()
}

func (e *bodyError) Unwrap() error { return e.err }

// badQueryError names a query parameter that failed to parse.
type badQueryError struct {
	Param string
}

func (e *badQueryError) Error() string {
	return e.Param + " must be an integer"
}

// badPathError names a path parameter with an invalid escape sequence.
type badPathError struct {
	Param string
}

func (e *badPathError) Error() string {
	return e.Param + " is not a valid path segment"
}

// pathParam returns the unescaped value of a route parameter. chi matches
// against RawPath when it is set, so the value may still be escaped.
func pathParam(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", &badPathError{Param: name}
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

func writeID(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(id) })
		})
	})
}

// decodeBody reads a JSON object from the request and hands every field to fn.
func decodeBody(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return &bodyError{err: err}
	}
	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return &bodyError{err: errors.New("expected JSON object")}
	}
	if err := d.Obj(fn); err != nil {
		return &bodyError{err: err}
	}
	return nil
}

// decodeDecimal accepts a JSON number or a numeric string.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(s)
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Decimal{}, err
		}
		return decimal.NewFromString(n.String())
	default:
		return decimal.Decimal{}, errors.Errorf("unexpected %s for decimal", d.Next())
	}
}

func encodeDecimal(e *jx.Encoder, v decimal.Decimal) {
	e.Num(jx.Num(v.String()))
}

// pageRequest reads limit and offset from the query string.
func pageRequest(q url.Values) (page.Request, error) {
	req := page.Request{Limit: page.DefaultLimit}
	if raw := q.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return page.Request{}, &badQueryError{Param: "limit"}
		}
		req.Limit = v
	}
	if raw := q.Get("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return page.Request{}, &badQueryError{Param: "offset"}
		}
		req.Offset = v
	}
	return req, nil
}

// encodePage writes {"next":..,"limit":..,"previous":..}. Neighbour links
// repeat path and extra with the adjacent offset, or are null.
func encodePage(e *jx.Encoder, path string, extra url.Values, p page.Page) {
	link := func(e *jx.Encoder, offset int) {
		q := url.Values{}
		for k, v := range extra {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(p.Limit))
		q.Set("offset", strconv.Itoa(offset))
		e.Str(path + "?" + q.Encode())
	}

	e.Obj(func(e *jx.Encoder) {
		e.Field("next", func(e *jx.Encoder) {
			if !p.HasNext() {
				e.Null()
				return
			}
			link(e, *p.Next)
		})
		e.Field("limit", func(e *jx.Encoder) { e.Int(p.Limit) })
		e.Field("previous", func(e *jx.Encoder) {
			if !p.HasPrevious() {
				e.Null()
				return
			}
			link(e, *p.Previous)
		})
	})
}
