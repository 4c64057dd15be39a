// Package page implements limit/offset pagination shared by listing endpoints.
package page

import (
	"github.com/go-faster/errors"
)

// DefaultLimit is used when the caller does not pass a limit.
const DefaultLimit = 10

var (
	// ErrInvalidLimit is returned when limit is smaller than 1.
	ErrInvalidLimit = errors.New("limit must be greater than or equal to 1")
	// ErrInvalidOffset is returned when offset is negative.
	ErrInvalidOffset = errors.New("offset must be greater than or equal to 0")
)

// Request is a limit/offset window over an ordered result set.
type Request struct {
	Limit  int
	Offset int
}

// Validate checks the window bounds.
func (r Request) Validate() error {
	if r.Limit < 1 {
		return ErrInvalidLimit
	}
	if r.Offset < 0 {
		return ErrInvalidOffset
	}
	return nil
}

// Page describes the neighbours of a returned window. Next and Previous hold
// the offsets of the adjacent windows, nil when there is none.
type Page struct {
	Limit    int
	Next     *int
	Previous *int
}

// HasNext reports whether a following window may exist.
func (p Page) HasNext() bool { return p.Next != nil }

// HasPrevious reports whether a preceding window exists.
func (p Page) HasPrevious() bool { return p.Previous != nil }

// New builds page metadata for a window that returned n rows.
//
// Next is set only when the window came back full, so a result whose size is
// an exact multiple of the limit yields one trailing request that finds
// nothing.
func New(req Request, n int) Page {
	p := Page{Limit: req.Limit}
	if n == req.Limit {
		next := req.Offset + req.Limit
		p.Next = &next
	}
	if req.Offset > 0 {
		prev := max(0, req.Offset-req.Limit)
		p.Previous = &prev
	}
	return p
}
