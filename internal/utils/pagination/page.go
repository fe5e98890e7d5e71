package pagination

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 50

	// HeaderName is the response header carrying the Window as JSON.
	HeaderName = "Pagination"
)

// Params is a requested page window. Page is 1-based.
type Params struct {
	Page     int
	PageSize int
}

// Parse reads raw page/pageSize query values.
// Missing values get defaults; present values are validated, never clamped.
func Parse(page, pageSize string) (Params, error) {
	p := Params{Page: DefaultPage, PageSize: DefaultPageSize}

	if s := strings.TrimSpace(page); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, fmt.Errorf("page must be an integer")
		}
		p.Page = n
	}
	if s := strings.TrimSpace(pageSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Params{}, fmt.Errorf("pageSize must be an integer")
		}
		p.PageSize = n
	}

	return p, p.Validate()
}

// Validate rejects page < 1 and pageSize outside (0, MaxPageSize].
func (p Params) Validate() error {
	if p.Page < 1 {
		return fmt.Errorf("page must be >= 1")
	}
	if p.PageSize <= 0 {
		return fmt.Errorf("pageSize must be > 0")
	}
	if p.PageSize > MaxPageSize {
		return fmt.Errorf("pageSize must be <= %d", MaxPageSize)
	}
	return nil
}

func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }
func (p Params) Limit() int  { return p.PageSize }

// Window is the pagination metadata returned alongside a page of results.
type Window struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
}

// NewWindow derives the window from the actual filtered count.
// TotalPages is always ceil(total/pageSize), zero when there are no items.
func NewWindow(total int64, p Params) Window {
	pages := 0
	if total > 0 && p.PageSize > 0 {
		pages = int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	}
	return Window{
		CurrentPage:  p.Page,
		ItemsPerPage: p.PageSize,
		TotalItems:   total,
		TotalPages:   pages,
	}
}

// Header encodes the window for the Pagination response header.
func (w Window) Header() string {
	b, _ := json.Marshal(w)
	return string(b)
}

// Page is a slice of items with its window.
type Page[T any] struct {
	Items  []T
	Window Window
}
