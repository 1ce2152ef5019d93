package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// PaginationHeader is the response header search endpoints fill
const PaginationHeader = "Pagination"

// Pagination is the JSON document carried in the pagination header
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalItems   int `json:"totalItems"`
	TotalPages   int `json:"totalPages"`
}

// ParsePagination reads the pagination header; ok is false when the header
// is absent or unreadable.
func ParsePagination(h http.Header) (Pagination, bool) {
	raw := h.Get(PaginationHeader)
	if raw == "" {
		return Pagination{}, false
	}
	var p Pagination
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Pagination{}, false
	}
	return p, true
}

// envelope is the paged body shape some endpoints use instead of a bare array
type envelope[T any] struct {
	Items      *[]T         `json:"items"`
	TotalCount *json.Number `json:"totalCount"`
}

// Page is a decoded list response
type Page[T any] struct {
	Items []T
	Total int
	// FromHeader is true when Total came from the pagination header
	FromHeader bool
}

// DecodePage decodes either a bare JSON array or an {items,totalCount}
// envelope; any other object is an error. Total prefers the pagination header, then totalCount, then the
// number of items.
func DecodePage[T any](resp *Response) (Page[T], error) {
	var page Page[T]

	var items []T
	if err := resp.Decode(&items); err != nil {
		var env envelope[T]
		if envErr := resp.Decode(&env); envErr != nil {
			return page, fmt.Errorf("decode list: %w", err)
		}
		if env.Items == nil && env.TotalCount == nil {
			return page, fmt.Errorf("decode list: object has neither items nor totalCount")
		}
		if env.Items != nil {
			items = *env.Items
		}
		page.Total = len(items)
		if env.TotalCount != nil {
			if n, err := strconv.Atoi(env.TotalCount.String()); err == nil {
				page.Total = n
			}
		}
	} else {
		page.Total = len(items)
	}

	if items == nil {
		items = []T{}
	}
	page.Items = items

	if p, ok := ParsePagination(resp.Header); ok {
		page.Total = p.TotalItems
		page.FromHeader = true
	}
	return page, nil
}
