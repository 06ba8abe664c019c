// Package listing holds the generic list primitives shared by the table
// engine and the list pages: filter, sort and 1-based pagination.
package listing

import (
	"cmp"
	"slices"
	"strings"
)

// DefaultPageSize applies when a page size of zero or less is requested.
const DefaultPageSize = 10

// Filter keeps the items for which keep returns true.
func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// Contains is a case-insensitive substring test. An empty needle matches.
func Contains(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Search keeps the items where any of the texts returned by fields
// contains q.
func Search[T any](items []T, q string, fields func(T) []string) []T {
	if strings.TrimSpace(q) == "" {
		return items
	}
	return Filter(items, func(it T) bool {
		for _, s := range fields(it) {
			if Contains(s, q) {
				return true
			}
		}
		return false
	})
}

// SortBy returns a stably sorted copy ordered by key.
func SortBy[T any, K cmp.Ordered](items []T, key func(T) K, desc bool) []T {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b T) int {
		c := cmp.Compare(key(a), key(b))
		if desc {
			return -c
		}
		return c
	})
	return out
}

// Page is one slice of a paginated list.
type Page[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int
	TotalPages int
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }

// Paginate cuts items into pages. Pages are 1-based; out-of-range pages
// are clamped.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * size
	end := min(start+size, total)
	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
	}
}
