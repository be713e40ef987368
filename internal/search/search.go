// Package search filters in-memory collections by a free-text query.
package search

import "strings"

// Field extracts one searchable string from an item. Optional fields return
// "" when unset.
type Field[T any] func(T) string

// Filter returns the items for which any field contains query, compared
// case-insensitively. An empty query returns items unchanged. The input slice
// is never modified; a non-empty query always yields a new slice.
func Filter[T any](items []T, query string, fields ...Field[T]) []T {
	if query == "" {
		return items
	}
	q := strings.ToLower(query)
	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(item)), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// Optional adapts a *string accessor into a Field.
func Optional[T any](get func(T) *string) Field[T] {
	return func(item T) string {
		if s := get(item); s != nil {
			return *s
		}
		return ""
	}
}
