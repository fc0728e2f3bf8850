// Package filter derives filtered views of in-memory collections.
//
// A view is built from independent pieces of filter state (search text, selected
// category, selected status, ...). Each piece becomes a Predicate; a record is kept only
// when every predicate holds. Deriving a view never reorders or mutates its input.
package filter

import "strings"

// All is the sentinel selection meaning "do not filter on this dimension".
const All = "all"

type (
	// Predicate decides whether a record belongs to a view.
	Predicate[T any] func(T) bool

	// Field extracts a string attribute from a record.
	Field[T any] func(T) string

	// Values extracts a list of string attributes (tags, roles...) from a record.
	Values[T any] func(T) []string
)

// IsAll reports whether a selection disables its filter: empty or the "all" sentinel ("all", "All").
func IsAll(selected string) bool {
	s := strings.TrimSpace(selected)
	return s == "" || s == All || s == "All"
}

// Apply returns the records of items satisfying every predicate, in input order.
// The result is always a new slice, even when no predicate is given.
func Apply[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Match(item, preds...) {
			out = append(out, item)
		}
	}
	return out
}

// Match reports whether item satisfies every predicate. Nil predicates are skipped.
func Match[T any](item T, preds ...Predicate[T]) bool {
	for _, p := range preds {
		if p != nil && !p(item) {
			return false
		}
	}
	return true
}

// And combines predicates with logical AND.
func And[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool { return Match(item, preds...) }
}

// Or combines predicates with logical OR. An empty Or matches everything.
func Or[T any](preds ...Predicate[T]) Predicate[T] {
	return func(item T) bool {
		if len(preds) == 0 {
			return true
		}
		for _, p := range preds {
			if p != nil && p(item) {
				return true
			}
		}
		return false
	}
}

// Not negates a predicate. A nil predicate matches everything, so its negation matches nothing.
func Not[T any](p Predicate[T]) Predicate[T] {
	return func(item T) bool { return p != nil && !p(item) }
}

// Search matches records where query is a case-insensitive substring of any of fields.
// A blank query matches everything.
func Search[T any](query string, fields ...Field[T]) Predicate[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(item T) bool {
		if q == "" {
			return true
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f(item)), q) {
				return true
			}
		}
		return false
	}
}

// SearchValues is Search over list attributes: any of the values may contain query.
func SearchValues[T any](query string, values Values[T]) Predicate[T] {
	q := strings.ToLower(strings.TrimSpace(query))
	return func(item T) bool {
		if q == "" {
			return true
		}
		for _, v := range values(item) {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
		return false
	}
}

// SearchAny matches records where any of the terms is found by Search in fields.
// Blank terms are ignored; no usable term matches everything.
func SearchAny[T any](terms []string, fields ...Field[T]) Predicate[T] {
	preds := make([]Predicate[T], 0, len(terms))
	for _, term := range terms {
		if strings.TrimSpace(term) != "" {
			preds = append(preds, Search(term, fields...))
		}
	}
	return Or(preds...)
}

// Equals matches records whose field equals selected exactly (case-sensitive).
// It is bypassed when selected is the "all" sentinel or empty.
func Equals[T any](selected string, field Field[T]) Predicate[T] {
	if IsAll(selected) {
		return nil
	}
	return func(item T) bool { return field(item) == selected }
}

// OneOf matches records whose field equals any of the selections.
// It is bypassed when nothing, or the "all" sentinel, is selected.
func OneOf[T any](selected []string, field Field[T]) Predicate[T] {
	set := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		if IsAll(s) {
			return nil
		}
		set[s] = struct{}{}
	}
	if len(set) == 0 {
		return nil
	}
	return func(item T) bool {
		_, ok := set[field(item)]
		return ok
	}
}

// Bool matches records whose flag equals *want. A nil want disables the filter.
func Bool[T any](want *bool, flag func(T) bool) Predicate[T] {
	if want == nil {
		return nil
	}
	w := *want
	return func(item T) bool { return flag(item) == w }
}
