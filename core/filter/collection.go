package filter

import (
	"sync"

	"github.com/trezcool/academia/core"
)

// Identifier returns the identity of a record within its collection.
type Identifier[T any] func(T) string

// Collection holds the records of one kind. Every mutation swaps the held slice for a new
// one built from the old (replace-on-match, filter-out), so slices handed out earlier are
// never modified.
type Collection[T any] struct {
	mu    sync.RWMutex
	items []T
	id    Identifier[T]
}

func NewCollection[T any](id Identifier[T], items ...T) *Collection[T] {
	c := &Collection[T]{id: id}
	c.items = append(make([]T, 0, len(items)), items...)
	return c
}

// Items returns a copy of all records, in order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append(make([]T, 0, len(c.items)), c.items...)
}

func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Filter derives the view of records satisfying every predicate.
func (c *Collection[T]) Filter(preds ...Predicate[T]) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Apply(c.items, preds...)
}

func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.id(item) == id {
			return item, nil
		}
	}
	var zero T
	return zero, core.ErrNotFound
}

// Add appends records to the end of the collection.
func (c *Collection[T]) Add(items ...T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]T, 0, len(c.items)+len(items))
	next = append(next, c.items...)
	c.items = append(next, items...)
}

// Reset replaces the whole collection.
func (c *Collection[T]) Reset(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(make([]T, 0, len(items)), items...)
}

// Replace maps the record identified by id through fn and returns the new record.
// Positions of all records are kept.
func (c *Collection[T]) Replace(id string, fn func(T) T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		updated T
		found   bool
	)
	next := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if !found && c.id(item) == id {
			item = fn(item)
			updated, found = item, true
		}
		next = append(next, item)
	}
	if !found {
		return updated, core.ErrNotFound
	}
	c.items = next
	return updated, nil
}

// Remove drops the record identified by id; the relative order of the others is kept.
func (c *Collection[T]) Remove(id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		removed T
		found   bool
	)
	next := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if !found && c.id(item) == id {
			removed, found = item, true
			continue
		}
		next = append(next, item)
	}
	if !found {
		return removed, core.ErrNotFound
	}
	c.items = next
	return removed, nil
}

// Snapshot runs fn with the current records while holding the read lock, so fn observes
// a state no concurrent mutation has half-applied.
func (c *Collection[T]) Snapshot(fn func(items []T) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.items)
}
