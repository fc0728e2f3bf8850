package learning

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/filter"
)

// SnapshotStore persists whole collections, one snapshot per kind.
type SnapshotStore interface {
	// LoadSnapshot returns core.ErrNotFound when the kind was never saved.
	LoadSnapshot(ctx context.Context, kind string) ([]byte, error)
	SaveSnapshot(ctx context.Context, kind string, data []byte) error
}

// Records is the collection of one record kind.
// Reads derive filtered views; writes replace the collection then save a snapshot of it.
type Records[T Record] struct {
	kind  string
	coll  *filter.Collection[T]
	where func(Query) []filter.Predicate[T]
	store SnapshotStore

	mu sync.Mutex // serializes writes, so snapshots are saved in mutation order
}

func newRecords[T Record](kind string, store SnapshotStore, where func(Query) []filter.Predicate[T]) *Records[T] {
	return &Records[T]{
		kind:  kind,
		coll:  filter.NewCollection(func(r T) string { return r.RecordID() }),
		where: where,
		store: store,
	}
}

// Kind is the collection name used in URLs and snapshot keys ("courses", "development-plans"...).
func (r *Records[T]) Kind() string { return r.kind }

func (r *Records[T]) Columns() []string {
	var zero T
	return zero.Columns()
}

func (r *Records[T]) Len() int { return r.coll.Len() }

func (r *Records[T]) All() []T { return r.coll.Items() }

// List returns the records matching q, in collection order.
func (r *Records[T]) List(q Query) []T {
	q.Clean()
	return r.coll.Filter(r.where(q)...)
}

// Filter returns the records matching every predicate.
func (r *Records[T]) Filter(preds ...filter.Predicate[T]) []T {
	return r.coll.Filter(preds...)
}

func (r *Records[T]) Get(id string) (T, error) {
	return r.coll.Get(id)
}

func (r *Records[T]) Add(ctx context.Context, items ...T) error {
	return r.write(ctx, func() error {
		r.coll.Add(items...)
		return nil
	})
}

// Update replaces the record identified by id with fn's result.
func (r *Records[T]) Update(ctx context.Context, id string, fn func(T) T) (T, error) {
	var updated T
	err := r.write(ctx, func() (err error) {
		updated, err = r.coll.Replace(id, fn)
		return err
	})
	return updated, err
}

// Delete removes the record identified by id. It refuses to act unless confirmed.
func (r *Records[T]) Delete(ctx context.Context, id string, confirmed bool) (T, error) {
	var removed T
	if !confirmed {
		return removed, core.ErrConfirmationRequired
	}
	err := r.write(ctx, func() (err error) {
		removed, err = r.coll.Remove(id)
		return err
	})
	return removed, err
}

// write applies mutate then saves the new snapshot; the collection is rolled back when saving fails.
func (r *Records[T]) write(ctx context.Context, mutate func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.coll.Items()
	if err := mutate(); err != nil {
		return err
	}
	if err := r.save(ctx); err != nil {
		r.coll.Reset(prev)
		return errors.Wrapf(err, "saving %s", r.kind)
	}
	return nil
}

func (r *Records[T]) save(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.coll.Snapshot(func(items []T) error {
		data, err := json.Marshal(items)
		if err != nil {
			return errors.Wrap(err, "encoding snapshot")
		}
		return r.store.SaveSnapshot(ctx, r.kind, data)
	})
}

// load fills the collection from its last snapshot, or from seed (saved as the first snapshot)
// when none exists.
func (r *Records[T]) load(ctx context.Context, seed []T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store != nil {
		data, err := r.store.LoadSnapshot(ctx, r.kind)
		switch errors.Cause(err) {
		case nil:
			items := make([]T, 0)
			if err := json.Unmarshal(data, &items); err != nil {
				return errors.Wrapf(err, "decoding %s snapshot", r.kind)
			}
			r.coll.Reset(items)
			return nil
		case core.ErrNotFound:
		default:
			return errors.Wrapf(err, "loading %s snapshot", r.kind)
		}
	}

	r.coll.Reset(seed)
	if len(seed) == 0 {
		return nil
	}
	return errors.Wrapf(r.save(ctx), "saving %s seed", r.kind)
}
