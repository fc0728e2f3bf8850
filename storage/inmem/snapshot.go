package inmemdb

import (
	"context"

	"github.com/trezcool/academia/core"
)

// SnapshotStore keeps collection snapshots for the lifetime of the process.
type SnapshotStore struct {
	db *snapshotTable
}

func NewSnapshotStore(db *DB) *SnapshotStore {
	return &SnapshotStore{db: db.snapshots}
}

func (s *SnapshotStore) LoadSnapshot(_ context.Context, kind string) ([]byte, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	data, ok := s.db.table[kind]
	if !ok {
		return nil, core.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *SnapshotStore) SaveSnapshot(_ context.Context, kind string, data []byte) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	s.db.table[kind] = append([]byte(nil), data...)
	return nil
}
