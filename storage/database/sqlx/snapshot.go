// Package sqlxrepos implements the repositories on Postgres with sqlx.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/learning"
)

// SnapshotStore keeps one JSONB row per collection.
type SnapshotStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ learning.SnapshotStore = (*SnapshotStore)(nil)

func NewSnapshotStore(db *sqlx.DB) *SnapshotStore {
	return &SnapshotStore{db: db, now: time.Now}
}

func (s *SnapshotStore) LoadSnapshot(ctx context.Context, kind string) ([]byte, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, "SELECT data FROM collection_snapshots WHERE name = $1", kind)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s snapshot", kind)
	}
	return data, nil
}

func (s *SnapshotStore) SaveSnapshot(ctx context.Context, kind string, data []byte) error {
	// jsonb params go as text: lib/pq would send []byte as bytea
	_, err := s.db.ExecContext(ctx, `INSERT INTO collection_snapshots (name, data, updated_at)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		kind, string(data), s.now().UTC())
	return errors.Wrapf(err, "saving %s snapshot", kind)
}
