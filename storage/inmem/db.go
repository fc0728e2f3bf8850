package inmemdb

import (
	"sync"

	"github.com/trezcool/academia/core/user"
)

type (
	DB struct {
		user      *userTable
		snapshots *snapshotTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	snapshotTable struct {
		mutex sync.RWMutex
		table map[string][]byte
	}
)

func Open() *DB {
	return &DB{
		user:      &userTable{table: make(map[string]*user.User)},
		snapshots: &snapshotTable{table: make(map[string][]byte)},
	}
}
