package sqlxrepos

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

var userCols = []string{"id", "name", "username", "email", "is_active", "roles", "password_hash", "created_at", "updated_at", "last_login"}

func TestSnapshotStore(t *testing.T) {
	db, mock := newMock(t)
	store := NewSnapshotStore(db)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return at }
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM collection_snapshots WHERE name = $1")).
		WithArgs("courses").
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`[{"id":"1"}]`)))
	data, err := store.LoadSnapshot(ctx, "courses")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM collection_snapshots")).
		WithArgs("webinars").
		WillReturnRows(sqlmock.NewRows([]string{"data"}))
	_, err = store.LoadSnapshot(ctx, "webinars")
	assert.Equal(t, core.ErrNotFound, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO collection_snapshots (name, data, updated_at)")).
		WithArgs("courses", `[]`, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.SaveSnapshot(ctx, "courses", []byte(`[]`)))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO collection_snapshots")).
		WillReturnError(errors.New("connection reset"))
	err = store.SaveSnapshot(ctx, "courses", []byte(`[]`))
	assert.EqualError(t, err, "saving courses snapshot: connection reset")
}

func TestUserRepository_get(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "Sarah", "sarah", "sarah@test.cd", true, "{admin:,employee:}", []byte("hash"), created, created, nil))
	usr, err := repo.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "Sarah", usr.Name)
	assert.Equal(t, []string{user.RoleAdmin, user.RoleEmployee}, usr.Roles)
	assert.True(t, usr.LastLogin.IsZero())
	assert.True(t, usr.IsAdmin())

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username = $1 OR email = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetUserByUsernameOrEmail("ghost")
	assert.Equal(t, user.ErrNotFound, err)

	// no query for blank lookups
	_, err = repo.GetUserByEmail("")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestUserRepository_CheckUsernameUniqueness(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	tests := []struct {
		name     string
		found    []string // username, email
		username string
		email    string
		wantErr  error
	}{
		{name: "unique", username: "sarah", email: "sarah@test.cd"},
		{name: "username taken", found: []string{"sarah", "other@test.cd"}, username: "sarah", email: "sarah@test.cd", wantErr: user.ErrUsernameExists},
		{name: "email taken", found: []string{"other", "sarah@test.cd"}, username: "sarah", email: "sarah@test.cd", wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := sqlmock.NewRows([]string{"username", "email"})
			if tt.found != nil {
				rows.AddRow(tt.found[0], tt.found[1])
			}
			mock.ExpectQuery(regexp.QuoteMeta("SELECT username, email FROM users")).
				WithArgs(tt.username, tt.email, sqlmock.AnyArg()).
				WillReturnRows(rows)

			err := repo.CheckUsernameUniqueness(tt.username, tt.email, user.User{ID: "me"})
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestUserRepository_writes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(sqlmock.AnyArg(), "Sarah", "sarah", "", true, sqlmock.AnyArg(), []byte("hash"), now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	usr, err := repo.CreateUser(user.User{Name: "Sarah", Username: "sarah", IsActive: true, PasswordHash: []byte("hash"), CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, []string{}, usr.Roles)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET")).
		WithArgs(usr.ID, "Sarah C", "sarah", "", now, nil, nil, false).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(usr.ID, "Sarah C", "sarah", "", false, "{employee:}", []byte("hash"), now, now, now))
	updated, err := repo.UpdateUser(user.User{ID: usr.ID, Name: "Sarah C", Username: "sarah", UpdatedAt: now}, core.BoolPtr(false))
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{user.RoleEmployee}, updated.Roles)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	require.NoError(t, repo.DeleteUsersByID("a", "b"))
	require.NoError(t, repo.DeleteUsersByID())
}

func TestFilterQuery(t *testing.T) {
	tests := []struct {
		name      string
		qf        user.QueryFilter
		wantWhere string
		wantArgs  int
	}{
		{name: "empty", qf: user.QueryFilter{}, wantWhere: "", wantArgs: 0},
		{
			name:      "search escapes wildcards",
			qf:        user.QueryFilter{Search: "50%_off"},
			wantWhere: " WHERE (name ILIKE $1 OR username ILIKE $1 OR email ILIKE $1)",
			wantArgs:  1,
		},
		{
			name:      "all roles bypass",
			qf:        user.QueryFilter{Roles: []string{user.RoleAdmin, "all"}, IsActive: core.BoolPtr(true)},
			wantWhere: " WHERE is_active = $1",
			wantArgs:  1,
		},
		{
			name:      "every dimension",
			qf:        user.QueryFilter{Search: "sa", Roles: []string{user.RoleTrainer}, IsActive: core.BoolPtr(false)},
			wantWhere: " WHERE (name ILIKE $1 OR username ILIKE $1 OR email ILIKE $1) AND roles && $2::text[] AND is_active = $3",
			wantArgs:  3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, args := filterQuery(tt.qf)
			assert.Equal(t, "SELECT "+userColumns+" FROM users"+tt.wantWhere+" ORDER BY created_at DESC, id", q)
			assert.Len(t, args, tt.wantArgs)
		})
	}

	_, args := filterQuery(user.QueryFilter{Search: "50%_off"})
	assert.Equal(t, `%50\%\_off%`, args[0])
}
