package sqlxrepos

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/filter"
	"github.com/trezcool/academia/core/user"
)

const userColumns = "id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login"

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    pq.NullTime    `db:"last_login"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:           r.ID,
		Name:         r.Name,
		Username:     r.Username,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        []string(r.Roles),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if r.LastLogin.Valid {
		usr.LastLogin = r.LastLogin.Time.UTC()
	}
	return usr
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) getOne(query string, args ...interface{}) (user.User, error) {
	var row userRow
	if err := repo.db.Get(&row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) CheckUsernameUniqueness(username, email string, excludedUsers ...user.User) error {
	excluded := make([]string, 0, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded = append(excluded, u.ID)
	}

	var found struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	err := repo.db.Get(&found, `SELECT username, email FROM users
		WHERE ((username <> '' AND username = $1) OR (email <> '' AND email = $2)) AND NOT (id = ANY($3))
		LIMIT 1`, username, email, pq.Array(excluded))
	switch {
	case err == sql.ErrNoRows:
		return nil
	case err != nil:
		return errors.Wrap(err, "checking uniqueness")
	case username != "" && found.Username == username:
		return user.ErrUsernameExists
	default:
		return user.ErrEmailExists
	}
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	if usr.Roles == nil {
		usr.Roles = []string{}
	}
	_, err := repo.db.Exec(`INSERT INTO users
		(id, name, username, email, is_active, roles, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, pq.Array(usr.Roles), usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers() ([]user.User, error) {
	var rows []userRow
	if err := repo.db.Select(&rows, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id"); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) GetUserByID(id string) (user.User, error) {
	return repo.getOne("SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (repo *userRepository) GetUserByUsername(username string) (user.User, error) {
	if username == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.getOne("SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (repo *userRepository) GetUserByEmail(email string) (user.User, error) {
	if email == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.getOne("SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (repo *userRepository) GetUserByUsernameOrEmail(username string) (user.User, error) {
	if username == "" {
		return user.User{}, user.ErrNotFound
	}
	return repo.getOne("SELECT "+userColumns+" FROM users WHERE username = $1 OR email = $1 LIMIT 1", username)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// filterQuery renders qf as a WHERE clause with the same semantics as QueryFilter.Predicates.
func filterQuery(qf user.QueryFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if qf.Search != "" {
		p := arg("%" + likeEscaper.Replace(qf.Search) + "%")
		conds = append(conds, "(name ILIKE "+p+" OR username ILIKE "+p+" OR email ILIKE "+p+")")
	}

	roles := make([]string, 0, len(qf.Roles))
	for _, r := range qf.Roles {
		if filter.IsAll(r) {
			roles = nil
			break
		}
		roles = append(roles, r)
	}
	if len(roles) > 0 {
		conds = append(conds, "roles && "+arg(pq.Array(roles))+"::text[]")
	}

	if qf.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*qf.IsActive))
	}

	q := "SELECT " + userColumns + " FROM users"
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	return q + " ORDER BY created_at DESC, id", args
}

func (repo *userRepository) FilterUsers(qf user.QueryFilter) ([]user.User, error) {
	q, args := filterQuery(qf)
	var rows []userRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return toUsers(rows), nil
}

// UpdateUser only overwrites roles, password hash and is_active when they are set.
func (repo *userRepository) UpdateUser(usr user.User, isActive *bool) (user.User, error) {
	var roles, hash interface{}
	if usr.Roles != nil {
		roles = pq.Array(usr.Roles)
	}
	if usr.PasswordHash != nil {
		hash = usr.PasswordHash
	}
	return repo.getOne(`UPDATE users SET
		name = $2, username = $3, email = $4, updated_at = $5,
		roles = COALESCE($6, roles), password_hash = COALESCE($7, password_hash), is_active = COALESCE($8, is_active)
		WHERE id = $1
		RETURNING `+userColumns,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.UpdatedAt, roles, hash, isActive)
}

func (repo *userRepository) SetLastLogin(id string, at time.Time) (user.User, error) {
	return repo.getOne("UPDATE users SET last_login = $2 WHERE id = $1 RETURNING "+userColumns, id, at)
}

func (repo *userRepository) DeleteUsersByID(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := repo.db.Exec("DELETE FROM users WHERE id = ANY($1)", pq.Array(ids))
	return errors.Wrap(err, "deleting users")
}
