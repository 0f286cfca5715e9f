package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/model"
	"github.com/YongminGwon/omok-server/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// FindByUsername looks up a user by exact (case-sensitive) username.
// Returns apperror.ErrNotFound if no such user exists.
//
// SQLite's = on TEXT uses the BINARY collation by default, so "Bob" does
// not match "bob".
func (db *DB) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", username)
		}
		return nil, storeError("find user by username", err)
	}
	return &u, nil
}

// Insert creates a user row and returns it with the store-assigned id.
//
// There is no SELECT-before-INSERT here: the UNIQUE constraint on username
// is the only check that holds under concurrency, so a violation is mapped
// to apperror.ErrDuplicateUsername.
func (db *DB) Insert(ctx context.Context, username, passwordHash string) (*model.User, error) {
	u := &model.User{
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    db.now(),
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		if classify(err) == constraintUnique {
			return nil, apperror.DuplicateUsername(username)
		}
		return nil, storeError("insert user", err)
	}

	// LastInsertId returns the INTEGER PRIMARY KEY of the new row.
	u.ID, err = res.LastInsertId()
	if err != nil {
		return nil, storeError("insert user", err)
	}
	return u, nil
}

// GetByID retrieves a user by id.
// Returns apperror.ErrNotFound if no user exists with that id.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, storeError("get user", err)
	}
	return &u, nil
}
