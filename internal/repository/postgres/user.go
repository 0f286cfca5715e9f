package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/model"
)

const userColumns = `id, username, password_hash, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername is an exact, case-sensitive lookup.
func (s *Store) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("USER_NOT_FOUND").
				With("username", username).
				Wrap(apperror.NotFound("user", username))
		}
		return nil, unavailable("find user by username", err)
	}
	return u, nil
}

// Insert relies on the users_username_key constraint for uniqueness.
func (s *Store) Insert(ctx context.Context, username, passwordHash string) (*model.User, error) {
	u := &model.User{Username: username, PasswordHash: passwordHash}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		username, passwordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("USER_DUPLICATE").
				With("username", username).
				Wrap(apperror.DuplicateUsername(username))
		}
		return nil, unavailable("insert user", err)
	}
	return u, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, oops.Code("USER_NOT_FOUND").
				With("user_id", id).
				Wrap(apperror.NotFound("user", strconv.FormatInt(id, 10)))
		}
		return nil, unavailable("get user", err)
	}
	return u, nil
}
