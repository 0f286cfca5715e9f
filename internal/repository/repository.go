// Package repository declares the storage contracts the services depend on.
//
// Three implementations live in subpackages: sqlite (embedded, the default),
// postgres and redis. Every implementation maps its driver errors onto the
// apperror taxonomy, so callers never see a driver-specific error:
//
//	not found               → apperror.ErrNotFound
//	username already taken  → apperror.ErrDuplicateUsername
//	match references a missing user → apperror.ErrInvalidMatch
//	anything else           → apperror.ErrStoreUnavailable
package repository

import (
	"context"

	"github.com/YongminGwon/omok-server/internal/model"
)

// UserRepository persists player accounts.
//
// Username uniqueness is enforced by the store itself, not by callers: two
// concurrent Inserts of the same username yield exactly one row.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Insert(ctx context.Context, username, passwordHash string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// MatchRepository persists match results.
type MatchRepository interface {
	// InsertMatch assigns ID and PlayedAt. Both participants must exist.
	InsertMatch(ctx context.Context, winnerID, loserID int64) (*model.Match, error)
	// FindByUser returns every match the user took part in, most recent first
	// (ties broken by id, highest first). Never nil on success.
	FindByUser(ctx context.Context, userID int64) ([]model.Match, error)
}

// Store is a complete storage backend as wired by the server.
type Store interface {
	UserRepository
	MatchRepository
	Ping(ctx context.Context) error
	Close() error
}
