// Package postgres implements the repository interfaces on PostgreSQL via pgx.
//
// Errors are annotated with oops codes for logging while the apperror
// sentinel stays in the chain, so errors.Is works for callers.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// pool is the subset of *pgxpool.Pool the store uses. pgxmock.PgxPoolIface
// satisfies it, which is how the unit tests run without a database.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store implements repository.Store using PostgreSQL.
type Store struct {
	pool pool
}

// New connects to databaseURL and verifies the connection.
// The schema is managed separately by Migrator.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return &Store{pool: p}, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(p pool) *Store {
	return &Store{pool: p}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// pgCode returns the SQLSTATE of a server-side error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pgCode(err) == pgerrcode.ForeignKeyViolation
}

func isCheckViolation(err error) bool {
	return pgCode(err) == pgerrcode.CheckViolation
}

// unavailable wraps an infrastructure failure.
func unavailable(op string, err error) error {
	return oops.Code("STORE_UNAVAILABLE").
		With("operation", op).
		Wrap(apperror.StoreUnavailable(op, err))
}
