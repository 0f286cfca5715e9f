// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database. It lives inside your Go binary as a single file.
// No separate database server to install, configure, or manage. It is the
// default store; postgres and redis are selected with store.driver.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code.
//
// PER-CONNECTION PRAGMAS:
// sql.DB is a pool. PRAGMA foreign_keys only affects the connection that ran
// it, so the pragmas go into the DSN (_pragma=...) where modernc applies them
// to every connection the pool opens.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/YongminGwon/omok-server/internal/clock"
	"github.com/YongminGwon/omok-server/internal/repository"
)

// compile-time check that *DB is a complete store
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn  *sql.DB
	clock clock.Clock
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the time source for created_at and played_at.
func WithClock(c clock.Clock) Option {
	return func(db *DB) { db.clock = c }
}

// New opens (creating if needed) the SQLite database and runs migrations.
//
// dbPath examples:
//   - "data/omok.db"  → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests; lost on close)
func New(dbPath string, opts ...Option) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is its own empty database, so the pool
	// must never hold more than one.
	if isMemory(dbPath) {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn, clock: clock.RealClock{}}
	for _, opt := range opts {
		opt(db)
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

func isMemory(dbPath string) bool {
	return dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
}

// dsn appends the per-connection pragmas to dbPath.
//
// WAL (Write-Ahead Logging) lets readers proceed while a write is in progress.
// busy_timeout makes a writer wait for the lock instead of failing at once.
func dsn(dbPath string) string {
	pragmas := []string{"_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)"}
	if !isMemory(dbPath) {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(pragmas, "&")
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return storeError("ping", err)
	}
	return nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// now returns the store's current time truncated to the millisecond
// precision that played_at is stored with.
func (db *DB) now() time.Time {
	return db.clock.Now().UTC().Truncate(time.Millisecond)
}

// migrate creates the schema.
//
// CREATE TABLE IF NOT EXISTS is safe to run on every start. The postgres
// store uses versioned golang-migrate migrations instead.
func (db *DB) migrate() error {
	// username is UNIQUE: the constraint is what makes concurrent
	// registrations of the same name safe.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// played_at is unix milliseconds so ORDER BY is a plain integer sort.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS matches (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			winner_id INTEGER NOT NULL REFERENCES users(id),
			loser_id  INTEGER NOT NULL REFERENCES users(id),
			played_at INTEGER NOT NULL,
			CHECK (winner_id <> loser_id)
		);
		CREATE INDEX IF NOT EXISTS idx_matches_winner ON matches(winner_id, played_at DESC);
		CREATE INDEX IF NOT EXISTS idx_matches_loser  ON matches(loser_id, played_at DESC);
	`)
	if err != nil {
		return fmt.Errorf("creating matches table: %w", err)
	}

	return nil
}
