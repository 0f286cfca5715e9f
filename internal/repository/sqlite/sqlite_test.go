package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/YongminGwon/omok-server/internal/clock"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the test.
// Each test gets its own database, destroyed when the pool closes.
//
// newTestDB also pins the store clock so played_at ordering is deterministic.
func newTestDB(t *testing.T) (*DB, *clock.MockClock) {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	db, err := New(":memory:", WithClock(clk))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, clk
}

func TestDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"},
		{"data/omok.db", "data/omok.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
		{"file:omok.db?cache=shared", "file:omok.db?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"},
	}
	for _, tt := range tests {
		if got := dsn(tt.path); got != tt.want {
			t.Errorf("dsn(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNew_FileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omok.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := db.Insert(ctx, "alice", "hash"); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	db.Close()

	// Reopening runs the migrations again; they must be idempotent.
	db, err = New(path)
	if err != nil {
		t.Fatalf("New() on existing file error = %v", err)
	}
	defer db.Close()

	if _, err := db.FindByUsername(ctx, "alice"); err != nil {
		t.Fatalf("FindByUsername() after reopen error = %v", err)
	}
}

func TestPing(t *testing.T) {
	db, _ := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db, _ := newTestDB(t)

	var on int
	if err := db.conn.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}
