//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/YongminGwon/omok-server/internal/apperror"
)

func startPostgres(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("omok_test"),
		tcpostgres.WithUsername("omok"),
		tcpostgres.WithPassword("omok"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := NewMigrator(connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	require.NoError(t, m.Close())

	store, err := New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestIntegration_Store(t *testing.T) {
	store := startPostgres(t)
	ctx := context.Background()

	alice, err := store.Insert(ctx, "alice", "h1")
	require.NoError(t, err)
	bob, err := store.Insert(ctx, "bob", "h2")
	require.NoError(t, err)

	_, err = store.Insert(ctx, "alice", "h3")
	require.ErrorIs(t, err, apperror.ErrDuplicateUsername)

	// case-sensitive
	_, err = store.Insert(ctx, "Alice", "h4")
	require.NoError(t, err)

	m1, err := store.InsertMatch(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	m2, err := store.InsertMatch(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	_, err = store.InsertMatch(ctx, alice.ID, alice.ID)
	require.ErrorIs(t, err, apperror.ErrInvalidMatch)
	_, err = store.InsertMatch(ctx, alice.ID, 9999)
	require.ErrorIs(t, err, apperror.ErrInvalidMatch)

	history, err := store.FindByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, m2.ID, history[0].ID)
	assert.Equal(t, m1.ID, history[1].ID)
}

func TestIntegration_ConcurrentInsert(t *testing.T) {
	store := startPostgres(t)
	const n = 20

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		ok    int
		dupes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Insert(context.Background(), "racer", "h")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, apperror.ErrDuplicateUsername) {
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dupes)
}
