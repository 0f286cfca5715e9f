package service

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/auth"
	"github.com/YongminGwon/omok-server/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
// Using a fake (not a mock framework) keeps tests easy to read: you can see
// exactly what the fake does. The mutex makes it safe for the race tests.
type fakeUserRepo struct {
	mu     sync.Mutex
	byName map[string]*model.User
	byID   map[int64]*model.User
	nextID int64

	// findErrs are returned by successive FindByUsername calls before the
	// real lookup runs; used to simulate transient outages.
	findErrs  []error
	insertErr error

	findCalls   int
	insertCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byName: make(map[string]*model.User),
		byID:   make(map[int64]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if len(f.findErrs) > 0 {
		err := f.findErrs[0]
		f.findErrs = f.findErrs[1:]
		return nil, err
	}
	u, ok := f.byName[username]
	if !ok {
		return nil, apperror.NotFound("user", username)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) Insert(_ context.Context, username, passwordHash string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if _, taken := f.byName[username]; taken {
		return nil, apperror.DuplicateUsername(username)
	}
	u := &model.User{ID: f.nextID, Username: username, PasswordHash: passwordHash, CreatedAt: time.Now()}
	f.nextID++
	f.byName[username] = u
	f.byID[u.ID] = u
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
	}
	copied := *u
	return &copied, nil
}

// fakeMatchRepo is an in-memory repository.MatchRepository. Every id in
// users is treated as an existing player.
type fakeMatchRepo struct {
	mu      sync.Mutex
	users   map[int64]bool
	matches []model.Match
	now     time.Time

	findErrs    []error
	insertErr   error
	insertCalls int
	findCalls   int
}

func newFakeMatchRepo(userIDs ...int64) *fakeMatchRepo {
	f := &fakeMatchRepo{users: make(map[int64]bool), now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, id := range userIDs {
		f.users[id] = true
	}
	return f
}

func (f *fakeMatchRepo) InsertMatch(_ context.Context, winnerID, loserID int64) (*model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	if !f.users[winnerID] || !f.users[loserID] {
		return nil, apperror.InvalidMatch("match participant does not exist")
	}
	f.now = f.now.Add(time.Minute)
	m := model.Match{ID: int64(len(f.matches) + 1), WinnerID: winnerID, LoserID: loserID, PlayedAt: f.now}
	f.matches = append(f.matches, m)
	return &m, nil
}

func (f *fakeMatchRepo) FindByUser(_ context.Context, userID int64) ([]model.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	if len(f.findErrs) > 0 {
		err := f.findErrs[0]
		f.findErrs = f.findErrs[1:]
		return nil, err
	}
	out := make([]model.Match, 0)
	for i := len(f.matches) - 1; i >= 0; i-- {
		if f.matches[i].Involves(userID) {
			out = append(out, f.matches[i])
		}
	}
	return out, nil
}

// countingHasher wraps a real hasher and counts Verify calls, which is how
// the tests observe the dummy-hash verification on unknown users.
type countingHasher struct {
	auth.PasswordHasher
	verifies atomic.Int64
}

func (h *countingHasher) Verify(plaintext, hash string) bool {
	h.verifies.Add(1)
	return h.PasswordHasher.Verify(plaintext, hash)
}

// testLogger only prints errors, keeping test output readable.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fastRetry keeps retry tests quick.
var fastRetry = WithRetry(RetryConfig{Attempts: 2, BaseDelay: time.Millisecond})
