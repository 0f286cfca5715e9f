// Package redis implements the repository interfaces on Redis.
//
// Layout (see keys.go): one JSON value per user and per match, a username
// index written together with the user record by a Lua script, INCR counters for ids, and one ZSET per user ordering
// their matches by time.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/YongminGwon/omok-server/internal/apperror"
	"github.com/YongminGwon/omok-server/internal/clock"
	"github.com/YongminGwon/omok-server/internal/model"
	"github.com/YongminGwon/omok-server/internal/repository"
)

// Ensure Storage implements the interface
var _ repository.Store = (*Storage)(nil)

// Storage is a Redis-backed store.
type Storage struct {
	client *redis.Client
	clock  clock.Clock
}

// New creates a new Redis storage instance and verifies the connection.
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "parse url").Wrap(err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}

	return NewWithClient(client, clock.RealClock{}), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing).
func NewWithClient(client *redis.Client, clk clock.Clock) *Storage {
	return &Storage{client: client, clock: clk}
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Storage) Close() error {
	return s.client.Close()
}

func unavailable(op string, err error) error {
	return oops.Code("STORE_UNAVAILABLE").
		With("operation", op).
		Wrap(apperror.StoreUnavailable(op, err))
}

// corrupt reports stored data this package cannot read back. Callers see
// it as an unavailable store; the code and context are kept for the logs.
func corrupt(op, code string, err error, kv ...any) error {
	return oops.Code(code).
		With("operation", op).
		With(kv...).
		Wrap(apperror.StoreUnavailable(op, err))
}

// userRecord is the stored form of a user. model.User hides the hash from
// JSON, so it cannot be marshalled directly.
type userRecord struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// User operations

// insertUserScript writes the user record and claims the username index
// in one step, so a crash can never leave one without the other.
// An index entry whose record is missing is stale and gets taken over.
//
// KEYS[1] username index, KEYS[2] user record
// ARGV[1] user id, ARGV[2] encoded record, ARGV[3] user key prefix
var insertUserScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and redis.call('EXISTS', ARGV[3] .. cur) == 1 then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2])
redis.call('SET', KEYS[1], ARGV[1])
return 1
`)

// Insert allocates an id and stores the user. If the username is taken
// nothing is written; the consumed id is simply skipped.
func (s *Storage) Insert(ctx context.Context, username, passwordHash string) (*model.User, error) {
	id, err := s.client.Incr(ctx, userSeqKey()).Result()
	if err != nil {
		return nil, unavailable("insert user", err)
	}

	rec := userRecord{
		ID:           id,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    s.clock.Now().UTC().Truncate(time.Millisecond),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, corrupt("insert user", "USER_ENCODE_FAILED", err, "user_id", id)
	}

	inserted, err := insertUserScript.Run(ctx, s.client,
		[]string{usernameIndexKey(username), userKey(id)},
		id, data, userKeyPrefix(),
	).Int()
	if err != nil {
		return nil, unavailable("insert user", err)
	}
	if inserted == 0 {
		return nil, oops.Code("USER_DUPLICATE").
			With("username", username).
			Wrap(apperror.DuplicateUsername(username))
	}

	return rec.model(), nil
}

func (s *Storage) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	raw, err := s.client.Get(ctx, usernameIndexKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(username)
		}
		return nil, unavailable("find user by username", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, corrupt("find user by username", "USER_INDEX_CORRUPT", err, "username", username)
	}

	u, err := s.GetByID(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		// stale index entry; the next Insert takes it over
		return nil, notFound(username)
	}
	return u, err
}

func (s *Storage) GetByID(ctx context.Context, id int64) (*model.User, error) {
	data, err := s.client.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound(strconv.FormatInt(id, 10))
		}
		return nil, unavailable("get user", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, corrupt("get user", "USER_DECODE_FAILED", err, "user_id", id)
	}
	return rec.model(), nil
}

func (r userRecord) model() *model.User {
	return &model.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func notFound(key string) error {
	return oops.Code("USER_NOT_FOUND").With("user", key).Wrap(apperror.NotFound("user", key))
}

// Match operations

// InsertMatch checks both participants exist, then writes the match and
// both per-user index entries in one MULTI/EXEC.
func (s *Storage) InsertMatch(ctx context.Context, winnerID, loserID int64) (*model.Match, error) {
	if winnerID == loserID {
		return nil, apperror.InvalidMatch("winner and loser must be different players")
	}

	n, err := s.client.Exists(ctx, userKey(winnerID), userKey(loserID)).Result()
	if err != nil {
		return nil, unavailable("insert match", err)
	}
	if n != 2 {
		return nil, oops.Code("MATCH_INVALID").
			With("winner_id", winnerID).
			With("loser_id", loserID).
			Wrap(apperror.InvalidMatch("match participant does not exist"))
	}

	id, err := s.client.Incr(ctx, matchSeqKey()).Result()
	if err != nil {
		return nil, unavailable("insert match", err)
	}

	m := &model.Match{
		ID:       id,
		WinnerID: winnerID,
		LoserID:  loserID,
		PlayedAt: s.clock.Now().UTC().Truncate(time.Millisecond),
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, corrupt("insert match", "MATCH_ENCODE_FAILED", err, "match_id", id)
	}

	score := float64(m.PlayedAt.UnixMilli())
	member := matchMember(id)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, matchKey(id), data, 0)
	pipe.ZAdd(ctx, userMatchesKey(winnerID), redis.Z{Score: score, Member: member})
	pipe.ZAdd(ctx, userMatchesKey(loserID), redis.Z{Score: score, Member: member})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, unavailable("insert match", err)
	}

	return m, nil
}

// FindByUser reads the user's ZSET newest first and loads the records.
// Equal scores come back in descending member order, i.e. highest id first.
func (s *Storage) FindByUser(ctx context.Context, userID int64) ([]model.Match, error) {
	members, err := s.client.ZRevRange(ctx, userMatchesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, unavailable("list matches", err)
	}

	matches := make([]model.Match, 0, len(members))
	if len(members) == 0 {
		return matches, nil
	}

	keys := make([]string, len(members))
	for i, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, corrupt("list matches", "MATCH_INDEX_CORRUPT", err, "member", member)
		}
		keys[i] = matchKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable("list matches", err)
	}
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, corrupt("list matches", "MATCH_MISSING", errors.New("indexed match has no record"), "key", keys[i])
		}
		var m model.Match
		if err := json.Unmarshal([]byte(str), &m); err != nil {
			return nil, corrupt("list matches", "MATCH_DECODE_FAILED", err, "key", keys[i])
		}
		matches = append(matches, m)
	}
	return matches, nil
}
