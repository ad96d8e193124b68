package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NoteCountTTL bounds the lifetime of the per-category note counters.
const NoteCountTTL = time.Hour

// ErrCounterMiss is returned when a counter operation targets a key that
// does not exist (or has expired). Callers repair by recounting from the
// database and overwriting the entry.
var ErrCounterMiss = errors.New("cache: counter missing")

// guardedIncrBy increments a counter only if it already exists, so a
// missing key is reported as a miss instead of being created at zero.
var guardedIncrBy = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('INCRBY', KEYS[1], ARGV[1])
`)

type Store struct {
	rdb *redis.Client
}

func New(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)

	if err != nil {
		return nil, err
	}

	return &Store{rdb: redis.NewClient(opts)}, nil
}

// NewFromClient wraps an existing client. Used by tests.
func NewFromClient(client *redis.Client) *Store {
	return &Store{rdb: client}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("blacklist:jti:%s", jti)
}

func noteCountKey(categoryID uint) string {
	return fmt.Sprintf("category:%d:note_count", categoryID)
}

// RevokeToken records a revocation marker that self-expires with the token.
func (s *Store) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	return s.rdb.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	err := s.rdb.Get(ctx, blacklistKey(jti)).Err()

	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (s *Store) SetNoteCount(ctx context.Context, categoryID uint, count int64) error {
	return s.rdb.Set(ctx, noteCountKey(categoryID), count, NoteCountTTL).Err()
}

func (s *Store) GetNoteCount(ctx context.Context, categoryID uint) (int64, error) {
	count, err := s.rdb.Get(ctx, noteCountKey(categoryID)).Int64()

	if errors.Is(err, redis.Nil) {
		return 0, ErrCounterMiss
	}

	if err != nil {
		return 0, err
	}

	return count, nil
}

func (s *Store) IncrNoteCount(ctx context.Context, categoryID uint) error {
	return s.incrNoteCountBy(ctx, categoryID, 1)
}

func (s *Store) DecrNoteCount(ctx context.Context, categoryID uint) error {
	return s.incrNoteCountBy(ctx, categoryID, -1)
}

func (s *Store) incrNoteCountBy(ctx context.Context, categoryID uint, delta int64) error {
	err := guardedIncrBy.Run(ctx, s.rdb, []string{noteCountKey(categoryID)}, delta).Err()

	if errors.Is(err, redis.Nil) {
		return ErrCounterMiss
	}

	return err
}

func (s *Store) DeleteNoteCount(ctx context.Context, categoryID uint) error {
	return s.rdb.Del(ctx, noteCountKey(categoryID)).Err()
}
