package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"notamcore/internal/notam/models"
	"notamcore/pkg/platform/sentinel"
)

const (
	keysKeyPrefix   = "notam:keys:"
	statusKeyPrefix = "notam:status:"

	// DefaultCycleTTL bounds how long an idle scope is remembered.
	DefaultCycleTTL = 7 * 24 * time.Hour
)

// RedisStore keeps each scope as a set of identity keys and a hash of
// key -> status.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption configures a RedisStore instance.
type RedisStoreOption func(*RedisStore)

// WithTTL sets the expiry applied on every write. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    DefaultCycleTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func keysKey(scope string) string   { return keysKeyPrefix + scope }
func statusKey(scope string) string { return statusKeyPrefix + scope }

func (s *RedisStore) LoadCycle(ctx context.Context, scope string) (*models.Cycle, error) {
	defer observe("redis", "load", time.Now())

	pipe := s.client.Pipeline()
	members := pipe.SMembers(ctx, keysKey(scope))
	statuses := pipe.HGetAll(ctx, statusKey(scope))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load cycle: %w: %w", sentinel.ErrUnavailable, err)
	}

	cycle := models.NewCycle()
	for _, k := range members.Val() {
		cycle.Keys[k] = struct{}{}
	}
	for k, v := range statuses.Val() {
		st, err := models.ParseStatus(v)
		if err != nil {
			return nil, fmt.Errorf("load cycle: key %s: %w: %w", k, sentinel.ErrInvalidState, err)
		}
		cycle.Statuses[k] = st
	}
	return cycle, nil
}

// saveCycleScript swaps the key set and prunes the status hash in one step.
// KEYS: key set, status hash. ARGV: ttl in ms, key count n, n identity keys,
// then field/status pairs.
var saveCycleScript = redis.NewScript(`
local n = tonumber(ARGV[2])
redis.call('DEL', KEYS[1])
for i = 3, 2 + n do
	redis.call('SADD', KEYS[1], ARGV[i])
end
for i = 3 + n, #ARGV, 2 do
	redis.call('HSET', KEYS[2], ARGV[i], ARGV[i + 1])
end
for _, field in ipairs(redis.call('HKEYS', KEYS[2])) do
	if redis.call('SISMEMBER', KEYS[1], field) == 0 then
		redis.call('HDEL', KEYS[2], field)
	end
end
local ttl = tonumber(ARGV[1])
if ttl > 0 then
	redis.call('PEXPIRE', KEYS[1], ttl)
	redis.call('PEXPIRE', KEYS[2], ttl)
end
return 0
`)

// SaveCycle replaces the scope's key set, writes cycle.Statuses, and drops
// statuses whose key left the set. Statuses recorded since the caller's
// LoadCycle survive.
func (s *RedisStore) SaveCycle(ctx context.Context, scope string, cycle *models.Cycle) error {
	defer observe("redis", "save", time.Now())
	if cycle == nil {
		cycle = models.NewCycle()
	}

	args := make([]any, 0, 2+len(cycle.Keys)+2*len(cycle.Statuses))
	args = append(args, s.ttl.Milliseconds(), len(cycle.Keys))
	for k := range cycle.Keys {
		args = append(args, k)
	}
	for k, st := range cycle.Statuses {
		args = append(args, k, string(st))
	}
	err := saveCycleScript.Run(ctx, s.client, []string{keysKey(scope), statusKey(scope)}, args...).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("save cycle: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) SetStatus(ctx context.Context, scope, key string, status models.Status) error {
	defer observe("redis", "set_status", time.Now())

	sk := statusKey(scope)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, sk, key, string(status))
	s.expire(ctx, pipe, sk)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set status: %w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) expire(ctx context.Context, pipe redis.Pipeliner, keys ...string) {
	if s.ttl <= 0 {
		return
	}
	for _, k := range keys {
		pipe.Expire(ctx, k, s.ttl)
	}
}
