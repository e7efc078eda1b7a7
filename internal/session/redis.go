package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"airline-ops/airops/internal/logging"
)

const redisPrefix = "airops:"

// storeIfCurrent writes the session only while the generation counter still
// equals the session's generation. Both keys get a fresh ttl.
var storeIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) == tonumber(ARGV[1]) then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
	return 1
end
return 0
`)

// clearIfCurrent deletes the session only while the generation counter still
// equals ARGV[1].
var clearIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current and tonumber(current) == tonumber(ARGV[1]) then
	return redis.call('DEL', KEYS[2])
end
return 0
`)

// RedisConfig configures the Redis connection.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a Redis client and checks connectivity. The client
// is returned even when the ping fails; the pool keeps reconnecting.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	logging.Info("Initializing Redis client", "addr", cfg.Addr, "db", cfg.DB)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logging.Warn("Failed to ping Redis", "addr", cfg.Addr, "error", err)
		return client
	}

	logging.Info("Connected to Redis", "addr", cfg.Addr)
	return client
}

// RedisStore shares sessions across console instances.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisSessionKey(client string) string    { return redisPrefix + sessionKey(client) }
func redisGenerationKey(client string) string { return redisPrefix + generationKey(client) }

func (r *RedisStore) Begin(ctx context.Context, client, resource string, mode Mode, id *int64) (Session, error) {
	genKey := redisGenerationKey(client)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, genKey)
		pipe.PExpire(ctx, genKey, r.ttl)
		return nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("failed to advance session generation: %w", err)
	}

	s := newSession(client, resource, mode, id, uint64(incr.Val()))
	if err := r.store(ctx, s); err != nil {
		return Session{}, err
	}
	return s, nil
}

func (r *RedisStore) Update(ctx context.Context, s Session) error {
	return r.store(ctx, s)
}

func (r *RedisStore) store(ctx context.Context, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	stored, err := storeIfCurrent.Run(ctx, r.client,
		[]string{redisGenerationKey(s.Client), redisSessionKey(s.Client)},
		s.Generation, data, r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if stored == 0 {
		return ErrStale
	}
	return nil
}

func (r *RedisStore) Current(ctx context.Context, client string) (Session, error) {
	val, err := r.client.Get(ctx, redisSessionKey(client)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNoSession
		}
		return Session{}, fmt.Errorf("failed to get session: %w", err)
	}

	var s Session
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return s, nil
}

func (r *RedisStore) Generation(ctx context.Context, client string) (uint64, error) {
	val, err := r.client.Get(ctx, redisGenerationKey(client)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get session generation: %w", err)
	}
	gen, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session generation %q: %w", val, err)
	}
	return gen, nil
}

func (r *RedisStore) Clear(ctx context.Context, client string, generation uint64) (bool, error) {
	deleted, err := clearIfCurrent.Run(ctx, r.client,
		[]string{redisGenerationKey(client), redisSessionKey(client)},
		generation,
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to clear session: %w", err)
	}
	return deleted > 0, nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
