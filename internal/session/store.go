package session

import (
	"fmt"
	"time"
)

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// NewStore builds the configured session store backend.
func NewStore(backend string, ttl time.Duration, redisCfg RedisConfig) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemoryStore(ttl), nil
	case BackendRedis:
		return NewRedisStore(NewRedisClient(redisCfg), ttl), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}
