package session

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps sessions in process memory. Suitable for a single
// console instance.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store whose sessions expire ttl after they were
// begun or last updated. Reads do not extend the deadline.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func sessionKey(client string) string    { return "session:" + client }
func generationKey(client string) string { return "generation:" + client }

func (m *MemoryStore) Begin(ctx context.Context, client, resource string, mode Mode, id *int64) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := m.generation(client) + 1
	s := newSession(client, resource, mode, id, next)

	m.cache.Set(generationKey(client), next, m.ttl)
	m.cache.Set(sessionKey(client), s, m.ttl)
	return s, nil
}

func (m *MemoryStore) Update(ctx context.Context, s Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation(s.Client) != s.Generation {
		return ErrStale
	}
	m.cache.Set(generationKey(s.Client), s.Generation, m.ttl)
	m.cache.Set(sessionKey(s.Client), s, m.ttl)
	return nil
}

func (m *MemoryStore) Current(ctx context.Context, client string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}

	v, found := m.cache.Get(sessionKey(client))
	if !found {
		return Session{}, ErrNoSession
	}
	return v.(Session), nil
}

func (m *MemoryStore) Generation(ctx context.Context, client string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation(client), nil
}

func (m *MemoryStore) Clear(ctx context.Context, client string, generation uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation(client) != generation {
		return false, nil
	}
	if _, found := m.cache.Get(sessionKey(client)); !found {
		return false, nil
	}
	m.cache.Delete(sessionKey(client))
	return true, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

// generation must be called with mu held.
func (m *MemoryStore) generation(client string) uint64 {
	if v, found := m.cache.Get(generationKey(client)); found {
		return v.(uint64)
	}
	return 0
}
