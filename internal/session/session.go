// Package session keeps the single current edit session of each browser
// client. Every Begin issues a new, strictly increasing generation for the
// client; work started under an older generation is stale.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Mode is what the modal is doing.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
	ModeDelete Mode = "delete"
)

var (
	// ErrNoSession means the client has no open modal.
	ErrNoSession = errors.New("no active edit session")
	// ErrStale means a newer session replaced the one an operation started with.
	ErrStale = errors.New("edit session was superseded")
)

// Session is an immutable snapshot of one modal interaction.
type Session struct {
	Token      string         `json:"token"`
	Client     string         `json:"client"`
	Resource   string         `json:"resource"`
	Mode       Mode           `json:"mode"`
	ID         *int64         `json:"id,omitempty"`
	Generation uint64         `json:"generation"`
	Prefetched map[string]any `json:"prefetched,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
}

// HasTarget reports whether the session addresses an existing record.
func (s Session) HasTarget() bool {
	return s.ID != nil && (s.Mode == ModeEdit || s.Mode == ModeDelete)
}

// TargetID returns the record id, or 0 for create sessions.
func (s Session) TargetID() int64 {
	if s.ID == nil {
		return 0
	}
	return *s.ID
}

// WithPrefetched returns a copy of s carrying rec.
func (s Session) WithPrefetched(rec map[string]any) Session {
	s.Prefetched = rec
	return s
}

// Store holds the current session per client. Implementations are safe for
// concurrent use.
type Store interface {
	// Begin replaces the client's session with a new one at the next generation.
	Begin(ctx context.Context, client, resource string, mode Mode, id *int64) (Session, error)
	// Update stores s again, e.g. after its record was fetched. It fails with
	// ErrStale when s is no longer the client's current generation.
	Update(ctx context.Context, s Session) error
	// Current returns the client's open session or ErrNoSession.
	Current(ctx context.Context, client string) (Session, error)
	// Generation returns the latest generation issued to the client, 0 if none.
	Generation(ctx context.Context, client string) (uint64, error)
	// Clear removes the client's session if it is still at generation.
	Clear(ctx context.Context, client string, generation uint64) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

func newSession(client, resource string, mode Mode, id *int64, generation uint64) Session {
	if mode == ModeCreate {
		id = nil
	}
	var idCopy *int64
	if id != nil {
		v := *id
		idCopy = &v
	}
	return Session{
		Token:      uuid.NewString(),
		Client:     client,
		Resource:   resource,
		Mode:       mode,
		ID:         idCopy,
		Generation: generation,
		StartedAt:  time.Now().UTC(),
	}
}
