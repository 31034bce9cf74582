package gateway

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcdev12/pong/go/internal/pong/game"
)

// SessionStore is the seat registry. Claim and Release must be atomic per
// session so two relays sharing a store never hand out the same seat.
type SessionStore interface {
	Create(ctx context.Context) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	// Claim seats playerID in the first free seat. The returned session
	// reflects the claim.
	Claim(ctx context.Context, id, playerID string) (*Session, game.Side, error)
	// Release frees playerID's seat and ends the session. When both seats are
	// empty afterwards the session is deleted.
	Release(ctx context.Context, id, playerID string) (*Session, error)
	// Active lists sessions that are not ended
	Active(ctx context.Context) ([]*Session, error)
	Close() error
}

// MemoryStore keeps sessions in process
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

func (m *MemoryStore) Create(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := NewSessionID()
	for m.sessions[id] != nil {
		id = NewSessionID()
	}
	s := &Session{ID: id, State: SessionWaiting, CreatedAt: m.now()}
	m.sessions[id] = s

	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[NormalizeSessionID(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Claim(ctx context.Context, id, playerID string) (*Session, game.Side, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[NormalizeSessionID(id)]
	if !ok {
		return nil, "", ErrSessionNotFound
	}
	side, err := s.claim(playerID)
	if err != nil {
		return nil, "", err
	}
	cp := *s
	return &cp, side, nil
}

func (m *MemoryStore) Release(ctx context.Context, id, playerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id = NormalizeSessionID(id)
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !s.release(playerID) {
		return nil, ErrNotSeated
	}
	if s.Players() == 0 {
		delete(m.sessions, id)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Active(ctx context.Context) ([]*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.State == SessionEnded {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }
