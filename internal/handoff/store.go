package handoff

import (
	"context"
	"sync"
	"time"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

// Store persists pending handoffs. Get returns ErrNotFound for unknown
// tokens and always hands out a copy.
type Store interface {
	Get(ctx context.Context, token string) (*domain.Handoff, error)
	Put(ctx context.Context, h *domain.Handoff) error
	Delete(ctx context.Context, token string) error
	// Sweep removes every handoff expired at now and returns how many.
	Sweep(ctx context.Context, now time.Time) (int, error)
	Count(ctx context.Context) (int, error)
	// Mode names the backing storage for diagnostics.
	Mode() string
}

// MemoryStore keeps handoffs in process; they do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	handoffs map[string]*domain.Handoff
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{handoffs: make(map[string]*domain.Handoff)}
}

func (m *MemoryStore) Get(_ context.Context, token string) (*domain.Handoff, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.handoffs[token]
	if !ok {
		return nil, ErrNotFound
	}
	return h.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, h *domain.Handoff) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handoffs[h.Token] = h.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.handoffs, token)
	return nil
}

func (m *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for token, h := range m.handoffs {
		if h.Expired(now) {
			delete(m.handoffs, token)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.handoffs), nil
}

func (m *MemoryStore) Mode() string { return "memory" }
