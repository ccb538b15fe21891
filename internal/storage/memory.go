package storage

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// MemoryStorage keeps sessions in process. It is used when no Redis URL is
// configured and in tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*state.GameState
	pingError error
}

var _ Storage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{sessions: make(map[uuid.UUID]*state.GameState)}
}

// SetPingError configures the store to fail on ping with the given error
func (m *MemoryStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) SaveSession(ctx context.Context, gs *state.GameState) error {
	if gs == nil {
		return errors.New("session cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[gs.ID] = gs.Clone()
	return nil
}

func (m *MemoryStorage) LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	gs, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return gs.Clone(), nil
}

func (m *MemoryStorage) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStorage) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SessionInfo, 0, len(m.sessions))
	for _, gs := range m.sessions {
		out = append(out, infoOf(gs))
	}
	slices.SortFunc(out, func(a, b SessionInfo) int { return b.UpdatedAt.Compare(a.UpdatedAt) })
	return out, nil
}
