// Package storage keeps snapshots of running sessions so a game can be
// resumed after the process exits.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// SessionInfo summarizes a stored session for listings.
type SessionInfo struct {
	ID        uuid.UUID `json:"id"`
	Turn      int       `json:"turn"`
	Players   []string  `json:"players"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Storage defines the session snapshot operations.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveSession stores a deep copy of gs under gs.ID.
	SaveSession(ctx context.Context, gs *state.GameState) error
	// LoadSession returns nil, nil when no session exists.
	LoadSession(ctx context.Context, id uuid.UUID) (*state.GameState, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	// ListSessions returns stored sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]SessionInfo, error)
}

func infoOf(gs *state.GameState) SessionInfo {
	info := SessionInfo{ID: gs.ID, Turn: gs.Turn, UpdatedAt: gs.UpdatedAt}
	for _, p := range gs.Players {
		info.Players = append(info.Players, p.Name)
	}
	return info
}
