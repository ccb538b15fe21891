package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// PendingEvent is a proposed action waiting for interrupt decisions. It is
// only valid during the decision window of a single proposal.
type PendingEvent struct {
	Seq    int          `json:"seq"`
	Active string       `json:"active"`
	Action state.Action `json:"action"`
}

// Eligible is one interrupt a player could play on a pending event.
type Eligible struct {
	Player string                `json:"player"`
	Card   string                `json:"card"`
	Def    string                `json:"def"`
	Policy cards.InterruptPolicy `json:"policy"`
	Cost   int                   `json:"cost"`
}

type Spoils string

const (
	SpoilsFood Spoils = "food"
	SpoilsCard Spoils = "card"
)

// Decider collects the choices the rules leave to players. Implementations
// are called synchronously while the engine is locked and must not call
// back into the Engine.
type Decider interface {
	// ChooseInterrupt returns one of eligible, or nil to pass. eligible is
	// ordered by priority, starting with the seat after the active player.
	ChooseInterrupt(ctx context.Context, ev PendingEvent, eligible []Eligible) (*Eligible, error)
	// ChooseReroll is asked when a player holding a reroll rolls for movement.
	ChooseReroll(ctx context.Context, player string, roll int) (bool, error)
	// ChooseSpoils is asked of the winner of a fight.
	ChooseSpoils(ctx context.Context, winner, loser string) (Spoils, error)
}

// PassDecider never interrupts, never rerolls and always takes food.
type PassDecider struct{}

func (PassDecider) ChooseInterrupt(context.Context, PendingEvent, []Eligible) (*Eligible, error) {
	return nil, nil
}

func (PassDecider) ChooseReroll(context.Context, string, int) (bool, error) { return false, nil }

func (PassDecider) ChooseSpoils(context.Context, string, string) (Spoils, error) {
	return SpoilsFood, nil
}

// Navigator picks the path a player walks for a roll.
type Navigator interface {
	Path(b *board.Board, from board.Coord, steps int) ([]board.Coord, bool)
}

// WalkNavigator follows board.Walk.
type WalkNavigator struct{}

func (WalkNavigator) Path(b *board.Board, from board.Coord, steps int) ([]board.Coord, bool) {
	return b.Walk(from, steps)
}

// Observer receives every committed action. Implementations handle their
// own failures; the game never waits on them.
type Observer interface {
	OnCommit(ctx context.Context, gameID uuid.UUID, c state.Committed)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, gameID uuid.UUID, c state.Committed)

func (f ObserverFunc) OnCommit(ctx context.Context, gameID uuid.UUID, c state.Committed) {
	f(ctx, gameID, c)
}
