package engine

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRows is a small yard: kiosk at 1,1, student 1,4, basement 1,7,
// cook 2,4, librarian 3,4.
var testRows = []string{
	".........",
	".K__S__B.",
	".___C___.",
	".___L___.",
	".........",
}

func at(r, c int) board.Coord { return board.Coord{Row: r, Col: c} }

func ptr[T any](v T) *T { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngineWith(t *testing.T, cat *cards.Catalog, players ...PlayerSetup) *Engine {
	t.Helper()
	b, err := board.New(testRows, board.DefaultOwners())
	require.NoError(t, err)
	if len(players) == 0 {
		players = []PlayerSetup{
			{ID: "a", Start: ptr(at(2, 1))},
			{ID: "b", Start: ptr(at(2, 1))},
			{ID: "c", Start: ptr(at(3, 1))},
		}
	}
	e, err := NewGame(GameSetup{Players: players, Board: b, Catalog: cat, Seed: 42})
	require.NoError(t, err)
	for _, p := range e.gs.Players {
		p.Hand = nil
	}
	return e.WithLogger(quietLogger())
}

func newTestEngine(t *testing.T, players ...PlayerSetup) *Engine {
	t.Helper()
	cat, err := cards.Default()
	require.NoError(t, err)
	return newTestEngineWith(t, cat, players...)
}

// give puts a fresh instance of def into the player's hand.
func give(t *testing.T, e *Engine, player, def string) string {
	t.Helper()
	_, ok := e.catalog.Get(def)
	require.True(t, ok, "unknown card %s", def)
	p := mustPlayer(t, e, player)
	id := def + "-" + uuid.NewString()[:8]
	p.Hand = append(p.Hand, state.Card{ID: id, Def: def})
	return id
}

func mustPlayer(t *testing.T, e *Engine, id string) *state.Player {
	t.Helper()
	p, err := e.gs.Player(id)
	require.NoError(t, err)
	return p
}

// activate makes id the active player in the given phase.
func activate(e *Engine, id string, phase state.Phase) {
	for i, p := range e.gs.Players {
		if p.ID == id {
			e.gs.Active = i
		}
	}
	e.gs.Phase = phase
}

// readyToMove puts id at from with steps left to walk.
func readyToMove(t *testing.T, e *Engine, id string, from board.Coord, steps int) {
	t.Helper()
	activate(e, id, state.PhaseMove)
	e.gs.Steps = steps
	mustPlayer(t, e, id).Position = from
}

func inHand(p *state.Player, id string) bool {
	_, ok := p.HandCard(id)
	return ok
}

func inDiscard(e *Engine, id string) bool {
	return slices.ContainsFunc(e.gs.DiscardPile, func(c state.Card) bool { return c.ID == id })
}

// scripted is a Decider driven by test callbacks.
type scripted struct {
	mu        sync.Mutex
	offered   []PendingEvent
	interrupt func(PendingEvent, []Eligible) *Eligible
	reroll    bool
	spoils    Spoils
}

func (s *scripted) ChooseInterrupt(ctx context.Context, ev PendingEvent, eligible []Eligible) (*Eligible, error) {
	s.mu.Lock()
	s.offered = append(s.offered, ev)
	fn := s.interrupt
	s.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ev, eligible), nil
}

func (s *scripted) ChooseReroll(context.Context, string, int) (bool, error) { return s.reroll, nil }

func (s *scripted) ChooseSpoils(context.Context, string, string) (Spoils, error) {
	if s.spoils == "" {
		return SpoilsFood, nil
	}
	return s.spoils, nil
}

func (s *scripted) offers() []PendingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.offered)
}

// takeFrom returns an interrupt callback choosing player's first option.
func takeFrom(player string) func(PendingEvent, []Eligible) *Eligible {
	return func(_ PendingEvent, eligible []Eligible) *Eligible {
		for _, el := range eligible {
			if el.Player == player {
				return &el
			}
		}
		return nil
	}
}

func TestNewGame(t *testing.T) {
	cat, err := cards.Default()
	require.NoError(t, err)
	b, err := board.Default()
	require.NoError(t, err)

	e, err := NewGame(GameSetup{
		Players: []PlayerSetup{{ID: "a", Name: "Alice"}, {ID: "b"}, {ID: "c"}},
		Board:   b,
		Catalog: cat,
		Seed:    7,
	})
	require.NoError(t, err)

	gs := e.State()
	assert.Equal(t, 1, gs.Turn)
	assert.Equal(t, state.PhaseRoll, gs.Phase)
	assert.Equal(t, "a", gs.ActivePlayer().ID)
	assert.Equal(t, state.DefaultWinTrust, gs.WinTrust)
	assert.Len(t, gs.DrawPile, 28-3*state.InitialHandSize)
	for _, p := range gs.Players {
		assert.Equal(t, state.InitialFood, p.Food)
		assert.Len(t, p.Hand, state.InitialHandSize)
		cell, ok := b.Cell(p.Position)
		require.True(t, ok)
		assert.Equal(t, board.KindEmpty, cell.Kind, "players start on empty cells")
	}
	assert.Equal(t, "b", gs.Players[1].Name, "name defaults to id")
}

func TestNewGame_Errors(t *testing.T) {
	cat, _ := cards.Default()
	b, _ := board.Default()

	tests := map[string]GameSetup{
		"no players":    {Board: b, Catalog: cat},
		"no board":      {Players: []PlayerSetup{{ID: "a"}}, Catalog: cat},
		"duplicate ids": {Players: []PlayerSetup{{ID: "a"}, {ID: "a"}}, Board: b, Catalog: cat},
		"start on wall": {Players: []PlayerSetup{{ID: "a", Start: ptr(at(0, 0))}}, Board: b, Catalog: cat},
	}
	for name, setup := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewGame(setup)
			assert.Error(t, err)
		})
	}
}

func TestState_IsACopy(t *testing.T) {
	e := newTestEngine(t)
	snap := e.State()
	snap.Players[0].Food = 99
	assert.Equal(t, state.InitialFood, mustPlayer(t, e, "a").Food)
}

func TestRestore(t *testing.T) {
	e := newTestEngine(t)
	snap := e.State()
	snap.Players[1].Food = 1
	snap.Active = 1

	require.NoError(t, e.Restore(snap, e.Catalog()))
	assert.Equal(t, 1, mustPlayer(t, e, "b").Food)
	assert.Equal(t, "b", e.State().ActivePlayer().ID)

	bad := e.State()
	bad.Players[0].Hand = append(bad.Players[0].Hand, state.Card{ID: "x", Def: "no_such_card"})
	assert.Error(t, e.Restore(bad, e.Catalog()))
	assert.Equal(t, "b", e.State().ActivePlayer().ID, "failed restore keeps the old state")
}

func TestResume(t *testing.T) {
	e := newTestEngine(t)
	snap := e.State()

	resumed, err := Resume(snap, e.Board(), e.Catalog())
	require.NoError(t, err)
	assert.Equal(t, snap.ID, resumed.State().ID)

	_, err = Resume(&state.GameState{}, e.Board(), e.Catalog())
	assert.Error(t, err)
}

func TestObserversSeeEveryCommit(t *testing.T) {
	e := newTestEngine(t)
	var seen []state.Committed
	e.WithObserver(ObserverFunc(func(_ context.Context, gameID uuid.UUID, c state.Committed) {
		assert.Equal(t, e.gs.ID, gameID)
		seen = append(seen, c)
	}))
	readyToMove(t, e, "a", at(1, 3), 1)

	commits, err := e.MoveAlong(context.Background(), "a", []board.Coord{at(1, 4)})
	require.NoError(t, err)
	require.Equal(t, commits, seen)
	for i, c := range seen {
		assert.Equal(t, i+1, c.Seq)
	}
}
