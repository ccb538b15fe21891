// Package engine enforces the Alley Cats rules over a state.GameState.
//
// Every change goes through the trigger bus so that interrupt cards in other
// players' hands can react before it commits. An Engine is safe for use from
// several goroutines, but operations are strictly sequential: one active
// player, one unresolved proposal at a time.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/dice"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// PlayerSetup describes one seat. Start is optional; players without one
// start on a random empty cell.
type PlayerSetup struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Start *board.Coord `json:"start,omitempty"`
}

type GameSetup struct {
	Players   []PlayerSetup
	Board     *board.Board
	Catalog   *cards.Catalog
	Seed      int64
	WinTrust  int // defaults to state.DefaultWinTrust
	StartFood int // defaults to state.InitialFood
	HandSize  int // defaults to state.InitialHandSize
}

type Engine struct {
	mu sync.Mutex

	gs        *state.GameState
	board     *board.Board
	catalog   *cards.Catalog
	effects   *Effects
	titles    *TitleRegistry
	bus       *Bus
	roller    dice.Roller
	decider   Decider
	navigator Navigator
	window    time.Duration
	logger    *slog.Logger
}

// NewGame builds the deck from the catalog, deals the opening hands and one
// secret agenda per player, and places the players. The first player in setup order is active.
func NewGame(setup GameSetup) (*Engine, error) {
	if len(setup.Players) == 0 {
		return nil, fmt.Errorf("a game needs at least one player")
	}
	if setup.Board == nil || setup.Catalog == nil {
		return nil, fmt.Errorf("board and catalog are required")
	}
	startFood := setup.StartFood
	if startFood == 0 {
		startFood = state.InitialFood
	}
	handSize := setup.HandSize
	if handSize == 0 {
		handSize = state.InitialHandSize
	}

	roller := dice.NewSeeded(setup.Seed)
	open := setup.Board.OpenCells()
	players := make([]*state.Player, 0, len(setup.Players))
	seen := make(map[string]bool)
	for _, ps := range setup.Players {
		if ps.ID == "" || seen[ps.ID] {
			return nil, fmt.Errorf("player ids must be unique and non-empty, got %q", ps.ID)
		}
		seen[ps.ID] = true

		p := &state.Player{ID: ps.ID, Name: ps.Name, Food: startFood}
		switch {
		case ps.Start != nil:
			cell, ok := setup.Board.Cell(*ps.Start)
			if !ok || !cell.Passable() {
				return nil, fmt.Errorf("%w: %s cannot start on %s", ErrInvalidMove, ps.ID, ps.Start)
			}
			p.Position = *ps.Start
		case len(open) > 0:
			p.Position = open[dice.Pick(roller, len(open))]
		default:
			return nil, fmt.Errorf("board has no empty cell to start on")
		}
		if p.Name == "" {
			p.Name = p.ID
		}
		players = append(players, p)
	}

	gs := state.NewGameState(players, setup.Seed)
	if setup.WinTrust > 0 {
		gs.WinTrust = setup.WinTrust
	}
	var deck []state.CardCount
	for _, def := range setup.Catalog.All() {
		deck = append(deck, state.CardCount{Def: def.ID, Count: def.Count})
	}
	gs.BuildDeck(deck)
	gs.Deal(handSize)
	var agendas []string
	for _, a := range setup.Catalog.Agendas() {
		agendas = append(agendas, a.ID)
	}
	gs.DealAgendas(agendas)

	return newEngine(gs, setup.Board, setup.Catalog, roller), nil
}

func newEngine(gs *state.GameState, b *board.Board, catalog *cards.Catalog, roller dice.Roller) *Engine {
	logger := slog.Default()
	e := &Engine{
		gs:        gs,
		board:     b,
		catalog:   catalog,
		effects:   NewEffects(b, roller),
		bus:       newBus(gs, catalog, logger),
		roller:    roller,
		decider:   PassDecider{},
		navigator: WalkNavigator{},
		logger:    logger,
	}
	e.titles = &TitleRegistry{gs: gs, bus: e.bus, effects: e.effects}
	return e
}

// Resume wraps a previously saved state, e.g. one loaded from a session
// store. The roller is seeded from the state's shuffle seed and turn.
func Resume(gs *state.GameState, b *board.Board, catalog *cards.Catalog) (*Engine, error) {
	if err := checkState(gs, catalog); err != nil {
		return nil, err
	}
	roller := dice.NewSeeded(gs.ShuffleSeed + int64(gs.Seq))
	return newEngine(gs, b, catalog, roller), nil
}

// WithRoller replaces the dice, e.g. with dice.NewFixed in tests
func (e *Engine) WithRoller(r dice.Roller) *Engine {
	e.roller = r
	e.effects.roller = r
	return e
}

func (e *Engine) WithDecider(d Decider) *Engine {
	e.decider = d
	e.bus.decider = d
	return e
}

func (e *Engine) WithNavigator(n Navigator) *Engine {
	e.navigator = n
	return e
}

// WithDecisionWindow bounds every decider call. When the window closes the
// player is treated as having passed.
func (e *Engine) WithDecisionWindow(d time.Duration) *Engine {
	e.window = d
	e.bus.window = d
	return e
}

func (e *Engine) WithLogger(l *slog.Logger) *Engine {
	e.logger = l
	e.bus.logger = l
	return e
}

// WithObserver registers an observer for committed actions
func (e *Engine) WithObserver(o Observer) *Engine {
	e.bus.observers = append(e.bus.observers, o)
	return e
}

// State returns a deep copy of the current game state.
func (e *Engine) State() *state.GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gs.Clone()
}

func (e *Engine) Board() *board.Board { return e.board }

func (e *Engine) Catalog() *cards.Catalog { return e.catalog }

// Restore replaces the session state, e.g. after loading a snapshot. Every
// card in gs must be known to catalog.
func (e *Engine) Restore(gs *state.GameState, catalog *cards.Catalog) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := checkState(gs, catalog); err != nil {
		return err
	}
	*e.gs = *gs.Clone()
	e.catalog = catalog
	e.bus.catalog = catalog
	return nil
}

func checkState(gs *state.GameState, catalog *cards.Catalog) error {
	if gs == nil || len(gs.Players) == 0 {
		return fmt.Errorf("state has no players")
	}
	if gs.Active < 0 || gs.Active >= len(gs.Players) {
		return fmt.Errorf("active seat %d out of range", gs.Active)
	}
	check := func(c state.Card) error {
		if _, ok := catalog.Get(c.Def); !ok {
			return fmt.Errorf("card %s: unknown definition %q", c.ID, c.Def)
		}
		return nil
	}
	var all []state.Card
	for _, p := range gs.Players {
		all = append(all, p.Hand...)
		all = append(all, p.Front...)
	}
	for _, hold := range gs.Titles {
		all = append(all, hold.Card)
	}
	all = slices.Concat(all, gs.DrawPile, gs.DiscardPile, gs.Table)
	for _, c := range all {
		if err := check(c); err != nil {
			return err
		}
	}
	for _, p := range gs.Players {
		for _, id := range append([]string{p.Agenda}, p.Revealed...) {
			if _, ok := catalog.Agenda(id); id != "" && !ok {
				return fmt.Errorf("player %s: unknown agenda %q", p.ID, id)
			}
		}
	}
	if gs.Titles == nil {
		gs.Titles = make(map[string]state.TitleHold)
	}
	if gs.Visited == nil {
		gs.Visited = make(map[string]bool)
	}
	return nil
}

// OfferInterrupt lists who could interrupt ev right now, in priority order.
func (e *Engine) OfferInterrupt(ev PendingEvent) []Eligible {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ev.Active == "" {
		if p := e.gs.ActivePlayer(); p != nil {
			ev.Active = p.ID
		}
	}
	return e.bus.eligible(ev)
}

// TitleHolder returns who holds a title, if anyone.
func (e *Engine) TitleHolder(title string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.titles.Holder(title)
}

// checkTurn verifies the game is running and player is active.
func (e *Engine) checkTurn(player string) (*state.Player, error) {
	if e.gs.Over() {
		return nil, ErrGameOver
	}
	p, err := e.gs.Player(player)
	if err != nil {
		return nil, err
	}
	if active := e.gs.ActivePlayer(); active.ID != player {
		return nil, fmt.Errorf("%w: %s is active", ErrNotYourTurn, active.ID)
	}
	return p, nil
}

func (e *Engine) propose(ctx context.Context, a state.Action) (state.Committed, error) {
	return e.bus.Propose(ctx, Proposal{Action: a})
}

// decisionContext applies the decision window to a decider call.
func (e *Engine) decisionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.window > 0 {
		return context.WithTimeout(ctx, e.window)
	}
	return context.WithCancel(ctx)
}
