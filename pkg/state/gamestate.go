package state

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/board"
)

var (
	ErrUnknownPlayer         = errors.New("unknown player")
	ErrCardNotFound          = errors.New("card not found")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrInsufficientFood      = fmt.Errorf("%w: not enough food", ErrInsufficientResources)
	ErrInvalidAction         = errors.New("invalid action")
)

const (
	InitialFood     = 5
	InitialHandSize = 3
	DefaultWinTrust = 10
)

type Phase string

const (
	PhaseRoll Phase = "roll" // active player has not rolled yet
	PhaseMove Phase = "move" // rolled, Steps cells to walk
	PhasePlay Phase = "play" // moved; may fight and end the turn
	PhaseOver Phase = "over"
)

// Binding is the immutable snapshot a delayed or persistent card captures
// when it is played.
type Binding struct {
	Owner string      `json:"owner"`
	Cell  board.Coord `json:"cell"`
	Turn  int         `json:"turn"`
}

// Card is one physical card instance.
type Card struct {
	ID      string   `json:"id"`
	Def     string   `json:"def"`
	Binding *Binding `json:"binding,omitempty"`
	Caster  string   `json:"caster,omitempty"`  // who put it in front of its host
	Expires int      `json:"expires,omitempty"` // turn after which it is discarded, 0 = never
}

// Modifier is a persistent effect granted by a card in play. It lives exactly
// as long as its source card stays in front of the player or held as a title.
type Modifier struct {
	Source          string         `json:"source"`
	Movement        int            `json:"movement,omitempty"`
	Fight           int            `json:"fight,omitempty"`
	BlockTrust      bool           `json:"block_trust,omitempty"`
	Reroll          bool           `json:"reroll,omitempty"`
	OwnerFood       map[string]int `json:"owner_food,omitempty"`
	VisitFood       map[string]int `json:"visit_food,omitempty"`
	WinTrustPenalty int            `json:"win_trust_penalty,omitempty"`
}

type Player struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Position  board.Coord    `json:"position"`
	Food      int            `json:"food"`
	Hand      []Card         `json:"hand"`
	Front     []Card         `json:"front,omitempty"`
	Trust     map[string]int `json:"trust"`
	Modifiers []Modifier     `json:"modifiers,omitempty"`

	// Agenda is the secret agenda still face down, Revealed the ones kept
	// face up for their bonus.
	Agenda   string         `json:"agenda,omitempty"`
	Revealed []string       `json:"revealed,omitempty"`
	Visits   map[string]int `json:"visits,omitempty"` // owner -> credited visits
}

// TitleHold records who holds a title and the card instance that proves it.
type TitleHold struct {
	Holder string `json:"holder"`
	Card   Card   `json:"card"`
}

// GameState is the canonical mutable data of one session.
type GameState struct {
	ID       uuid.UUID `json:"id"`
	Players  []*Player `json:"players"`
	Active   int       `json:"active"`
	Turn     int       `json:"turn"`
	Phase    Phase     `json:"phase"`
	WinTrust int       `json:"win_trust"`
	Winner   string    `json:"winner,omitempty"`

	DrawPile    []Card `json:"draw_pile"`
	DiscardPile []Card `json:"discard_pile"`
	Table       []Card `json:"table,omitempty"` // cards being resolved

	// Titles is the single-holder registry keyed by title card definition.
	Titles map[string]TitleHold `json:"titles"`

	// AgendaBox holds agendas that left the game after being revealed.
	AgendaBox []string `json:"agenda_box,omitempty"`

	// Visited is the per-turn set of benefit cells already credited.
	Visited map[string]bool `json:"visited"`
	Steps   int             `json:"steps,omitempty"`
	Fought  bool            `json:"fought,omitempty"`

	ShuffleSeed int64 `json:"shuffle_seed"`
	Reshuffles  int   `json:"reshuffles"`
	Seq         int   `json:"seq"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGameState creates an empty session for the given players. Dealing and
// placement are left to the caller.
func NewGameState(players []*Player, seed int64) *GameState {
	for _, p := range players {
		if p.Trust == nil {
			p.Trust = make(map[string]int)
		}
	}
	now := time.Now()
	return &GameState{
		ID:          uuid.New(),
		Players:     players,
		Turn:        1,
		Phase:       PhaseRoll,
		WinTrust:    DefaultWinTrust,
		Titles:      make(map[string]TitleHold),
		Visited:     make(map[string]bool),
		ShuffleSeed: seed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (gs *GameState) Player(id string) (*Player, error) {
	for _, p := range gs.Players {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, id)
}

func (gs *GameState) ActivePlayer() *Player {
	if len(gs.Players) == 0 {
		return nil
	}
	return gs.Players[gs.Active]
}

// TurnOrderFrom returns the other players in turn order, starting with the
// one seated after id.
func (gs *GameState) TurnOrderFrom(id string) []*Player {
	start := slices.IndexFunc(gs.Players, func(p *Player) bool { return p.ID == id })
	out := make([]*Player, 0, len(gs.Players))
	for i := 1; i < len(gs.Players); i++ {
		out = append(out, gs.Players[(start+i)%len(gs.Players)])
	}
	return out
}

func (gs *GameState) Over() bool { return gs.Phase == PhaseOver }

// FindCard locates a card instance anywhere in the session.
func (gs *GameState) FindCard(id string) (Card, Zone, string, bool) {
	for _, p := range gs.Players {
		if i := indexOf(p.Hand, id); i >= 0 {
			return p.Hand[i], ZoneHand, p.ID, true
		}
		if i := indexOf(p.Front, id); i >= 0 {
			return p.Front[i], ZoneFront, p.ID, true
		}
	}
	for _, hold := range gs.Titles {
		if hold.Card.ID == id {
			return hold.Card, ZoneTitle, hold.Holder, true
		}
	}
	if i := indexOf(gs.Table, id); i >= 0 {
		return gs.Table[i], ZoneTable, "", true
	}
	if i := indexOf(gs.DiscardPile, id); i >= 0 {
		return gs.DiscardPile[i], ZoneDiscard, "", true
	}
	if i := indexOf(gs.DrawPile, id); i >= 0 {
		return gs.DrawPile[i], ZoneDraw, "", true
	}
	return Card{}, "", "", false
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	c := *gs
	c.Players = make([]*Player, len(gs.Players))
	for i, p := range gs.Players {
		c.Players[i] = p.clone()
	}
	c.DrawPile = cloneCards(gs.DrawPile)
	c.DiscardPile = cloneCards(gs.DiscardPile)
	c.Table = cloneCards(gs.Table)
	c.Titles = make(map[string]TitleHold, len(gs.Titles))
	for k, v := range gs.Titles {
		v.Card = v.Card.clone()
		c.Titles[k] = v
	}
	c.AgendaBox = slices.Clone(gs.AgendaBox)
	c.Visited = make(map[string]bool, len(gs.Visited))
	for k, v := range gs.Visited {
		c.Visited[k] = v
	}
	return &c
}

func (p *Player) clone() *Player {
	c := *p
	c.Hand = cloneCards(p.Hand)
	c.Front = cloneCards(p.Front)
	c.Trust = make(map[string]int, len(p.Trust))
	for k, v := range p.Trust {
		c.Trust[k] = v
	}
	c.Revealed = slices.Clone(p.Revealed)
	if p.Visits != nil {
		c.Visits = make(map[string]int, len(p.Visits))
		for k, v := range p.Visits {
			c.Visits[k] = v
		}
	}
	c.Modifiers = make([]Modifier, len(p.Modifiers))
	for i, m := range p.Modifiers {
		c.Modifiers[i] = m.clone()
	}
	return &c
}

func (c Card) clone() Card {
	if c.Binding != nil {
		b := *c.Binding
		c.Binding = &b
	}
	return c
}

func (m Modifier) clone() Modifier {
	if m.OwnerFood != nil {
		of := make(map[string]int, len(m.OwnerFood))
		for k, v := range m.OwnerFood {
			of[k] = v
		}
		m.OwnerFood = of
	}
	if m.VisitFood != nil {
		vf := make(map[string]int, len(m.VisitFood))
		for k, v := range m.VisitFood {
			vf[k] = v
		}
		m.VisitFood = vf
	}
	return m
}

func cloneCards(in []Card) []Card {
	if in == nil {
		return nil
	}
	out := make([]Card, len(in))
	for i, c := range in {
		out[i] = c.clone()
	}
	return out
}

func indexOf(cards []Card, id string) int {
	return slices.IndexFunc(cards, func(c Card) bool { return c.ID == id })
}

// HandCard returns the card with the given instance id from the hand
func (p *Player) HandCard(id string) (Card, bool) {
	if i := indexOf(p.Hand, id); i >= 0 {
		return p.Hand[i], true
	}
	return Card{}, false
}

func (p *Player) MovementBonus() int {
	total := 0
	for _, m := range p.Modifiers {
		total += m.Movement
	}
	return total
}

// FightModifiers returns fight bonuses keyed by their source card.
func (p *Player) FightModifiers() map[string]int {
	out := make(map[string]int)
	for _, m := range p.Modifiers {
		if m.Fight != 0 {
			out[m.Source] += m.Fight
		}
	}
	return out
}

func (p *Player) TrustBlocked() bool {
	return slices.ContainsFunc(p.Modifiers, func(m Modifier) bool { return m.BlockTrust })
}

// Reroll returns the first modifier granting a reroll.
func (p *Player) Reroll() (Modifier, bool) {
	for _, m := range p.Modifiers {
		if m.Reroll {
			return m, true
		}
	}
	return Modifier{}, false
}

func (p *Player) OwnerFoodBonus(owner string) int {
	total := 0
	for _, m := range p.Modifiers {
		total += m.OwnerFood[owner]
	}
	return total
}

// VisitFoodBonus is the food a visit to owner's cell grants on top of the
// owner's own reward.
func (p *Player) VisitFoodBonus(owner string) int {
	total := 0
	for _, m := range p.Modifiers {
		total += m.VisitFood[owner]
	}
	return total
}

func (p *Player) WinTrustPenalty() int {
	total := 0
	for _, m := range p.Modifiers {
		total += m.WinTrustPenalty
	}
	return total
}

// HighestTrust returns the owner the player trusts most, preferring the
// first of order on ties. ok is false when the player has no trust at all.
func (p *Player) HighestTrust(order []string) (owner string, amount int, ok bool) {
	for _, o := range order {
		if v := p.Trust[o]; v > amount {
			owner, amount, ok = o, v, true
		}
	}
	return owner, amount, ok
}
