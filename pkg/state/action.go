package state

import (
	"github.com/jwebster45206/alley-cats/pkg/board"
)

// Zone is a place a card instance can be in.
type Zone string

const (
	ZoneHand    Zone = "hand"
	ZoneFront   Zone = "front" // delayed and persistent cards in front of a player
	ZoneTitle   Zone = "title" // the title registry
	ZoneTable   Zone = "table" // played, resolving
	ZoneDraw    Zone = "draw"
	ZoneDiscard Zone = "discard"
)

type ActionKind string

const (
	ActGainFood     ActionKind = "gain_food"     // Target += Amount
	ActPayFood      ActionKind = "pay_food"      // Target -= Amount, fails when short
	ActTransferFood ActionKind = "transfer_food" // Source -> Target, fails when Source is short
	ActGainTrust    ActionKind = "gain_trust"    // Target's trust with Owner += Amount unless blocked
	ActLoseTrust    ActionKind = "lose_trust"    // clamps at zero
	ActDrawCards    ActionKind = "draw_cards"    // Target draws up to Amount cards
	ActPlayCard     ActionKind = "play_card"     // Card: Source's hand -> table
	ActMoveCard     ActionKind = "move_card"     // Card: From zone of Source -> Target's hand
	ActDiscard      ActionKind = "discard"       // Card: From zone of Source -> discard pile
	ActPlaceInFront ActionKind = "place_in_front"
	ActClaimTitle   ActionKind = "claim_title"
	ActMove         ActionKind = "move"     // Target walks Path
	ActRoll         ActionKind = "roll"     // Target may move Amount cells
	ActVisit        ActionKind = "visit"    // cell Cause credited to Target this turn
	ActFight        ActionKind = "fight"    // Source attacked Target this turn
	ActEndTurn      ActionKind = "end_turn" // Source hands the turn to Target
	ActReveal       ActionKind = "reveal"   // Target turns agenda Card face up
)

// Action is one primitive state change. Which fields matter depends on Kind.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Source string     `json:"source,omitempty"`
	Target string     `json:"target,omitempty"`
	Owner  string     `json:"owner,omitempty"`
	Amount int        `json:"amount,omitempty"`

	Card  string `json:"card,omitempty"`
	From  Zone   `json:"from,omitempty"`
	Title string `json:"title,omitempty"`

	Path []board.Coord `json:"path,omitempty"`

	Binding  *Binding  `json:"binding,omitempty"`
	Modifier *Modifier `json:"modifier,omitempty"`
	Expires  int       `json:"expires,omitempty"`

	// Cause names the card definition or cell that produced the action.
	Cause string `json:"cause,omitempty"`
	Guard *Guard `json:"guard,omitempty"`
}

// Guard is a condition checked against the state right before the action
// is committed. A failing guard turns the action into a no-op.
type Guard struct {
	Player      string `json:"player"`
	Owner       string `json:"owner,omitempty"`
	TrustAbove  *int   `json:"trust_above,omitempty"`
	FoodAtLeast *int   `json:"food_at_least,omitempty"`
}

// Holds evaluates the guard.
func (g *Guard) Holds(gs *GameState) bool {
	if g == nil {
		return true
	}
	p, err := gs.Player(g.Player)
	if err != nil {
		return false
	}
	if g.TrustAbove != nil && p.Trust[g.Owner] <= *g.TrustAbove {
		return false
	}
	if g.FoodAtLeast != nil && p.Food < *g.FoodAtLeast {
		return false
	}
	return true
}

// Interceptable reports whether interrupt cards may react to the action.
func (a Action) Interceptable() bool {
	return a.Kind == ActGainTrust || a.Kind == ActDiscard
}

// InterruptUse records an interrupt card consumed by a committed action.
type InterruptUse struct {
	Player string `json:"player"`
	Card   string `json:"card"`
	Def    string `json:"def"`
}

// Committed is the externally visible record of one resolved proposal.
type Committed struct {
	Seq    int    `json:"seq"`
	Turn   int    `json:"turn"`
	Action Action `json:"action"`

	// Batch is every action applied in the transaction, in order, including
	// Action itself, cost payments and riders.
	Batch []Action `json:"batch"`

	// Original is set when an interrupt rewrote the action.
	Original  *Action       `json:"original,omitempty"`
	Interrupt *InterruptUse `json:"interrupt,omitempty"`

	// Rejected is an interrupt that was chosen but could not be played.
	Rejected *InterruptUse `json:"rejected,omitempty"`

	// Skipped explains why the action changed nothing, e.g. a false guard.
	Skipped string `json:"skipped,omitempty"`
}

// Redirected reports whether an interrupt changed the action.
func (c Committed) Redirected() bool { return c.Original != nil }
