package cards

import (
	"errors"
	"slices"

	"github.com/jwebster45206/alley-cats/pkg/board"
)

// ErrUnboundEffect marks a catalog authoring defect: an effect step refers to
// an owner binding its card never captures.
var ErrUnboundEffect = errors.New("effect references an unbound owner")

type Category string

const (
	CategoryEffect Category = "effect"
	CategoryTitle  Category = "title"
)

type Timing string

const (
	TimingImmediate  Timing = "immediate"
	TimingDelayed    Timing = "delayed"
	TimingPersistent Timing = "persistent"
	TimingInterrupt  Timing = "interrupt"
)

// Requirement is a play-time precondition checked before any cost is paid.
type Requirement string

const (
	RequireOwnerCell Requirement = "owner_cell" // caster stands on an owner cell
	RequireOpponent  Requirement = "opponent"   // caster names an opponent
)

type StepKind string

const (
	StepGainFood      StepKind = "gain_food"
	StepGainTrust     StepKind = "gain_trust"
	StepLoseTrust     StepKind = "lose_trust"
	StepDrawCards     StepKind = "draw_cards"
	StepStealFood     StepKind = "steal_food"     // from the opponent with the most food
	StepStealCard     StepKind = "steal_card"     // random card from the opponent with the most cards
	StepDiscardRandom StepKind = "discard_random" // random card from the chosen opponent's hand
)

// OwnerRef names which owner a trust step applies to. Besides the constants
// below a literal owner id may be used.
type OwnerRef string

const (
	OwnerOfCell    OwnerRef = "cell"    // owner of the cell the card is played on
	OwnerBound     OwnerRef = "bound"   // owner captured when the card was played
	OwnerOfVisited OwnerRef = "visited" // owner of the cell that fired the trigger
)

type TargetRef string

const (
	TargetSelf     TargetRef = "self"
	TargetOpponent TargetRef = "opponent"
)

// Condition gates a step. It is evaluated after the preceding steps have
// been committed.
type Condition struct {
	Owner       OwnerRef `yaml:"owner,omitempty" json:"owner,omitempty"`
	TrustAbove  *int     `yaml:"trust_above,omitempty" json:"trust_above,omitempty"`
	FoodAtLeast *int     `yaml:"food_at_least,omitempty" json:"food_at_least,omitempty"`
}

// Step is one primitive action of a card's effect.
type Step struct {
	Kind   StepKind   `yaml:"kind" json:"kind"`
	Amount int        `yaml:"amount,omitempty" json:"amount,omitempty"`
	Owner  OwnerRef   `yaml:"owner,omitempty" json:"owner,omitempty"`
	Target TargetRef  `yaml:"target,omitempty" json:"target,omitempty"`
	If     *Condition `yaml:"if,omitempty" json:"if,omitempty"`
}

type TriggerEvent string

const (
	EventVisitedCell       TriggerEvent = "visited_cell"
	EventFight             TriggerEvent = "fight"
	EventVisitedOtherOwner TriggerEvent = "visited_other_owner"
)

// Trigger is the later, independent event that fires a delayed card.
type Trigger struct {
	Event    TriggerEvent   `yaml:"event" json:"event"`
	CellKind board.CellKind `yaml:"cell_kind,omitempty" json:"cell_kind,omitempty"`
}

// Passive modifiers granted while a persistent or title card is in play.
type Passive struct {
	Movement        int            `yaml:"movement,omitempty" json:"movement,omitempty"`
	Fight           int            `yaml:"fight,omitempty" json:"fight,omitempty"`
	BlockTrust      bool           `yaml:"block_trust,omitempty" json:"block_trust,omitempty"`
	Reroll          bool           `yaml:"reroll,omitempty" json:"reroll,omitempty"`
	OwnerFood       map[string]int `yaml:"owner_food,omitempty" json:"owner_food,omitempty"` // extra food from an owner's food reward
	VisitFood       map[string]int `yaml:"visit_food,omitempty" json:"visit_food,omitempty"` // food for any visit to an owner
	WinTrustPenalty int            `yaml:"win_trust_penalty,omitempty" json:"win_trust_penalty,omitempty"`
}

type InterruptPolicy string

const (
	RedirectRecipient   InterruptPolicy = "redirect_recipient"
	RedirectDestination InterruptPolicy = "redirect_destination"
)

type Placement string

const (
	PlaceSelf     Placement = "self"
	PlaceOpponent Placement = "opponent"
)

type Expiry string

const (
	ExpireNever       Expiry = ""
	ExpireHostTurnEnd Expiry = "host_turn_end"
)

// Definition is the static catalog entry for a card.
type Definition struct {
	ID        string          `yaml:"id" json:"id"`
	Title     string          `yaml:"title" json:"title"`
	Text      string          `yaml:"text" json:"text"`
	Count     int             `yaml:"count" json:"count"`
	Category  Category        `yaml:"category" json:"category"`
	Timing    Timing          `yaml:"timing" json:"timing"`
	Cost      int             `yaml:"cost,omitempty" json:"cost,omitempty"`
	Requires  []Requirement   `yaml:"requires,omitempty" json:"requires,omitempty"`
	Steps     []Step          `yaml:"steps,omitempty" json:"steps,omitempty"`
	Trigger   *Trigger        `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Passive   *Passive        `yaml:"passive,omitempty" json:"passive,omitempty"`
	Interrupt InterruptPolicy `yaml:"interrupt,omitempty" json:"interrupt,omitempty"`
	Placement Placement       `yaml:"placement,omitempty" json:"placement,omitempty"`
	Expires   Expiry          `yaml:"expires,omitempty" json:"expires,omitempty"`
}

// Needs reports whether r is one of the card's play requirements
func (d *Definition) Needs(r Requirement) bool {
	return slices.Contains(d.Requires, r)
}

// Binds reports whether playing the card captures the owner of the cell it
// is played on.
func (d *Definition) Binds() bool {
	if d.Timing != TimingDelayed && d.Timing != TimingPersistent {
		return false
	}
	return slices.Contains(d.Requires, RequireOwnerCell)
}

// StaysInPlay reports whether the card remains in front of a player after
// being played instead of going to the discard pile.
func (d *Definition) StaysInPlay() bool {
	if d.IsTitle() {
		return false
	}
	return d.Timing == TimingDelayed || d.Timing == TimingPersistent
}

func (d *Definition) IsTitle() bool { return d.Category == CategoryTitle }

func (d *Definition) IsInterrupt() bool { return d.Timing == TimingInterrupt }
