package actor

import (
	"fmt"

	"github.com/jwebster45206/alley-cats/pkg/dice"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/jwebster45206/d20"
)

// Fighter is a player prepared for a yard fight. The d20 actor carries the
// player's fight bonuses as combat modifiers, one per granting card.
type Fighter struct {
	PlayerID string
	Actor    *d20.Actor
}

// NewFighter builds a fighter from the player's current modifiers.
func NewFighter(p *state.Player) (*Fighter, error) {
	if p == nil {
		return nil, fmt.Errorf("player cannot be nil")
	}

	// Food doubles as staying power; the actor needs at least one HP.
	hp := max(1, p.Food)
	a, err := d20.NewActor(p.ID).
		WithHP(hp).
		WithAC(10).
		WithAttributes(map[string]int{
			"food":  p.Food,
			"cards": len(p.Hand),
		}).
		WithCombatModifiers(p.FightModifiers()).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build fighter %s: %w", p.ID, err)
	}
	return &Fighter{PlayerID: p.ID, Actor: a}, nil
}

// Strike rolls the fighter's d6 with every combat modifier applied.
func (f *Fighter) Strike(r dice.Roller) (d20.RollOutcome, error) {
	out, err := r.Check(6, f.Actor.GetCombatModifiers()...)
	if err != nil {
		return out, fmt.Errorf("%s failed to strike: %w", f.PlayerID, err)
	}
	return out, nil
}
