package engine

import (
	"context"

	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// TitleRegistry enforces that every title has at most one holder. Holds are
// stored in the game state keyed by title, never on the players.
type TitleRegistry struct {
	gs      *state.GameState
	bus     *Bus
	effects *Effects
}

func (t *TitleRegistry) Holder(title string) (string, bool) {
	return t.gs.HolderOf(title)
}

// Claim makes player the holder of def using the title card already on the
// table. A prior holder's card is discarded through the bus in the same
// transaction as the new hold, so the discard can be intercepted but the
// title is never observed with zero or two holders. Claiming a title the
// player already holds only discards the played copy.
func (t *TitleRegistry) Claim(ctx context.Context, def *cards.Definition, player, cardID string) ([]state.Committed, error) {
	claim := t.effects.claim(def, ResolveContext{Player: player, Card: cardID})
	discardPlayed := state.Action{
		Kind:   state.ActDiscard,
		Source: player,
		From:   state.ZoneTable,
		Card:   cardID,
		Cause:  def.ID,
	}

	hold, held := t.gs.Titles[def.ID]
	var p Proposal
	switch {
	case held && hold.Holder == player:
		p = Proposal{Action: discardPlayed}
	case held:
		p = Proposal{
			Action: state.Action{
				Kind:   state.ActDiscard,
				Source: hold.Holder,
				From:   state.ZoneTitle,
				Title:  def.ID,
				Card:   hold.Card.ID,
				Cause:  def.ID,
			},
			After: []state.Action{claim},
		}
	default:
		p = Proposal{Action: claim}
	}

	c, err := t.bus.Propose(ctx, p)
	if err != nil {
		return nil, err
	}
	return []state.Committed{c}, nil
}
