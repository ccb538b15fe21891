package engine

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// RevealAgenda turns the active player's secret agenda face up once its
// objective holds. The reveal commits first, then each reward step goes
// through the bus like a card effect, so interrupts may react to it. A
// failed check leaves the agenda secret and changes nothing.
func (e *Engine) RevealAgenda(ctx context.Context, player string) ([]state.Committed, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.checkTurn(player)
	if err != nil {
		return nil, err
	}
	if p.Agenda == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoAgenda, player)
	}
	agenda, ok := e.catalog.Agenda(p.Agenda)
	if !ok {
		return nil, fmt.Errorf("%w: unknown agenda %q", ErrNoAgenda, p.Agenda)
	}
	if missing := unmet(e.gs, p, agenda.Objective); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s needs %s", ErrObjectiveUnmet, agenda.ID, strings.Join(missing, ", "))
	}

	c, err := e.propose(ctx, state.Action{
		Kind:     state.ActReveal,
		Target:   player,
		Card:     agenda.ID,
		Modifier: modifierOf(agenda.Bonus),
		Cause:    agenda.ID,
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("agenda revealed", "game_id", e.gs.ID, "player", player, "agenda", agenda.ID, "kept", agenda.Persistent())
	commits := []state.Committed{c}

	more, err := e.resolveSteps(ctx, agenda.Definition(), ResolveContext{Player: player, Card: agenda.ID})
	return append(commits, more...), err
}

// unmet lists the parts of o that p has not achieved yet.
func unmet(gs *state.GameState, p *state.Player, o cards.Objective) []string {
	var out []string
	if o.TrustAtLeast != nil && p.Trust[o.Owner] < *o.TrustAtLeast {
		out = append(out, fmt.Sprintf("%d trust with %s", *o.TrustAtLeast, o.Owner))
	}
	if o.FoodAtLeast != nil && p.Food < *o.FoodAtLeast {
		out = append(out, fmt.Sprintf("%d food", *o.FoodAtLeast))
	}
	if o.HandAtLeast != nil && len(p.Hand) < *o.HandAtLeast {
		out = append(out, fmt.Sprintf("%d cards in hand", *o.HandAtLeast))
	}
	if o.TitlesAtLeast != nil && len(gs.TitlesOf(p.ID)) < *o.TitlesAtLeast {
		out = append(out, fmt.Sprintf("%d titles", *o.TitlesAtLeast))
	}
	for _, owner := range slices.Sorted(maps.Keys(o.Visits)) {
		if n := o.Visits[owner]; p.Visits[owner] < n {
			out = append(out, fmt.Sprintf("%d visits to %s", n, owner))
		}
	}
	return out
}
