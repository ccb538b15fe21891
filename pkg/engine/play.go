package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// PlayParams carries the caster's choices for a card.
type PlayParams struct {
	// Target is the chosen opponent, or the tie-break when several
	// opponents qualify for a "richest player" step.
	Target string `json:"target,omitempty"`
	// StepTargets breaks ties per effect step, keyed by the 0-based step
	// index, so two steps with different ties each get their own choice.
	// A step without an entry falls back to Target.
	StepTargets map[int]string `json:"step_targets,omitempty"`
}

// PlayCard plays a card from the active player's hand. Cards may be played
// before or after moving. Interrupt cards are rejected; they are only
// played in reaction to a pending event.
//
// Validation failures leave the state untouched. An error raised while the
// effect resolves (a catalog defect) is returned together with whatever
// had already committed.
func (e *Engine) PlayCard(ctx context.Context, player, cardID string, params PlayParams) ([]state.Committed, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.checkTurn(player)
	if err != nil {
		return nil, err
	}
	card, ok := p.HandCard(cardID)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not in %s's hand", ErrCardNotFound, cardID, player)
	}
	def, ok := e.catalog.Get(card.Def)
	if !ok {
		return nil, fmt.Errorf("%w: unknown card %q", ErrNotPlayable, card.Def)
	}
	if def.IsInterrupt() {
		return nil, fmt.Errorf("%w: %s is only played in reaction to another action", ErrNotPlayable, def.ID)
	}

	cell, _ := e.board.Cell(p.Position)
	if def.Needs(cards.RequireOwnerCell) && cell.Kind != board.KindOwner {
		return nil, fmt.Errorf("%w: %s must be played on an owner cell", ErrNotPlayable, def.ID)
	}
	if def.Needs(cards.RequireOpponent) || def.Placement == cards.PlaceOpponent {
		if params.Target == "" || params.Target == player {
			return nil, fmt.Errorf("%w: %s needs an opponent", ErrNotPlayable, def.ID)
		}
		if _, err := e.gs.Player(params.Target); err != nil {
			return nil, err
		}
	}
	if p.Food < def.Cost {
		return nil, fmt.Errorf("%w: %s costs %d food, %s has %d", ErrInsufficientResources, def.ID, def.Cost, player, p.Food)
	}

	rc := ResolveContext{Player: player, Card: cardID, Cell: cell, Target: params.Target, StepTargets: params.StepTargets}
	if def.Binds() && cell.Owner == "" {
		return nil, fmt.Errorf("%s: %w: no owner to bind", def.ID, ErrUnboundEffect)
	}
	if def.Timing == cards.TimingImmediate {
		if _, err := e.effects.Resolve(def, rc, e.gs); err != nil {
			e.logResolveError(def, player, err)
			return nil, err
		}
	}

	play := Proposal{Action: state.Action{Kind: state.ActPlayCard, Source: player, Card: cardID, Cause: def.ID}}
	if def.Cost > 0 {
		play.Before = []state.Action{{Kind: state.ActPayFood, Target: player, Amount: def.Cost, Cause: def.ID}}
	}
	first, err := e.bus.Propose(ctx, play)
	if err != nil {
		return nil, err
	}
	e.logger.Info("card played", "game_id", e.gs.ID, "player", player, "card", def.ID, "target", params.Target)
	commits := []state.Committed{first}

	var more []state.Committed
	switch {
	case def.IsTitle():
		more, err = e.titles.Claim(ctx, def, player, cardID)
	case def.StaysInPlay():
		more, err = e.placeInFront(ctx, def, rc)
	default:
		more, err = e.resolveImmediate(ctx, def, rc)
	}
	return append(commits, more...), err
}

func (e *Engine) placeInFront(ctx context.Context, def *cards.Definition, rc ResolveContext) ([]state.Committed, error) {
	host := rc.Player
	if def.Placement == cards.PlaceOpponent {
		host = rc.Target
	}
	a := state.Action{
		Kind:     state.ActPlaceInFront,
		Source:   rc.Player,
		Target:   host,
		From:     state.ZoneTable,
		Card:     rc.Card,
		Modifier: passiveModifier(def),
		Cause:    def.ID,
	}
	if def.Binds() {
		a.Binding = &state.Binding{Owner: rc.Cell.Owner, Cell: rc.Cell.Coord, Turn: e.gs.Turn}
	}
	if def.Expires == cards.ExpireHostTurnEnd {
		a.Expires = e.hostTurnEnd(host)
	}
	c, err := e.propose(ctx, a)
	if err != nil {
		return nil, err
	}
	return []state.Committed{c}, nil
}

// hostTurnEnd is the turn number of host's next turn. When host is the
// active player that is the turn after this one comes back around.
func (e *Engine) hostTurnEnd(host string) int {
	n := len(e.gs.Players)
	seat := 0
	for i, p := range e.gs.Players {
		if p.ID == host {
			seat = i
		}
	}
	d := (seat - e.gs.Active + n) % n
	if d == 0 {
		d = n
	}
	return e.gs.Turn + d
}

// resolveImmediate proposes the card's steps one at a time, each expanded
// against the state left by the previous one, then discards the card.
func (e *Engine) resolveImmediate(ctx context.Context, def *cards.Definition, rc ResolveContext) ([]state.Committed, error) {
	commits, stepErr := e.resolveSteps(ctx, def, rc)

	c, err := e.propose(ctx, state.Action{
		Kind:   state.ActDiscard,
		Source: rc.Player,
		From:   state.ZoneTable,
		Card:   rc.Card,
		Cause:  def.ID,
	})
	if err != nil {
		return commits, errors.Join(stepErr, err)
	}
	return append(commits, c), stepErr
}

func (e *Engine) resolveSteps(ctx context.Context, def *cards.Definition, rc ResolveContext) ([]state.Committed, error) {
	var commits []state.Committed
	for i := range def.Steps {
		acts, err := e.effects.ResolveStep(def, i, rc, e.gs)
		if errors.Is(err, ErrNoEligibleTarget) {
			e.logger.Info("effect clause has no target", "game_id", e.gs.ID, "card", def.ID, "step", i+1, "error", err)
			continue
		}
		if err != nil {
			e.logResolveError(def, rc.Player, err)
			return commits, err
		}
		for _, a := range acts {
			c, err := e.propose(ctx, a)
			if err != nil {
				return commits, err
			}
			commits = append(commits, c)
		}
	}
	return commits, nil
}

func (e *Engine) logResolveError(def *cards.Definition, player string, err error) {
	if errors.Is(err, ErrUnboundEffect) {
		e.logger.Error("card definition is broken", "game_id", e.gs.ID, "card", def.ID, "player", player, "error", err)
		return
	}
	e.logger.Warn("card cannot resolve", "game_id", e.gs.ID, "card", def.ID, "player", player, "error", err)
}
