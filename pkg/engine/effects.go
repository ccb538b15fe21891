package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/dice"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

// ResolveContext is what an effect may refer to while it resolves.
type ResolveContext struct {
	Player  string
	Card    string         // card instance id
	Cell    board.Cell     // cell the card was played on
	Binding *state.Binding // captured when a delayed card was played
	Visited *board.Cell    // cell that fired a delayed trigger
	Target  string         // opponent chosen by the caster

	StepTargets map[int]string // per-step tie-breaks, see PlayParams
}

// choice is the caster's pick for step i.
func (rc ResolveContext) choice(i int) string {
	if t, ok := rc.StepTargets[i]; ok {
		return t
	}
	return rc.Target
}

// Effects turns card definitions into primitive actions.
type Effects struct {
	board  *board.Board
	roller dice.Roller
}

func NewEffects(b *board.Board, r dice.Roller) *Effects {
	return &Effects{board: b, roller: r}
}

// Resolve expands every step of the card against gs. Steps without an
// eligible target resolve to nothing. The engine resolves step by step so
// that each step sees the previous one committed; Resolve is the up-front
// check that the whole card can resolve at all.
func (e *Effects) Resolve(def *cards.Definition, rc ResolveContext, gs *state.GameState) ([]state.Action, error) {
	if def.IsTitle() {
		return []state.Action{e.claim(def, rc)}, nil
	}
	var out []state.Action
	for i := range def.Steps {
		acts, err := e.ResolveStep(def, i, rc, gs)
		if errors.Is(err, ErrNoEligibleTarget) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, acts...)
	}
	return out, nil
}

func (e *Effects) claim(def *cards.Definition, rc ResolveContext) state.Action {
	return state.Action{
		Kind:     state.ActClaimTitle,
		Source:   rc.Player,
		Target:   rc.Player,
		From:     state.ZoneTable,
		Card:     rc.Card,
		Title:    def.ID,
		Modifier: passiveModifier(def),
		Cause:    def.ID,
	}
}

// ResolveStep expands step i of def.
func (e *Effects) ResolveStep(def *cards.Definition, i int, rc ResolveContext, gs *state.GameState) ([]state.Action, error) {
	step := def.Steps[i]
	if step.Amount < 0 {
		return nil, fmt.Errorf("%s step %d: negative amount", def.ID, i+1)
	}

	var acts []state.Action
	switch step.Kind {
	case cards.StepGainFood, cards.StepDrawCards:
		target, err := e.target(step, rc)
		if err != nil {
			return nil, err
		}
		kind := state.ActGainFood
		if step.Kind == cards.StepDrawCards {
			kind = state.ActDrawCards
		}
		acts = append(acts, state.Action{Kind: kind, Target: target, Amount: step.Amount})

	case cards.StepGainTrust, cards.StepLoseTrust:
		owner, err := e.owner(step.Owner, rc)
		if err != nil {
			return nil, fmt.Errorf("%s step %d: %w", def.ID, i+1, err)
		}
		target, err := e.target(step, rc)
		if err != nil {
			return nil, err
		}
		kind := state.ActGainTrust
		if step.Kind == cards.StepLoseTrust {
			kind = state.ActLoseTrust
		}
		acts = append(acts, state.Action{Kind: kind, Target: target, Owner: owner, Amount: step.Amount})

	case cards.StepStealFood:
		victim, err := richest(gs, rc.Player, rc.choice(i), func(p *state.Player) int { return p.Food })
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.ID, err)
		}
		acts = append(acts, state.Action{
			Kind:   state.ActTransferFood,
			Source: victim.ID,
			Target: rc.Player,
			Amount: min(step.Amount, victim.Food),
		})

	case cards.StepStealCard:
		victim, err := richest(gs, rc.Player, rc.choice(i), func(p *state.Player) int { return len(p.Hand) })
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.ID, err)
		}
		for _, c := range e.randomCards(victim.Hand, step.Amount) {
			acts = append(acts, state.Action{
				Kind:   state.ActMoveCard,
				Source: victim.ID,
				From:   state.ZoneHand,
				Card:   c.ID,
				Target: rc.Player,
			})
		}

	case cards.StepDiscardRandom:
		target, err := e.target(step, rc)
		if err != nil {
			return nil, err
		}
		victim, err := gs.Player(target)
		if err != nil {
			return nil, err
		}
		picked := e.randomCards(victim.Hand, step.Amount)
		if len(picked) == 0 {
			return nil, fmt.Errorf("%s: %w: %s has no cards", def.ID, ErrNoEligibleTarget, victim.ID)
		}
		for _, c := range picked {
			acts = append(acts, state.Action{
				Kind:   state.ActDiscard,
				Source: victim.ID,
				From:   state.ZoneHand,
				Card:   c.ID,
			})
		}

	default:
		return nil, fmt.Errorf("%s step %d: unknown step kind %q", def.ID, i+1, step.Kind)
	}

	guard, err := e.guard(step, rc)
	if err != nil {
		return nil, fmt.Errorf("%s step %d: %w", def.ID, i+1, err)
	}
	for j := range acts {
		acts[j].Cause = def.ID
		acts[j].Guard = guard
	}
	return acts, nil
}

func (e *Effects) target(step cards.Step, rc ResolveContext) (string, error) {
	if step.Target != cards.TargetOpponent {
		return rc.Player, nil
	}
	if rc.Target == "" || rc.Target == rc.Player {
		return "", fmt.Errorf("%w: choose an opponent", ErrNoEligibleTarget)
	}
	return rc.Target, nil
}

// owner resolves an owner reference. References the context cannot satisfy
// are catalog defects, not player errors.
func (e *Effects) owner(ref cards.OwnerRef, rc ResolveContext) (string, error) {
	switch ref {
	case cards.OwnerOfCell:
		if rc.Cell.Kind != board.KindOwner || rc.Cell.Owner == "" {
			return "", fmt.Errorf("%w: card was not played on an owner cell", ErrUnboundEffect)
		}
		return rc.Cell.Owner, nil
	case cards.OwnerBound:
		if rc.Binding == nil || rc.Binding.Owner == "" {
			return "", fmt.Errorf("%w: no binding captured", ErrUnboundEffect)
		}
		return rc.Binding.Owner, nil
	case cards.OwnerOfVisited:
		if rc.Visited == nil || rc.Visited.Owner == "" {
			return "", fmt.Errorf("%w: no visited owner", ErrUnboundEffect)
		}
		return rc.Visited.Owner, nil
	case "":
		return "", fmt.Errorf("%w: missing owner", ErrUnboundEffect)
	}
	if _, ok := e.board.Owner(string(ref)); !ok {
		return "", fmt.Errorf("%w: unknown owner %q", ErrUnboundEffect, ref)
	}
	return string(ref), nil
}

func (e *Effects) guard(step cards.Step, rc ResolveContext) (*state.Guard, error) {
	if step.If == nil {
		return nil, nil
	}
	g := &state.Guard{
		Player:      rc.Player,
		TrustAbove:  step.If.TrustAbove,
		FoodAtLeast: step.If.FoodAtLeast,
	}
	if g.TrustAbove != nil {
		ref := step.If.Owner
		if ref == "" {
			ref = step.Owner
		}
		owner, err := e.owner(ref, rc)
		if err != nil {
			return nil, err
		}
		g.Owner = owner
	}
	return g, nil
}

// randomCards picks up to n distinct cards using the roller.
func (e *Effects) randomCards(hand []state.Card, n int) []state.Card {
	pool := slices.Clone(hand)
	var out []state.Card
	for range n {
		i := dice.Pick(e.roller, len(pool))
		if i < 0 {
			break
		}
		out = append(out, pool[i])
		pool = slices.Delete(pool, i, i+1)
	}
	return out
}

// richest finds the opponent with the highest positive measure. The caster
// is never a candidate. Ties need the caster's choice.
func richest(gs *state.GameState, caster, choice string, measure func(*state.Player) int) (*state.Player, error) {
	best := 0
	var tied []*state.Player
	for _, p := range gs.Players {
		if p.ID == caster {
			continue
		}
		switch v := measure(p); {
		case v > best:
			best = v
			tied = []*state.Player{p}
		case v == best && v > 0:
			tied = append(tied, p)
		}
	}

	switch len(tied) {
	case 0:
		return nil, ErrNoEligibleTarget
	case 1:
		return tied[0], nil
	}
	names := make([]string, 0, len(tied))
	for _, p := range tied {
		if p.ID == choice {
			return p, nil
		}
		names = append(names, p.ID)
	}
	return nil, fmt.Errorf("%w: %s", ErrAmbiguousTarget, strings.Join(names, ", "))
}

// passiveModifier converts a card's passive block into a player modifier.
func passiveModifier(def *cards.Definition) *state.Modifier {
	return modifierOf(def.Passive)
}

func modifierOf(p *cards.Passive) *state.Modifier {
	if p == nil {
		return nil
	}
	return &state.Modifier{
		Movement:        p.Movement,
		Fight:           p.Fight,
		BlockTrust:      p.BlockTrust,
		Reroll:          p.Reroll,
		OwnerFood:       maps.Clone(p.OwnerFood),
		VisitFood:       maps.Clone(p.VisitFood),
		WinTrustPenalty: p.WinTrustPenalty,
	}
}
