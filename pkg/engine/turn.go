package engine

import (
	"context"
	"fmt"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

const (
	kioskCards   = 1
	basementFood = 2
)

// Movement reports a roll and the walk that followed it.
type Movement struct {
	Player    string            `json:"player"`
	Roll      int               `json:"roll"`
	Rerolled  bool              `json:"rerolled,omitempty"`
	Bonus     int               `json:"bonus,omitempty"`
	Steps     int               `json:"steps"`
	Path      []board.Coord     `json:"path,omitempty"`
	Committed []state.Committed `json:"committed,omitempty"`
}

// Roll rolls the movement die for the active player. The player must then
// walk exactly Steps cells with MoveAlong.
func (e *Engine) Roll(ctx context.Context, player string) (*Movement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.roll(ctx, player)
}

// RollAndMove rolls and walks the path chosen by the navigator.
func (e *Engine) RollAndMove(ctx context.Context, player string) (*Movement, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, err := e.roll(ctx, player)
	if err != nil {
		return m, err
	}
	p, _ := e.gs.Player(player)
	path, ok := e.navigator.Path(e.board, p.Position, m.Steps)
	if !ok {
		return m, fmt.Errorf("%w: no walk of %d steps from %s", ErrInvalidMove, m.Steps, p.Position)
	}
	commits, err := e.moveAlong(ctx, player, path)
	m.Path = path
	m.Committed = append(m.Committed, commits...)
	return m, err
}

// MoveAlong walks an explicit path after a roll. The path must have exactly
// as many steps as were rolled.
func (e *Engine) MoveAlong(ctx context.Context, player string, path []board.Coord) ([]state.Committed, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moveAlong(ctx, player, path)
}

func (e *Engine) roll(ctx context.Context, player string) (*Movement, error) {
	p, err := e.checkTurn(player)
	if err != nil {
		return nil, err
	}
	if e.gs.Phase != state.PhaseRoll {
		return nil, fmt.Errorf("%w: %s already rolled this turn", ErrInvalidMove, player)
	}

	m := &Movement{Player: player, Roll: e.roller.Roll(6)}
	if mod, ok := p.Reroll(); ok {
		dctx, cancel := e.decisionContext(ctx)
		again, err := e.decider.ChooseReroll(dctx, player, m.Roll)
		cancel()
		if err != nil {
			e.logger.Info("reroll decision failed, keeping roll", "game_id", e.gs.ID, "player", player, "error", err)
		}
		if again && err == nil {
			m.Roll = e.roller.Roll(6)
			m.Rerolled = true
			c, err := e.propose(ctx, state.Action{
				Kind:   state.ActDiscard,
				Source: player,
				From:   state.ZoneFront,
				Card:   mod.Source,
				Cause:  "reroll",
			})
			if err != nil {
				return m, err
			}
			m.Committed = append(m.Committed, c)
		}
	}

	p, _ = e.gs.Player(player)
	m.Bonus = p.MovementBonus()
	m.Steps = max(0, m.Roll+m.Bonus)
	c, err := e.propose(ctx, state.Action{
		Kind:   state.ActRoll,
		Target: player,
		Amount: m.Steps,
		Cause:  fmt.Sprintf("d6=%d", m.Roll),
	})
	if err != nil {
		return m, err
	}
	m.Committed = append(m.Committed, c)
	e.logger.Debug("movement rolled", "game_id", e.gs.ID, "player", player, "roll", m.Roll, "bonus", m.Bonus)
	return m, nil
}

func (e *Engine) moveAlong(ctx context.Context, player string, path []board.Coord) ([]state.Committed, error) {
	p, err := e.checkTurn(player)
	if err != nil {
		return nil, err
	}
	if e.gs.Phase != state.PhaseMove {
		return nil, fmt.Errorf("%w: roll before moving", ErrInvalidMove)
	}
	if len(path) != e.gs.Steps {
		return nil, fmt.Errorf("%w: path has %d steps, rolled %d", ErrInvalidMove, len(path), e.gs.Steps)
	}
	if err := e.board.ValidatePath(p.Position, path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}

	c, err := e.propose(ctx, state.Action{Kind: state.ActMove, Target: player, Path: path})
	if err != nil {
		return nil, err
	}
	commits := []state.Committed{c}
	for _, at := range path {
		more, err := e.resolveCell(ctx, player, at)
		commits = append(commits, more...)
		if err != nil {
			return commits, err
		}
	}
	return commits, nil
}

// resolveCell credits a benefit cell at most once per turn and fires the
// delayed cards that react to the visit.
func (e *Engine) resolveCell(ctx context.Context, player string, at board.Coord) ([]state.Committed, error) {
	cell, _ := e.board.Cell(at)
	if !cell.GrantsBenefit() || e.gs.Visited[cell.ID()] {
		return nil, nil
	}
	benefit, err := e.benefit(player, cell)
	if err != nil {
		return nil, err
	}
	visit := Proposal{
		Before: []state.Action{{Kind: state.ActVisit, Target: player, Owner: cell.Owner, Cause: cell.ID()}},
		Action: benefit,
	}
	if p, err := e.gs.Player(player); err == nil && cell.Owner != "" {
		if bonus := p.VisitFoodBonus(cell.Owner); bonus > 0 {
			visit.After = []state.Action{{Kind: state.ActGainFood, Target: player, Amount: bonus, Cause: cell.ID()}}
		}
	}
	c, err := e.bus.Propose(ctx, visit)
	if err != nil {
		return nil, err
	}
	commits := []state.Committed{c}
	more, err := e.fireTriggers(ctx, player, func(card state.Card, t *cards.Trigger) bool {
		switch t.Event {
		case cards.EventVisitedCell:
			return t.CellKind == "" || t.CellKind == cell.Kind
		case cards.EventVisitedOtherOwner:
			return cell.Kind == board.KindOwner && card.Binding != nil && card.Binding.Owner != cell.Owner
		}
		return false
	}, &cell)
	return append(commits, more...), err
}

func (e *Engine) benefit(player string, cell board.Cell) (state.Action, error) {
	switch cell.Kind {
	case board.KindKiosk:
		return state.Action{Kind: state.ActDrawCards, Target: player, Amount: kioskCards, Cause: string(board.KindKiosk)}, nil
	case board.KindBasement:
		return state.Action{Kind: state.ActGainFood, Target: player, Amount: basementFood, Cause: string(board.KindBasement)}, nil
	case board.KindOwner:
		owner, ok := e.board.Owner(cell.Owner)
		if !ok {
			return state.Action{}, fmt.Errorf("cell %s names unknown owner %q", cell.ID(), cell.Owner)
		}
		a := state.Action{Target: player, Owner: owner.ID, Amount: owner.Reward.Amount, Cause: owner.ID}
		switch owner.Reward.Type {
		case board.RewardTrust:
			a.Kind = state.ActGainTrust
		case board.RewardFood:
			a.Kind = state.ActGainFood
			a.Owner = ""
			p, _ := e.gs.Player(player)
			a.Amount += p.OwnerFoodBonus(owner.ID)
		case board.RewardCard:
			a.Kind = state.ActDrawCards
			a.Owner = ""
		default:
			return state.Action{}, fmt.Errorf("owner %s has unknown reward %q", owner.ID, owner.Reward.Type)
		}
		return a, nil
	}
	return state.Action{}, fmt.Errorf("cell %s grants nothing", cell.ID())
}

// fireTriggers resolves every delayed card in front of host whose trigger
// matches, using the binding captured when the card was played. A fired
// card is discarded. A broken card is logged and discarded without
// stopping the others.
func (e *Engine) fireTriggers(ctx context.Context, host string, match func(state.Card, *cards.Trigger) bool, visited *board.Cell) ([]state.Committed, error) {
	p, err := e.gs.Player(host)
	if err != nil {
		return nil, err
	}
	var due []state.Card
	for _, c := range p.Front {
		def, ok := e.catalog.Get(c.Def)
		if !ok || def.Timing != cards.TimingDelayed || def.Trigger == nil {
			continue
		}
		if match(c, def.Trigger) {
			due = append(due, c)
		}
	}

	var commits []state.Committed
	for _, card := range due {
		def, _ := e.catalog.Get(card.Def)
		rc := ResolveContext{Player: host, Card: card.ID, Binding: card.Binding, Visited: visited}
		if card.Binding != nil {
			rc.Cell, _ = e.board.Cell(card.Binding.Cell)
		}
		e.logger.Info("delayed card fired", "game_id", e.gs.ID, "player", host, "card", def.ID)

		more, err := e.resolveSteps(ctx, def, rc)
		commits = append(commits, more...)
		if err != nil && !isRuleError(err) {
			return commits, err
		}

		c, err := e.propose(ctx, state.Action{
			Kind:   state.ActDiscard,
			Source: host,
			From:   state.ZoneFront,
			Card:   card.ID,
			Cause:  def.ID,
		})
		if err != nil {
			return commits, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// EndTurn discards expired cards in front of the player, clears the visit
// set and hands the turn to the next seat.
func (e *Engine) EndTurn(ctx context.Context, player string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.checkTurn(player)
	if err != nil {
		return "", err
	}
	if e.gs.Phase != state.PhasePlay {
		return "", fmt.Errorf("%w: roll and move before ending the turn", ErrInvalidMove)
	}

	for _, c := range p.Front {
		if c.Expires == 0 || c.Expires > e.gs.Turn {
			continue
		}
		if _, err := e.propose(ctx, state.Action{
			Kind:   state.ActDiscard,
			Source: player,
			From:   state.ZoneFront,
			Card:   c.ID,
			Cause:  "expired",
		}); err != nil {
			return "", err
		}
	}

	next := player
	if order := e.gs.TurnOrderFrom(player); len(order) > 0 {
		next = order[0].ID
	}
	if _, err := e.propose(ctx, state.Action{Kind: state.ActEndTurn, Source: player, Target: next}); err != nil {
		return "", err
	}
	e.logger.Info("turn ended", "game_id", e.gs.ID, "player", player, "next", next, "turn", e.gs.Turn)
	return next, nil
}
