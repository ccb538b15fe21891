package engine

import (
	"context"
	"fmt"

	"github.com/jwebster45206/alley-cats/pkg/actor"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

const fightSpoilsFood = 2

type FightResult struct {
	Attacker     string            `json:"attacker"`
	Defender     string            `json:"defender"`
	AttackRoll   int               `json:"attack_roll"`
	DefendRoll   int               `json:"defend_roll"`
	AttackScore  int               `json:"attack_score"`
	DefendScore  int               `json:"defend_score"`
	AttackDetail string            `json:"attack_detail,omitempty"` // d20 roll description
	DefendDetail string            `json:"defend_detail,omitempty"`
	Winner       string            `json:"winner,omitempty"` // empty on a draw
	Loser        string            `json:"loser,omitempty"`
	Spoils       Spoils            `json:"spoils,omitempty"`
	Committed    []state.Committed `json:"committed,omitempty"`
}

// Fight lets the active player, after moving, attack one opponent standing
// on the same cell. Each side rolls a d6 plus fight bonuses; the winner
// takes 2 food or a random card from the loser. Delayed cards that react to
// fights fire for both sides whatever the outcome.
func (e *Engine) Fight(ctx context.Context, attacker, defender string) (*FightResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.checkTurn(attacker)
	if err != nil {
		return nil, err
	}
	if e.gs.Phase != state.PhasePlay {
		return nil, fmt.Errorf("%w: move before fighting", ErrNotPlayable)
	}
	if e.gs.Fought {
		return nil, fmt.Errorf("%w: already fought this turn", ErrNotPlayable)
	}
	d, err := e.gs.Player(defender)
	if err != nil {
		return nil, err
	}
	if d.ID == a.ID || d.Position != a.Position {
		return nil, fmt.Errorf("%w: %s is not on %s's cell", ErrNoEligibleTarget, defender, attacker)
	}

	fa, err := actor.NewFighter(a)
	if err != nil {
		return nil, err
	}
	fd, err := actor.NewFighter(d)
	if err != nil {
		return nil, err
	}

	res := &FightResult{Attacker: a.ID, Defender: d.ID}
	attack, err := fa.Strike(e.roller)
	if err != nil {
		return nil, err
	}
	defend, err := fd.Strike(e.roller)
	if err != nil {
		return nil, err
	}
	res.AttackRoll, res.AttackScore, res.AttackDetail = attack.DiceRolls[0], attack.Value, attack.Detail
	res.DefendRoll, res.DefendScore, res.DefendDetail = defend.DiceRolls[0], defend.Value, defend.Detail

	c, err := e.propose(ctx, state.Action{
		Kind:   state.ActFight,
		Source: a.ID,
		Target: d.ID,
		Cause:  fmt.Sprintf("%d:%d", res.AttackScore, res.DefendScore),
	})
	if err != nil {
		return nil, err
	}
	res.Committed = append(res.Committed, c)

	switch {
	case res.AttackScore > res.DefendScore:
		res.Winner, res.Loser = a.ID, d.ID
	case res.DefendScore > res.AttackScore:
		res.Winner, res.Loser = d.ID, a.ID
	}
	e.logger.Info("fight",
		"game_id", e.gs.ID,
		"attacker", a.ID,
		"defender", d.ID,
		"score", c.Action.Cause,
		"attack", res.AttackDetail,
		"defend", res.DefendDetail,
		"winner", res.Winner)

	if res.Winner != "" {
		more, err := e.fightSpoils(ctx, res)
		res.Committed = append(res.Committed, more...)
		if err != nil {
			return res, err
		}
	}

	for _, id := range []string{a.ID, d.ID} {
		more, err := e.fireTriggers(ctx, id, func(_ state.Card, t *cards.Trigger) bool {
			return t.Event == cards.EventFight
		}, nil)
		res.Committed = append(res.Committed, more...)
		if err != nil {
			return res, err
		}
	}
	return res, nil
}

func (e *Engine) fightSpoils(ctx context.Context, res *FightResult) ([]state.Committed, error) {
	dctx, cancel := e.decisionContext(ctx)
	choice, err := e.decider.ChooseSpoils(dctx, res.Winner, res.Loser)
	cancel()
	if err != nil {
		e.logger.Info("spoils decision failed, taking food", "game_id", e.gs.ID, "player", res.Winner, "error", err)
		choice = SpoilsFood
	}

	loser, _ := e.gs.Player(res.Loser)
	var spoils *state.Action
	if choice == SpoilsCard && len(loser.Hand) > 0 {
		picked := e.effects.randomCards(loser.Hand, 1)
		spoils = &state.Action{
			Kind:   state.ActMoveCard,
			Source: loser.ID,
			From:   state.ZoneHand,
			Card:   picked[0].ID,
			Target: res.Winner,
			Cause:  "fight",
		}
		res.Spoils = SpoilsCard
	} else if amount := min(fightSpoilsFood, loser.Food); amount > 0 {
		spoils = &state.Action{
			Kind:   state.ActTransferFood,
			Source: loser.ID,
			Target: res.Winner,
			Amount: amount,
			Cause:  "fight",
		}
		res.Spoils = SpoilsFood
	}

	var commits []state.Committed
	if spoils != nil {
		c, err := e.propose(ctx, *spoils)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}

	winner, _ := e.gs.Player(res.Winner)
	if penalty := winner.WinTrustPenalty(); penalty > 0 {
		loser, _ = e.gs.Player(res.Loser)
		if owner, _, ok := loser.HighestTrust(e.ownerOrder()); ok {
			c, err := e.propose(ctx, state.Action{
				Kind:   state.ActLoseTrust,
				Target: loser.ID,
				Owner:  owner,
				Amount: penalty,
				Cause:  "fight",
			})
			if err != nil {
				return commits, err
			}
			commits = append(commits, c)
		}
	}
	return commits, nil
}

func (e *Engine) ownerOrder() []string {
	var ids []string
	for _, o := range e.board.Owners() {
		ids = append(ids, o.ID)
	}
	return ids
}
