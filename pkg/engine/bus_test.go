package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeness_RedirectsTrust(t *testing.T) {
	tests := []struct {
		name   string
		amount int
		gain   func(t *testing.T, e *Engine) []state.Committed
	}{
		{
			name:   "owner cell reward",
			amount: 1,
			gain: func(t *testing.T, e *Engine) []state.Committed {
				readyToMove(t, e, "b", at(1, 3), 1)
				commits, err := e.MoveAlong(context.Background(), "b", []board.Coord{at(1, 4)})
				require.NoError(t, err)
				return commits
			},
		},
		{
			name:   "purr played by the active player",
			amount: 1,
			gain: func(t *testing.T, e *Engine) []state.Committed {
				activate(e, "b", state.PhasePlay)
				mustPlayer(t, e, "b").Position = at(1, 4)
				purr := give(t, e, "b", "purr")
				commits, err := e.PlayCard(context.Background(), "b", purr, PlayParams{})
				require.NoError(t, err)
				return commits
			},
		},
		{
			name:   "defender after a fight",
			amount: 2,
			gain: func(t *testing.T, e *Engine) []state.Committed {
				activate(e, "b", state.PhasePlay)
				bp := mustPlayer(t, e, "b")
				bp.Position = at(2, 2)
				bp.Front = append(bp.Front, state.Card{ID: "def-1", Def: "defender", Binding: &state.Binding{Owner: "student"}})
				mustPlayer(t, e, "c").Position = at(2, 2)
				res, err := e.Fight(context.Background(), "b", "c")
				require.NoError(t, err)
				return res.Committed
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			likeness := give(t, e, "a", "likeness")
			e.WithDecider(&scripted{interrupt: takeFrom("a")})

			commits := tt.gain(t, e)

			a := mustPlayer(t, e, "a")
			b := mustPlayer(t, e, "b")
			assert.Equal(t, tt.amount, a.Trust["student"])
			assert.Zero(t, b.Trust["student"])
			assert.Equal(t, state.InitialFood-2, a.Food)
			assert.False(t, inHand(a, likeness))
			assert.True(t, inDiscard(e, likeness))

			var redirected *state.Committed
			for i := range commits {
				if commits[i].Interrupt != nil {
					redirected = &commits[i]
				}
			}
			require.NotNil(t, redirected)
			assert.Equal(t, "b", redirected.Original.Target)
			assert.Equal(t, "a", redirected.Action.Target)
			assert.Equal(t, "likeness", redirected.Interrupt.Def)
		})
	}
}

func TestLikeness_NeedsFood(t *testing.T) {
	e := newTestEngine(t)
	give(t, e, "a", "likeness")
	mustPlayer(t, e, "a").Food = 1
	d := &scripted{interrupt: takeFrom("a")}
	e.WithDecider(d)

	readyToMove(t, e, "b", at(1, 3), 1)
	_, err := e.MoveAlong(context.Background(), "b", []board.Coord{at(1, 4)})
	require.NoError(t, err)

	assert.Empty(t, d.offers(), "nobody can pay, so nobody is asked")
	assert.Equal(t, 1, mustPlayer(t, e, "b").Trust["student"])
	assert.Equal(t, 1, mustPlayer(t, e, "a").Food)
}

func TestLikeness_NotOfferedWhileTrustBlocked(t *testing.T) {
	e := newTestEngine(t)
	likeness := give(t, e, "a", "likeness")
	mustPlayer(t, e, "a").Modifiers = []state.Modifier{{Source: "wild_cat", Fight: 2, BlockTrust: true}}
	d := &scripted{interrupt: takeFrom("a")}
	e.WithDecider(d)

	readyToMove(t, e, "b", at(1, 3), 1)
	_, err := e.MoveAlong(context.Background(), "b", []board.Coord{at(1, 4)})
	require.NoError(t, err)

	for _, ev := range d.offers() {
		assert.NotEqual(t, state.ActGainTrust, ev.Action.Kind, "a cannot take trust it would never receive")
	}
	a := mustPlayer(t, e, "a")
	assert.Equal(t, 1, mustPlayer(t, e, "b").Trust["student"])
	assert.Zero(t, a.Trust["student"])
	assert.Equal(t, state.InitialFood, a.Food)
	assert.True(t, inHand(a, likeness))
}

func TestInterrupt_InvalidChoiceIsRejected(t *testing.T) {
	e := newTestEngine(t)
	give(t, e, "a", "likeness")
	e.WithDecider(&scripted{interrupt: func(PendingEvent, []Eligible) *Eligible {
		return &Eligible{Player: "c", Card: "forged", Def: "likeness"}
	}})

	readyToMove(t, e, "b", at(1, 3), 1)
	commits, err := e.MoveAlong(context.Background(), "b", []board.Coord{at(1, 4)})
	require.NoError(t, err)

	last := commits[len(commits)-1]
	require.NotNil(t, last.Rejected)
	assert.Equal(t, "c", last.Rejected.Player)
	assert.Nil(t, last.Interrupt)
	assert.Equal(t, 1, mustPlayer(t, e, "b").Trust["student"], "original action commits unmodified")
	assert.Equal(t, state.InitialFood, mustPlayer(t, e, "c").Food)
}

func TestPickUp_RedirectsDiscard(t *testing.T) {
	e := newTestEngine(t)
	activate(e, "a", state.PhasePlay)
	trip := give(t, e, "a", "trip")
	mouse := give(t, e, "b", "caught_mouse")
	pickUp := give(t, e, "c", "pick_up")
	e.WithDecider(&scripted{interrupt: func(ev PendingEvent, eligible []Eligible) *Eligible {
		if ev.Action.Card != mouse {
			return nil
		}
		return takeFrom("c")(ev, eligible)
	}})

	_, err := e.PlayCard(context.Background(), "a", trip, PlayParams{Target: "b"})
	require.NoError(t, err)

	c := mustPlayer(t, e, "c")
	assert.True(t, inHand(c, mouse))
	assert.False(t, inDiscard(e, mouse))
	assert.Empty(t, mustPlayer(t, e, "b").Hand)
	assert.Equal(t, state.InitialFood-2, c.Food)
	assert.True(t, inDiscard(e, pickUp))
	assert.True(t, inDiscard(e, trip))
	assert.Equal(t, state.InitialFood-1, mustPlayer(t, e, "a").Food)
}

func TestPickUp_CannotSaveItself(t *testing.T) {
	e := newTestEngine(t)
	activate(e, "a", state.PhasePlay)
	trip := give(t, e, "a", "trip")
	pickUp := give(t, e, "b", "pick_up")
	d := &scripted{interrupt: takeFrom("b")}
	e.WithDecider(d)

	_, err := e.PlayCard(context.Background(), "a", trip, PlayParams{Target: "b"})
	require.NoError(t, err)

	for _, ev := range d.offers() {
		assert.NotEqual(t, pickUp, ev.Action.Card)
	}
	assert.True(t, inDiscard(e, pickUp))
	assert.Equal(t, state.InitialFood, mustPlayer(t, e, "b").Food)
}

func TestOfferInterrupt_TurnOrder(t *testing.T) {
	e := newTestEngine(t)
	give(t, e, "a", "likeness")
	give(t, e, "a", "likeness")
	give(t, e, "b", "likeness")
	give(t, e, "c", "pick_up")
	activate(e, "c", state.PhasePlay)

	ev := PendingEvent{Action: state.Action{Kind: state.ActGainTrust, Target: "c", Owner: "cook", Amount: 1}}
	eligible := e.OfferInterrupt(ev)
	require.Len(t, eligible, 2, "one entry per player and card kind")
	assert.Equal(t, "a", eligible[0].Player)
	assert.Equal(t, "b", eligible[1].Player)
	assert.Equal(t, cards.RedirectRecipient, eligible[0].Policy)
	assert.Equal(t, 2, eligible[0].Cost)

	activate(e, "a", state.PhasePlay)
	ev.Action.Target = "a"
	eligible = e.OfferInterrupt(ev)
	require.Len(t, eligible, 1, "the active player never interrupts")
	assert.Equal(t, "b", eligible[0].Player)

	assert.Empty(t, e.OfferInterrupt(PendingEvent{Action: state.Action{Kind: state.ActGainFood, Target: "a", Amount: 2}}))
}

func TestOfferInterrupt_SkippedActions(t *testing.T) {
	e := newTestEngine(t)
	give(t, e, "a", "likeness")
	activate(e, "b", state.PhasePlay)
	mustPlayer(t, e, "b").Modifiers = []state.Modifier{{Source: "rabies", BlockTrust: true}}

	ev := PendingEvent{Action: state.Action{Kind: state.ActGainTrust, Target: "b", Owner: "cook", Amount: 1}}
	assert.Empty(t, e.OfferInterrupt(ev), "a blocked gain is not about to happen")
}

func TestPropose_SerializesProposals(t *testing.T) {
	e := newTestEngine(t)
	give(t, e, "a", "likeness")

	var nested error
	e.WithDecider(&scripted{interrupt: func(PendingEvent, []Eligible) *Eligible {
		_, nested = e.bus.Propose(context.Background(), Proposal{
			Action: state.Action{Kind: state.ActGainFood, Target: "a", Amount: 1},
		})
		return nil
	}})

	readyToMove(t, e, "b", at(1, 3), 1)
	_, err := e.MoveAlong(context.Background(), "b", []board.Coord{at(1, 4)})
	require.NoError(t, err)
	assert.True(t, errors.Is(nested, ErrProposalInFlight))
	assert.Equal(t, state.InitialFood, mustPlayer(t, e, "a").Food)
}

func TestPropose_AllOrNothing(t *testing.T) {
	e := newTestEngine(t)
	before := e.State()

	_, err := e.bus.Propose(context.Background(), Proposal{
		Before: []state.Action{{Kind: state.ActGainFood, Target: "a", Amount: 3}},
		Action: state.Action{Kind: state.ActPayFood, Target: "b", Amount: 50},
	})
	require.ErrorIs(t, err, ErrInsufficientResources)
	assert.Equal(t, before.Players[0].Food, mustPlayer(t, e, "a").Food)
	assert.Equal(t, before.Seq, e.gs.Seq)
}

func TestDecisionWindow_PassesOnTimeout(t *testing.T) {
	tests := map[string]func(ctx context.Context) *Eligible{
		"decider honours the context": func(ctx context.Context) *Eligible {
			<-ctx.Done()
			return &Eligible{Player: "a"}
		},
		"decider ignores the context": func(context.Context) *Eligible {
			time.Sleep(200 * time.Millisecond)
			return &Eligible{Player: "a"}
		},
	}
	for name, wait := range tests {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(t).WithDecisionWindow(20 * time.Millisecond)
			give(t, e, "a", "likeness")
			e.WithDecider(ctxDecider(wait))

			readyToMove(t, e, "b", at(1, 3), 1)
			_, err := e.MoveAlong(context.Background(), "b", []board.Coord{at(1, 4)})
			require.NoError(t, err)
			assert.Equal(t, 1, mustPlayer(t, e, "b").Trust["student"])
			assert.Zero(t, mustPlayer(t, e, "a").Trust["student"])
		})
	}
}

type ctxDecider func(ctx context.Context) *Eligible

func (f ctxDecider) ChooseInterrupt(ctx context.Context, _ PendingEvent, _ []Eligible) (*Eligible, error) {
	return f(ctx), nil
}

func (ctxDecider) ChooseReroll(context.Context, string, int) (bool, error) { return false, nil }

func (ctxDecider) ChooseSpoils(context.Context, string, string) (Spoils, error) {
	return SpoilsFood, nil
}
