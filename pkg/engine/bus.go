package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jwebster45206/alley-cats/pkg/engine"

// Proposal is an action together with the non-interceptable actions that
// commit in the same transaction: Before runs first (cost payments), After
// runs last (riders such as a title claim).
type Proposal struct {
	Before []state.Action
	Action state.Action
	After  []state.Action
}

func (p Proposal) batch(main state.Action, extra ...state.Action) []state.Action {
	out := make([]state.Action, 0, len(p.Before)+len(p.After)+len(extra)+1)
	out = append(out, p.Before...)
	out = append(out, main)
	out = append(out, extra...)
	return append(out, p.After...)
}

// Bus is the trigger bus. Every state change goes through Propose, which
// gives interrupt holders one chance to react before the change commits.
type Bus struct {
	gs        *state.GameState
	catalog   *cards.Catalog
	decider   Decider
	window    time.Duration
	observers []Observer
	logger    *slog.Logger
	tracer    trace.Tracer

	inFlight atomic.Bool
}

func newBus(gs *state.GameState, catalog *cards.Catalog, logger *slog.Logger) *Bus {
	return &Bus{
		gs:      gs,
		catalog: catalog,
		decider: PassDecider{},
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}

// Propose resolves one proposal. Only one proposal may be unresolved at a
// time; a nested call fails with ErrProposalInFlight.
func (b *Bus) Propose(ctx context.Context, p Proposal) (state.Committed, error) {
	if !b.inFlight.CompareAndSwap(false, true) {
		return state.Committed{}, ErrProposalInFlight
	}
	defer b.inFlight.Store(false)

	ctx, span := b.tracer.Start(ctx, "bus.propose", trace.WithAttributes(
		attribute.String("game.id", b.gs.ID.String()),
		attribute.String("action.kind", string(p.Action.Kind)),
		attribute.String("action.target", p.Action.Target),
		attribute.String("action.cause", p.Action.Cause),
	))
	defer span.End()

	c, err := b.resolve(ctx, p)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		return c, err
	}
	if c.Interrupt != nil {
		span.SetAttributes(attribute.String("interrupt.card", c.Interrupt.Def))
	}

	b.gs.Seq++
	c.Seq = b.gs.Seq
	b.logger.Debug("action committed",
		"game_id", b.gs.ID,
		"seq", c.Seq,
		"action", c.Action.Kind,
		"target", c.Action.Target,
		"cause", c.Action.Cause,
		"redirected", c.Redirected(),
		"skipped", c.Skipped)

	for _, o := range b.observers {
		o.OnCommit(ctx, b.gs.ID, c)
	}
	return c, nil
}

func (b *Bus) resolve(ctx context.Context, p Proposal) (state.Committed, error) {
	c := state.Committed{Turn: b.gs.Turn, Action: p.Action}
	original := p.batch(p.Action)

	if skip := b.gs.SkipReason(p.Action); skip != "" {
		c.Skipped = skip
	} else if p.Action.Interceptable() {
		ev := PendingEvent{Seq: b.gs.Seq + 1, Action: p.Action}
		if active := b.gs.ActivePlayer(); active != nil {
			ev.Active = active.ID
		}
		if eligible := b.eligible(ev); len(eligible) > 0 {
			if choice := b.ask(ctx, ev, eligible); choice != nil {
				use := &state.InterruptUse{Player: choice.Player, Card: choice.Card, Def: choice.Def}
				rewritten, batch, err := b.interruptBatch(p, *choice, eligible)
				if err == nil {
					err = b.gs.Apply(batch...)
				}
				if err == nil {
					orig := p.Action
					c.Action = rewritten
					c.Original = &orig
					c.Interrupt = use
					c.Batch = batch
					return c, nil
				}
				c.Rejected = use
				b.logger.Warn("interrupt rejected",
					"game_id", b.gs.ID,
					"player", choice.Player,
					"card", choice.Def,
					"error", err)
			}
		}
	}

	if err := b.gs.Apply(original...); err != nil {
		return c, err
	}
	c.Batch = original
	return c, nil
}

// interruptBatch builds the transaction for a chosen interrupt: payment,
// the rewritten action, then the used interrupt card going to the discard
// pile as a plain rider.
func (b *Bus) interruptBatch(p Proposal, choice Eligible, eligible []Eligible) (state.Action, []state.Action, error) {
	valid := false
	for _, e := range eligible {
		if e.Player == choice.Player && e.Card == choice.Card {
			valid = true
			break
		}
	}
	if !valid {
		return state.Action{}, nil, fmt.Errorf("%w: %s by %s", ErrInvalidInterrupt, choice.Card, choice.Player)
	}
	def, _ := b.catalog.Get(choice.Def)

	a := p.Action
	var rewritten state.Action
	switch def.Interrupt {
	case cards.RedirectRecipient:
		rewritten = a
		rewritten.Target = choice.Player
	case cards.RedirectDestination:
		rewritten = state.Action{
			Kind:   state.ActMoveCard,
			Source: a.Source,
			From:   a.From,
			Card:   a.Card,
			Title:  a.Title,
			Target: choice.Player,
			Cause:  def.ID,
		}
	default:
		return state.Action{}, nil, fmt.Errorf("%w: %s has no interrupt policy", ErrInvalidInterrupt, def.ID)
	}

	batch := append([]state.Action{}, p.Before...)
	if def.Cost > 0 {
		batch = append(batch, state.Action{Kind: state.ActPayFood, Target: choice.Player, Amount: def.Cost, Cause: def.ID})
	}
	batch = append(batch, rewritten, state.Action{
		Kind:   state.ActDiscard,
		Source: choice.Player,
		From:   state.ZoneHand,
		Card:   choice.Card,
		Cause:  def.ID,
	})
	batch = append(batch, p.After...)
	return rewritten, batch, nil
}

// eligible lists the interrupts that could react to ev, in turn order
// starting after the active player. The active player never interrupts.
func (b *Bus) eligible(ev PendingEvent) []Eligible {
	a := ev.Action
	if !a.Interceptable() || b.gs.SkipReason(a) != "" {
		return nil
	}

	var out []Eligible
	for _, p := range b.gs.TurnOrderFrom(ev.Active) {
		seen := make(map[string]bool)
		for _, c := range p.Hand {
			def, ok := b.catalog.Get(c.Def)
			if !ok || !def.IsInterrupt() || seen[def.ID] {
				continue
			}
			if p.Food < def.Cost {
				continue
			}
			switch def.Interrupt {
			case cards.RedirectRecipient:
				// a blocked player could pay but never receive the trust
				if a.Kind != state.ActGainTrust || a.Target == p.ID || p.TrustBlocked() {
					continue
				}
			case cards.RedirectDestination:
				if a.Kind != state.ActDiscard || a.Card == c.ID {
					continue
				}
			default:
				continue
			}
			seen[def.ID] = true
			out = append(out, Eligible{
				Player: p.ID,
				Card:   c.ID,
				Def:    def.ID,
				Policy: def.Interrupt,
				Cost:   def.Cost,
			})
		}
	}
	return out
}

// ask runs the decider. An error or an expired decision window counts as
// a pass.
func (b *Bus) ask(ctx context.Context, ev PendingEvent, eligible []Eligible) *Eligible {
	if b.window > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.window)
		defer cancel()
	}

	type answer struct {
		choice *Eligible
		err    error
	}
	done := make(chan answer, 1)
	go func() {
		choice, err := b.decider.ChooseInterrupt(ctx, ev, eligible)
		done <- answer{choice, err}
	}()

	select {
	case ans := <-done:
		if ans.err != nil {
			b.logger.Info("interrupt decision failed, treating as pass", "game_id", b.gs.ID, "error", ans.err)
			return nil
		}
		return ans.choice
	case <-ctx.Done():
		b.logger.Info("interrupt window closed", "game_id", b.gs.ID, "seq", ev.Seq)
		return nil
	}
}
