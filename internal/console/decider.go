package console

import (
	"context"

	"github.com/jwebster45206/alley-cats/pkg/engine"
)

type PromptKind int

const (
	PromptInterrupt PromptKind = iota
	PromptReroll
	PromptSpoils
)

// Prompt is a question the engine put to a player while an action resolves.
// Exactly one of the answer methods must be called, or the decision window
// must close.
type Prompt struct {
	Kind     PromptKind
	Event    engine.PendingEvent
	Eligible []engine.Eligible
	Player   string // who is asked for rerolls and spoils
	Roll     int
	Loser    string

	reply chan answer
}

type answer struct {
	choice int // index into Eligible, -1 passes
	yes    bool
	spoils engine.Spoils
}

// Choose answers an interrupt prompt with one of the eligible plays.
func (p Prompt) Choose(i int) { p.send(answer{choice: i}) }

func (p Prompt) Pass() { p.send(answer{choice: -1, spoils: engine.SpoilsFood}) }

func (p Prompt) Reroll(yes bool) { p.send(answer{choice: -1, yes: yes}) }

func (p Prompt) Spoils(s engine.Spoils) { p.send(answer{choice: -1, spoils: s}) }

func (p Prompt) send(a answer) {
	select {
	case p.reply <- a:
	default:
	}
}

// Decider hands engine decisions to the UI over a channel. The engine
// goroutine blocks until the prompt is answered or ctx ends, which counts
// as a pass.
type Decider struct {
	prompts chan Prompt
}

func NewDecider() *Decider {
	return &Decider{prompts: make(chan Prompt)}
}

// Prompts delivers questions in the order the engine asks them.
func (d *Decider) Prompts() <-chan Prompt { return d.prompts }

func (d *Decider) ask(ctx context.Context, p Prompt) (answer, bool) {
	p.reply = make(chan answer, 1)
	select {
	case d.prompts <- p:
	case <-ctx.Done():
		return answer{}, false
	}
	select {
	case a := <-p.reply:
		return a, true
	case <-ctx.Done():
		return answer{}, false
	}
}

func (d *Decider) ChooseInterrupt(ctx context.Context, ev engine.PendingEvent, eligible []engine.Eligible) (*engine.Eligible, error) {
	a, ok := d.ask(ctx, Prompt{Kind: PromptInterrupt, Event: ev, Eligible: eligible})
	if !ok || a.choice < 0 || a.choice >= len(eligible) {
		return nil, nil
	}
	choice := eligible[a.choice]
	return &choice, nil
}

func (d *Decider) ChooseReroll(ctx context.Context, player string, roll int) (bool, error) {
	a, ok := d.ask(ctx, Prompt{Kind: PromptReroll, Player: player, Roll: roll})
	return ok && a.yes, nil
}

func (d *Decider) ChooseSpoils(ctx context.Context, winner, loser string) (engine.Spoils, error) {
	a, ok := d.ask(ctx, Prompt{Kind: PromptSpoils, Player: winner, Loser: loser})
	if !ok || a.spoils == "" {
		return engine.SpoilsFood, nil
	}
	return a.spoils, nil
}
