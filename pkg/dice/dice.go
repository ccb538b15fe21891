// Package dice provides the random collaborator used by the engine: die
// rolls, modified checks and uniform picks.
//
// # Determinism
//
// A Seeded roller replays the same sequence for the same seed, so a whole
// session can be reproduced from its seed and its player inputs. Fixed is
// meant for tests and scripted replays.
package dice

import (
	"sync"

	"github.com/jwebster45206/d20"
)

// Roller produces values in [1, sides]. Check rolls one die and applies
// modifiers, reporting the outcome the way d20 does.
type Roller interface {
	Roll(sides int) int
	Check(sides int, mods ...d20.Modifier) (d20.RollOutcome, error)
}

// Seeded rolls with a d20 roller created from a fixed seed.
type Seeded struct {
	mu     sync.Mutex
	roller *d20.Roller
}

func NewSeeded(seed int64) *Seeded {
	return &Seeded{roller: d20.NewRoller(seed)}
}

func (s *Seeded) Roll(sides int) int {
	if sides <= 0 {
		return 0
	}
	out, err := s.Check(sides)
	if err != nil || len(out.DiceRolls) == 0 {
		return 0
	}
	return out.DiceRolls[0]
}

func (s *Seeded) Check(sides int, mods ...d20.Modifier) (d20.RollOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.roller.Dice(1, uint(max(0, sides)))
	for _, m := range mods {
		b = b.WithModifier(m.Reason, m.Value)
	}
	return b.Roll()
}

// Fixed returns its values in order and then repeats the last one. Values
// larger than the requested sides are clamped into range.
type Fixed struct {
	mu     sync.Mutex
	values []int
	next   int
}

func NewFixed(values ...int) *Fixed {
	if len(values) == 0 {
		values = []int{1}
	}
	return &Fixed{values: values}
}

func (f *Fixed) Roll(sides int) int {
	if sides <= 0 {
		return 0
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.values[min(f.next, len(f.values)-1)]
	f.next++
	if v < 1 {
		v = 1
	}
	if v > sides {
		v = (v-1)%sides + 1
	}
	return v
}

func (f *Fixed) Check(sides int, mods ...d20.Modifier) (d20.RollOutcome, error) {
	v := f.Roll(sides)
	total := v
	for _, m := range mods {
		total += m.Value
	}
	return d20.NewRollOutcome(1, uint(max(0, sides)), []int{v}, mods, total), nil
}

// Pick returns an index in [0, n) using r.
func Pick(r Roller, n int) int {
	if n <= 0 {
		return -1
	}
	return r.Roll(n) - 1
}
