package dice

import (
	"testing"

	"github.com/jwebster45206/d20"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeded_Deterministic(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 50; i++ {
		va, vb := a.Roll(6), b.Roll(6)
		require.Equal(t, va, vb, "roll %d", i)
		assert.GreaterOrEqual(t, va, 1)
		assert.LessOrEqual(t, va, 6)
	}
}

func TestSeeded_Check(t *testing.T) {
	a, b := NewSeeded(7), NewSeeded(7)
	for i := 0; i < 20; i++ {
		oa, err := a.Check(6, d20.NewModifier("swift_paws", 2), d20.NewModifier("wild_cat", 1))
		require.NoError(t, err)
		ob, err := b.Check(6, d20.NewModifier("swift_paws", 2), d20.NewModifier("wild_cat", 1))
		require.NoError(t, err)

		require.Len(t, oa.DiceRolls, 1)
		assert.Equal(t, oa.DiceRolls, ob.DiceRolls)
		assert.Equal(t, oa.DiceRolls[0]+3, oa.Value)
	}

	out, err := NewSeeded(1).Check(0)
	assert.Error(t, err)
	assert.Zero(t, out.Value)
	assert.Zero(t, NewSeeded(1).Roll(0))
}

func TestFixed(t *testing.T) {
	f := NewFixed(4, 2)
	for i, want := range []int{4, 2, 2, 2} {
		assert.Equal(t, want, f.Roll(6), "roll %d", i)
	}
	assert.Equal(t, 2, NewFixed(5).Roll(3), "clamped into range")
}

func TestFixed_Check(t *testing.T) {
	out, err := NewFixed(3).Check(6, d20.NewModifier("yard_terror", 1))
	require.NoError(t, err)
	assert.Equal(t, []int{3}, out.DiceRolls)
	assert.Equal(t, 4, out.Value)
	assert.Contains(t, out.Detail, "yard_terror")
}

func TestPick(t *testing.T) {
	assert.Equal(t, 2, Pick(NewFixed(3), 5))
	assert.Equal(t, -1, Pick(NewFixed(1), 0))
}
