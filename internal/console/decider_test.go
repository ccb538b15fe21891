package console

import (
	"context"
	"testing"
	"time"

	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var twoLikenesses = []engine.Eligible{
	{Player: "a", Card: "l1", Def: "likeness", Cost: 2},
	{Player: "b", Card: "l2", Def: "likeness", Cost: 2},
}

func TestDecider_ChooseInterrupt(t *testing.T) {
	tests := []struct {
		name   string
		answer func(p Prompt)
		want   string
	}{
		{name: "second player plays", answer: func(p Prompt) { p.Choose(1) }, want: "b"},
		{name: "pass", answer: func(p Prompt) { p.Pass() }},
		{name: "out of range is a pass", answer: func(p Prompt) { p.Choose(5) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecider()
			go func() {
				p := <-d.Prompts()
				tt.answer(p)
			}()

			got, err := d.ChooseInterrupt(context.Background(), engine.PendingEvent{Seq: 3}, twoLikenesses)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Player)
			assert.Equal(t, "l2", got.Card)
		})
	}
}

func TestDecider_PromptCarriesTheEvent(t *testing.T) {
	d := NewDecider()
	seen := make(chan Prompt, 1)
	go func() {
		p := <-d.Prompts()
		seen <- p
		p.Pass()
	}()

	_, err := d.ChooseInterrupt(context.Background(), engine.PendingEvent{Seq: 9, Active: "c"}, twoLikenesses)
	require.NoError(t, err)
	p := <-seen
	assert.Equal(t, PromptInterrupt, p.Kind)
	assert.Equal(t, 9, p.Event.Seq)
	assert.Len(t, p.Eligible, 2)
}

func TestDecider_TimeoutPasses(t *testing.T) {
	t.Run("nobody listening", func(t *testing.T) {
		d := NewDecider()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		got, err := d.ChooseInterrupt(ctx, engine.PendingEvent{}, twoLikenesses)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("prompt shown but not answered", func(t *testing.T) {
		d := NewDecider()
		go func() { <-d.Prompts() }()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		again, err := d.ChooseReroll(ctx, "a", 1)
		require.NoError(t, err)
		assert.False(t, again)
	})

	t.Run("spoils default to food", func(t *testing.T) {
		d := NewDecider()
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		s, err := d.ChooseSpoils(ctx, "a", "b")
		require.NoError(t, err)
		assert.Equal(t, engine.SpoilsFood, s)
	})
}

func TestDecider_RerollAndSpoils(t *testing.T) {
	d := NewDecider()
	go func() {
		p := <-d.Prompts()
		p.Reroll(true)
		p = <-d.Prompts()
		p.Spoils(engine.SpoilsCard)
	}()

	again, err := d.ChooseReroll(context.Background(), "a", 1)
	require.NoError(t, err)
	assert.True(t, again)

	s, err := d.ChooseSpoils(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.Equal(t, engine.SpoilsCard, s)
}

func TestPrompt_SecondAnswerIsDropped(t *testing.T) {
	p := Prompt{reply: make(chan answer, 1)}
	p.Choose(0)
	p.Pass()
	a := <-p.reply
	assert.Equal(t, 0, a.choice)
}
