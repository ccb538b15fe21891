package engine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playTitle(t *testing.T, e *Engine, player, def string) string {
	t.Helper()
	activate(e, player, state.PhasePlay)
	id := give(t, e, player, def)
	_, err := e.PlayCard(context.Background(), player, id, PlayParams{})
	require.NoError(t, err)
	return id
}

func TestTitle_Claim(t *testing.T) {
	e := newTestEngine(t)
	id := playTitle(t, e, "a", "swift_paws")

	holder, ok := e.TitleHolder("swift_paws")
	require.True(t, ok)
	assert.Equal(t, "a", holder)
	assert.Equal(t, id, e.gs.Titles["swift_paws"].Card.ID)
	assert.Equal(t, 2, mustPlayer(t, e, "a").MovementBonus())
	assert.Empty(t, e.gs.Table)
	assert.Equal(t, []string{"swift_paws"}, e.gs.TitlesOf("a"))
}

func TestTitle_Transfer(t *testing.T) {
	e := newTestEngine(t)
	var counts []int
	e.WithObserver(ObserverFunc(func(_ context.Context, _ uuid.UUID, c state.Committed) {
		counts = append(counts, e.gs.Holders("swift_paws"))
	}))

	first := playTitle(t, e, "b", "swift_paws")
	playTitle(t, e, "a", "swift_paws")

	holder, _ := e.TitleHolder("swift_paws")
	assert.Equal(t, "a", holder)
	assert.True(t, inDiscard(e, first))
	assert.Zero(t, mustPlayer(t, e, "b").MovementBonus())
	assert.Equal(t, 2, mustPlayer(t, e, "a").MovementBonus())

	require.NotEmpty(t, counts)
	for _, n := range counts {
		assert.LessOrEqual(t, n, 1)
	}
	assert.Equal(t, 1, counts[len(counts)-1])
}

func TestTitle_TransferDiscardIntercepted(t *testing.T) {
	e := newTestEngine(t)
	first := playTitle(t, e, "b", "swift_paws")
	give(t, e, "c", "pick_up")
	e.WithDecider(&scripted{interrupt: func(ev PendingEvent, eligible []Eligible) *Eligible {
		if ev.Action.From != state.ZoneTitle {
			return nil
		}
		return takeFrom("c")(ev, eligible)
	}})

	playTitle(t, e, "a", "swift_paws")

	holder, _ := e.TitleHolder("swift_paws")
	assert.Equal(t, "a", holder)
	c := mustPlayer(t, e, "c")
	assert.True(t, inHand(c, first), "the old title card went to c's hand")
	assert.Equal(t, state.InitialFood-2, c.Food)
	assert.Zero(t, c.MovementBonus(), "a title card in hand grants nothing")
	assert.Zero(t, mustPlayer(t, e, "b").MovementBonus())
	assert.Equal(t, 1, e.gs.Holders("swift_paws"))
}

func TestTitle_ReclaimOwn(t *testing.T) {
	e := newTestEngine(t)
	first := playTitle(t, e, "a", "swift_paws")
	second := playTitle(t, e, "a", "swift_paws")

	assert.Equal(t, first, e.gs.Titles["swift_paws"].Card.ID)
	assert.True(t, inDiscard(e, second))
	assert.Equal(t, 2, mustPlayer(t, e, "a").MovementBonus(), "bonus is not stacked")
}
