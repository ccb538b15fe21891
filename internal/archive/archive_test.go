package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "nested", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func finished(winner string, at time.Time, names ...string) *state.GameState {
	var players []*state.Player
	for _, n := range names {
		players = append(players, &state.Player{ID: n, Name: "Cat " + n, Food: 3})
	}
	gs := state.NewGameState(players, 7)
	gs.Winner = winner
	gs.Phase = state.PhaseOver
	gs.Turn = 12
	gs.Seq = 80
	gs.UpdatedAt = at
	return gs
}

func TestArchive_RecordAndHistory(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now()

	first := finished("a", now.Add(-time.Hour), "a", "b")
	first.Players[0].Trust["cook"] = 10
	first.Titles["swift_paws"] = state.TitleHold{Holder: "a", Card: state.Card{ID: "t1", Def: "swift_paws"}}
	second := finished("b", now, "a", "b", "c")

	require.NoError(t, a.Record(ctx, first, "journal/first.jsonl.zst"))
	require.NoError(t, a.Record(ctx, second, ""))

	results, err := a.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, second.ID, results[0].GameID)
	assert.Len(t, results[0].Standings, 3)

	r := results[1]
	assert.Equal(t, first.ID, r.GameID)
	assert.Equal(t, "a", r.Winner)
	assert.Equal(t, 12, r.Turns)
	assert.Equal(t, 80, r.Actions)
	assert.Equal(t, int64(7), r.Seed)
	assert.Equal(t, "journal/first.jsonl.zst", r.Journal)
	assert.Equal(t, first.UpdatedAt.UnixMilli(), r.FinishedAt.UnixMilli())
	require.Len(t, r.Standings, 2)
	assert.Equal(t, "Cat a", r.Standings[0].Name)
	assert.Equal(t, 10, r.Standings[0].Trust["cook"])
	assert.Equal(t, []string{"swift_paws"}, r.Standings[0].Titles)
	assert.Empty(t, r.Standings[1].Titles)

	limited, err := a.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestArchive_RecordTwiceReplaces(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	gs := finished("", time.Now(), "a", "b")
	require.NoError(t, a.Record(ctx, gs, ""))

	gs.Winner = "b"
	gs.Players = gs.Players[:1]
	require.NoError(t, a.Record(ctx, gs, ""))

	results, err := a.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Winner)
	assert.Len(t, results[0].Standings, 1)
}

func TestArchive_Wins(t *testing.T) {
	a := openTest(t)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, a.Record(ctx, finished("a", now, "a", "b"), ""))
	require.NoError(t, a.Record(ctx, finished("a", now, "a", "c"), ""))
	require.NoError(t, a.Record(ctx, finished("c", now, "a", "c"), ""))
	require.NoError(t, a.Record(ctx, finished("", now, "a", "b"), ""))

	wins, err := a.Wins(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Cat a": 2, "Cat c": 1}, wins)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)

	a := openTest(t)
	assert.Error(t, a.Record(context.Background(), nil, ""))
}
