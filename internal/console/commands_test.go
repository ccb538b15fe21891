package console

import (
	"testing"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input   string
		want    Command
		wantErr bool
	}{
		{input: "roll", want: Command{Verb: VerbRoll}},
		{input: "  /R ", want: Command{Verb: VerbRoll}},
		{input: "play 2", want: Command{Verb: VerbPlay, Card: "2"}},
		{input: "p 1 felix", want: Command{Verb: VerbPlay, Card: "1", Targets: []string{"felix"}}},
		{input: "play 1 2 3", want: Command{Verb: VerbPlay, Card: "1", Targets: []string{"2", "3"}}},
		{input: "fight tom", want: Command{Verb: VerbFight, Targets: []string{"tom"}}},
		{input: "walk 1,2 1,3", want: Command{Verb: VerbWalk, Path: []board.Coord{{Row: 1, Col: 2}, {Row: 1, Col: 3}}}},
		{input: "end", want: Command{Verb: VerbEnd}},
		{input: "reveal", want: Command{Verb: VerbReveal}},
		{input: "agenda", want: Command{Verb: VerbReveal}},
		{input: "?", want: Command{Verb: VerbHelp}},
		{input: "", wantErr: true},
		{input: "dance", wantErr: true},
		{input: "play", wantErr: true},
		{input: "fight tom felix", wantErr: true},
		{input: "fight", wantErr: true},
		{input: "walk 1;2", wantErr: true},
		{input: "walk a,2", wantErr: true},
		{input: "end now", wantErr: true},
		{input: "reveal 1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCommand(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCard(t *testing.T) {
	hand := []state.Card{{ID: "c1", Def: "purr"}, {ID: "c2", Def: "trip"}}

	c, err := resolveCard(hand, "2")
	require.NoError(t, err)
	assert.Equal(t, "c2", c.ID)

	c, err = resolveCard(hand, "c1")
	require.NoError(t, err)
	assert.Equal(t, "purr", c.Def)

	_, err = resolveCard(hand, "3")
	assert.Error(t, err)
	_, err = resolveCard(hand, "zz")
	assert.Error(t, err)
}

func TestResolvePlayer(t *testing.T) {
	gs := state.NewGameState([]*state.Player{{ID: "p1", Name: "Tom"}, {ID: "p2", Name: "Felix"}}, 1)

	tests := map[string]string{
		"":      "",
		"p2":    "p2",
		"felix": "p2",
		"1":     "p1",
	}
	for ref, want := range tests {
		got, err := resolvePlayer(gs, ref)
		require.NoError(t, err, ref)
		assert.Equal(t, want, got, ref)
	}

	_, err := resolvePlayer(gs, "garfield")
	assert.Error(t, err)
}

func TestPlayParams(t *testing.T) {
	gs := state.NewGameState([]*state.Player{{ID: "p1", Name: "Tom"}, {ID: "p2", Name: "Felix"}, {ID: "p3", Name: "Garfield"}}, 1)

	params, err := playParams(gs, nil)
	require.NoError(t, err)
	assert.Empty(t, params.Target)
	assert.Nil(t, params.StepTargets)

	params, err = playParams(gs, []string{"felix"})
	require.NoError(t, err)
	assert.Equal(t, "p2", params.Target)
	assert.Nil(t, params.StepTargets)

	params, err = playParams(gs, []string{"felix", "3"})
	require.NoError(t, err)
	assert.Empty(t, params.Target)
	assert.Equal(t, map[int]string{0: "p2", 1: "p3"}, params.StepTargets)

	_, err = playParams(gs, []string{"felix", "tiger"})
	assert.Error(t, err)
}
