package console

import (
	"strings"
	"testing"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriber(t *testing.T) describer {
	t.Helper()
	b, err := board.New([]string{".....", ".K_S.", "....."}, board.DefaultOwners())
	require.NoError(t, err)
	cat, err := cards.Default()
	require.NoError(t, err)
	gs := state.NewGameState([]*state.Player{
		{ID: "a", Name: "tom", Position: board.Coord{Row: 1, Col: 1}},
		{ID: "b", Name: "felix", Position: board.Coord{Row: 1, Col: 2}, Hand: []state.Card{{ID: "x1", Def: "purr"}}},
		{ID: "c", Name: "garfield", Position: board.Coord{Row: 1, Col: 2}},
	}, 1)
	return describer{gs: gs, board: b, catalog: cat}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Tom Cat", DisplayName("tom cat"))
	assert.Equal(t, "Мурзик", DisplayName("  мурзик "))
}

func TestDescriber_Action(t *testing.T) {
	d := testDescriber(t)
	tests := []struct {
		action state.Action
		want   string
	}{
		{state.Action{Kind: state.ActGainFood, Target: "a", Amount: 2}, "Tom gains 2 food"},
		{state.Action{Kind: state.ActTransferFood, Source: "b", Target: "a", Amount: 2}, "Tom takes 2 food from Felix"},
		{state.Action{Kind: state.ActGainTrust, Target: "b", Owner: "cook", Amount: 1}, "Felix gains 1 trust with Повар"},
		{state.Action{Kind: state.ActDrawCards, Target: "c", Amount: 1}, "Garfield draws 1 card"},
		{state.Action{Kind: state.ActDrawCards, Target: "c", Amount: 3}, "Garfield draws 3 cards"},
		{state.Action{Kind: state.ActPlayCard, Source: "b", Card: "x1"}, "Felix plays Помурлыкать"},
		{state.Action{Kind: state.ActClaimTitle, Target: "a", Title: "swift_paws"}, "Tom now holds the title Быстрые лапы"},
		{state.Action{Kind: state.ActEndTurn, Source: "a", Target: "b"}, "Felix's turn"},
		{state.Action{Kind: state.ActVisit, Target: "a", Cause: "1,1"}, ""},
		{state.Action{Kind: state.ActReveal, Target: "a", Card: "fat_cat"}, "Tom reveals the secret agenda Толстый кот"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, d.action(tt.action))
		})
	}
}

func TestDescriber_Commit(t *testing.T) {
	d := testDescriber(t)
	gain := state.Action{Kind: state.ActGainTrust, Target: "a", Owner: "student", Amount: 1}

	line := d.commit(state.Committed{
		Action:    gain,
		Original:  &state.Action{Kind: state.ActGainTrust, Target: "b", Owner: "student", Amount: 1},
		Interrupt: &state.InterruptUse{Player: "a", Card: "l1", Def: "likeness"},
	})
	assert.Contains(t, line, "Tom plays Похожесть!")

	line = d.commit(state.Committed{Action: gain, Skipped: "trust blocked"})
	assert.Contains(t, line, "skipped: trust blocked")

	assert.Empty(t, d.commit(state.Committed{Action: state.Action{Kind: state.ActRoll, Target: "a", Amount: 3}}))
}

func TestDescriber_FightAndMovement(t *testing.T) {
	d := testDescriber(t)
	assert.Equal(t, "Tom 5 : 3 Felix, Tom wins and takes food",
		d.fight(&engine.FightResult{Attacker: "a", Defender: "b", AttackScore: 5, DefendScore: 3, Winner: "a", Spoils: engine.SpoilsFood}))
	assert.Equal(t, "Tom 3 : 3 Felix, a draw",
		d.fight(&engine.FightResult{Attacker: "a", Defender: "b", AttackScore: 3, DefendScore: 3}))
	assert.Equal(t, "Tom rolls 4 +2 and may walk 6 cells",
		d.movement(&engine.Movement{Player: "a", Roll: 4, Bonus: 2, Steps: 6}))
}

func TestRenderBoard(t *testing.T) {
	d := testDescriber(t)
	out := renderBoard(d.board, d.gs)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "1")
	assert.Contains(t, lines[1], "*", "two cats on one cell")
	assert.Contains(t, lines[1], "S")
}

func TestRenderPlayers(t *testing.T) {
	d := testDescriber(t)
	d.gs.Active = 1
	d.gs.Players[0].Trust["cook"] = 4
	out := renderPlayers(d, 40)
	assert.Contains(t, out, "Повар 4/10")
	assert.Contains(t, out, "HAND")
	assert.Contains(t, out, "1) Помурлыкать")
}

func TestRenderPlayers_Agendas(t *testing.T) {
	d := testDescriber(t)
	d.gs.Active = 1
	d.gs.Players[0].Agenda = "fat_cat"
	d.gs.Players[0].Revealed = []string{"regular_guest"}
	d.gs.Players[1].Agenda = "bookworm"

	out := renderPlayers(d, 40)
	assert.Contains(t, out, "secret agenda")
	assert.Contains(t, out, "agenda: Завсегдатай")
	assert.NotContains(t, out, "Толстый кот", "other cats' agendas stay hidden")
	assert.Contains(t, out, "AGENDA")
	assert.Contains(t, out, "Книжный червь")
}
