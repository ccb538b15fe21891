package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSaver struct {
	mu    sync.Mutex
	saved []*state.GameState
}

func (r *recordingSaver) SaveSession(_ context.Context, gs *state.GameState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, gs)
	return nil
}

func newTestUI(t *testing.T) (UI, *recordingSaver) {
	t.Helper()
	b, err := board.Default()
	require.NoError(t, err)
	cat, err := cards.Default()
	require.NoError(t, err)
	start := board.Coord{Row: 1, Col: 2}
	e, err := engine.NewGame(engine.GameSetup{
		Players: []engine.PlayerSetup{
			{ID: "tom", Name: "tom", Start: &start},
			{ID: "felix", Name: "felix", Start: &start},
		},
		Board:   b,
		Catalog: cat,
		Seed:    7,
	})
	require.NoError(t, err)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	e.WithLogger(quiet)

	saver := &recordingSaver{}
	ui := New(Options{Engine: e, Saver: saver, Logger: quiet})
	model, _ := ui.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(UI), saver
}

func submit(m UI, input string) (UI, tea.Cmd) {
	m.textarea.SetValue(input)
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return model.(UI), cmd
}

func logText(m UI) string { return strings.Join(m.log, "\n") }

func TestUI_Roll(t *testing.T) {
	m, saver := newTestUI(t)
	before := m.gs.Seq

	m, cmd := submit(m, "roll")
	require.NotNil(t, cmd)
	assert.True(t, m.busy)

	model, saveCmd := m.Update(cmd())
	m = model.(UI)
	assert.False(t, m.busy)
	assert.Greater(t, m.gs.Seq, before)
	assert.Contains(t, logText(m), "Tom rolls")

	require.NotNil(t, saveCmd)
	model, _ = m.Update(saveCmd())
	m = model.(UI)
	require.Len(t, saver.saved, 1)
	assert.Equal(t, m.gs.ID, saver.saved[0].ID)
}

func TestUI_LocalCommands(t *testing.T) {
	m, _ := newTestUI(t)

	m, cmd := submit(m, "help")
	assert.Nil(t, cmd)
	assert.Contains(t, logText(m), "Commands:")

	m, cmd = submit(m, "dance")
	assert.Nil(t, cmd)
	assert.Contains(t, logText(m), "unknown command")

	m, cmd = submit(m, "play 9")
	assert.Nil(t, cmd)
	assert.Contains(t, logText(m), "no card 9 in hand")

	m, cmd = submit(m, "quit")
	assert.Nil(t, cmd)
	assert.True(t, m.showQuitModal)
}

func TestUI_RuleErrorsAreLogged(t *testing.T) {
	m, _ := newTestUI(t)
	before := m.gs.Seq

	m, cmd := submit(m, "end")
	require.NotNil(t, cmd)
	model, saveCmd := m.Update(cmd())
	m = model.(UI)

	assert.Contains(t, logText(m), "roll and move before ending")
	assert.Equal(t, before, m.gs.Seq)
	assert.Nil(t, saveCmd, "nothing committed, nothing to save")
}

func TestUI_RevealNeedsObjective(t *testing.T) {
	m, _ := newTestUI(t)
	agenda := m.gs.ActivePlayer().Agenda
	require.NotEmpty(t, agenda)

	m, cmd := submit(m, "reveal")
	require.NotNil(t, cmd)
	model, _ := m.Update(cmd())
	m = model.(UI)

	assert.Contains(t, logText(m), "agenda objective not met")
	assert.Equal(t, agenda, m.gs.ActivePlayer().Agenda)
}

func TestUI_SaveFailureIsLogged(t *testing.T) {
	m, _ := newTestUI(t)
	var buf bytes.Buffer
	m.logger = slog.New(slog.NewTextHandler(&buf, nil))

	model, _ := m.Update(savedMsg{errors.New("redis down")})
	m = model.(UI)

	assert.Contains(t, logText(m), "Could not save the session: redis down")
	assert.Contains(t, buf.String(), `error="redis down"`)
}

func TestUI_AnswersPrompts(t *testing.T) {
	m, _ := newTestUI(t)

	spoils := Prompt{Kind: PromptSpoils, Player: "tom", Loser: "felix", reply: make(chan answer, 1)}
	model, _ := m.Update(promptMsg{spoils})
	m = model.(UI)
	require.NotNil(t, m.prompt)
	assert.Contains(t, m.View(), "Spoils")

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = model.(UI)
	assert.NotNil(t, m.prompt, "unrelated keys are ignored")

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	m = model.(UI)
	assert.Nil(t, m.prompt)
	assert.Equal(t, engine.SpoilsCard, (<-spoils.reply).spoils)

	interrupt := Prompt{Kind: PromptInterrupt, Eligible: twoLikenesses, reply: make(chan answer, 1)}
	model, _ = m.Update(promptMsg{interrupt})
	m = model.(UI)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("9")})
	m = model.(UI)
	assert.NotNil(t, m.prompt)
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	m = model.(UI)
	assert.Nil(t, m.prompt)
	assert.Equal(t, 1, (<-interrupt.reply).choice)
}

func TestUI_QuitPassesOpenPrompt(t *testing.T) {
	m, _ := newTestUI(t)
	reroll := Prompt{Kind: PromptReroll, Player: "tom", Roll: 1, reply: make(chan answer, 1)}
	model, _ := m.Update(promptMsg{reroll})
	m = model.(UI)

	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = model.(UI)
	require.True(t, m.showQuitModal)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	assert.False(t, (<-reroll.reply).yes)
}
