// Package console is a hot-seat terminal UI for one Alley Cats table. All
// players share the keyboard: the active cat types commands, and the engine's
// questions (interrupts, rerolls, spoils) pop up as modals.
package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/alley-cats/internal/logger"
	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/muesli/reflow/wordwrap"
)

const (
	PlaceHolderText = "roll, play N [cat], fight CAT, end, help"
	saveTimeout     = 5 * time.Second
)

// Saver stores a snapshot of the session after every command.
type Saver interface {
	SaveSession(ctx context.Context, gs *state.GameState) error
}

type Options struct {
	Engine  *engine.Engine
	Decider *Decider // must be the decider installed on Engine
	Saver   Saver    // optional
	Logger  *slog.Logger
}

// UI is the bubbletea model for the table.
type UI struct {
	engine  *engine.Engine
	decider *Decider
	saver   Saver
	logger  *slog.Logger

	gs       *state.GameState
	log      []string
	logView  viewport.Model
	metaView viewport.Model
	textarea textarea.Model

	prompt        *Prompt
	busy          bool
	ready         bool
	showQuitModal bool
	width         int
	height        int
}

type actionDoneMsg struct {
	lines []string
	err   error
}

type promptMsg struct{ prompt Prompt }

type savedMsg struct{ err error }

var (
	logPanelStyle  = lipgloss.NewStyle().PaddingTop(1).PaddingLeft(2)
	metaPanelStyle = lipgloss.NewStyle().PaddingTop(1).PaddingRight(2)
)

func New(opts Options) UI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := UI{
		engine:   opts.Engine,
		decider:  opts.Decider,
		saver:    opts.Saver,
		logger:   logger,
		gs:       opts.Engine.State(),
		logView:  viewport.New(50, 10),
		metaView: viewport.New(30, 20),
		textarea: ta,
	}
	m.log = append(m.log, titleStyle.Render("ALLEY CATS"), "Game "+m.gs.ID.String(), "Type help for commands.")
	return m
}

func (m UI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitForPrompt())
}

func (m UI) waitForPrompt() tea.Cmd {
	if m.decider == nil {
		return nil
	}
	prompts := m.decider.Prompts()
	return func() tea.Msg {
		return promptMsg{<-prompts}
	}
}

func (m UI) describer() describer {
	return describer{gs: m.gs, board: m.engine.Board(), catalog: m.engine.Catalog()}
}

func (m *UI) layout() {
	logWidth := int(float64(m.width)*0.6) - 2
	metaWidth := m.width - logWidth - 4
	boardHeight := m.engine.Board().Rows() + 1

	m.logView.Width = logWidth - 2
	m.logView.Height = max(3, m.height-boardHeight-5)
	m.metaView.Width = metaWidth
	m.metaView.Height = m.height - 2
	m.textarea.SetWidth(logWidth - 4)
}

func (m *UI) refresh() {
	var content strings.Builder
	width := max(10, m.logView.Width-2)
	for _, line := range m.log {
		content.WriteString(wordwrap.String(line, width) + "\n")
	}
	m.logView.SetContent(content.String())
	m.logView.GotoBottom()
	m.metaView.SetContent(renderPlayers(m.describer(), m.metaView.Width))
}

func (m *UI) addLog(lines ...string) {
	m.log = append(m.log, lines...)
	m.refresh()
}

func (m UI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refresh()

	case promptMsg:
		p := msg.prompt
		m.prompt = &p
		return m, m.waitForPrompt()

	case actionDoneMsg:
		m.busy = false
		m.prompt = nil
		prev := m.gs.Seq
		m.gs = m.engine.State()
		if msg.err != nil {
			m.log = append(m.log, errorStyle.Render(explain(msg.err)))
		}
		m.log = append(m.log, msg.lines...)
		if m.gs.Over() {
			m.log = append(m.log, titleStyle.Render(fmt.Sprintf("%s wins the yard!", m.describer().player(m.gs.Winner))))
		}
		m.refresh()
		if m.gs.Seq == prev {
			return m, nil
		}
		return m, m.save(m.gs)

	case savedMsg:
		if msg.err != nil {
			logger.WithError(m.logger, msg.err).Error("failed to save session")
			m.addLog(errorStyle.Render("Could not save the session: " + msg.err.Error()))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			m.showQuitModal = true
			return m, nil
		}
		if m.prompt != nil {
			return m.answerPrompt(msg)
		}
		if msg.Type == tea.KeyEnter {
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" || m.busy {
				return m, nil
			}
			return m.handleInput(input)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logView, vpCmd = m.logView.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

func (m UI) answerPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := *m.prompt
	key := strings.ToLower(msg.String())
	switch p.Kind {
	case PromptInterrupt:
		if key == "p" || msg.Type == tea.KeyEnter {
			p.Pass()
			break
		}
		var n int
		if _, err := fmt.Sscanf(key, "%d", &n); err != nil || n < 1 || n > len(p.Eligible) {
			return m, nil
		}
		p.Choose(n - 1)
	case PromptReroll:
		switch key {
		case "y":
			p.Reroll(true)
		case "n", "enter":
			p.Reroll(false)
		default:
			return m, nil
		}
	case PromptSpoils:
		switch key {
		case "f", "enter":
			p.Spoils(engine.SpoilsFood)
		case "c":
			p.Spoils(engine.SpoilsCard)
		default:
			return m, nil
		}
	}
	m.prompt = nil
	return m, nil
}

func (m UI) handleInput(input string) (tea.Model, tea.Cmd) {
	cmd, err := ParseCommand(input)
	if err != nil {
		m.addLog(errorStyle.Render(err.Error()))
		return m, nil
	}

	switch cmd.Verb {
	case VerbHelp:
		m.addLog(helpText)
		return m, nil
	case VerbQuit:
		m.showQuitModal = true
		return m, nil
	case VerbCopy:
		if err := clipboard.WriteAll(m.gs.ID.String()); err != nil {
			m.addLog(errorStyle.Render("Clipboard unavailable: " + err.Error()))
		} else {
			m.addLog("Game id copied.")
		}
		return m, nil
	}

	if m.gs.Over() {
		m.addLog(errorStyle.Render("The game is over."))
		return m, nil
	}
	active := m.gs.ActivePlayer()
	d := m.describer()
	e := m.engine
	var run func(ctx context.Context) ([]string, error)

	switch cmd.Verb {
	case VerbRoll:
		run = func(ctx context.Context) ([]string, error) {
			mv, err := e.RollAndMove(ctx, active.ID)
			if mv == nil {
				return nil, err
			}
			return m.after(func(d describer) []string {
				return append([]string{d.movement(mv)}, d.commits(mv.Committed)...)
			}), err
		}

	case VerbWalk:
		run = func(ctx context.Context) ([]string, error) {
			commits, err := e.MoveAlong(ctx, active.ID, cmd.Path)
			return m.after(func(d describer) []string { return d.commits(commits) }), err
		}

	case VerbPlay:
		card, err := resolveCard(active.Hand, cmd.Card)
		if err != nil {
			m.addLog(errorStyle.Render(err.Error()))
			return m, nil
		}
		params, err := playParams(m.gs, cmd.Targets)
		if err != nil {
			m.addLog(errorStyle.Render(err.Error()))
			return m, nil
		}
		run = func(ctx context.Context) ([]string, error) {
			commits, err := e.PlayCard(ctx, active.ID, card.ID, params)
			return m.after(func(d describer) []string { return d.commits(commits) }), err
		}

	case VerbFight:
		defender, err := resolvePlayer(m.gs, cmd.Targets[0])
		if err != nil {
			m.addLog(errorStyle.Render(err.Error()))
			return m, nil
		}
		run = func(ctx context.Context) ([]string, error) {
			res, err := e.Fight(ctx, active.ID, defender)
			if res == nil {
				return nil, err
			}
			return m.after(func(d describer) []string {
				return append([]string{d.fight(res)}, d.commits(res.Committed)...)
			}), err
		}

	case VerbReveal:
		run = func(ctx context.Context) ([]string, error) {
			commits, err := e.RevealAgenda(ctx, active.ID)
			return m.after(func(d describer) []string { return d.commits(commits) }), err
		}

	case VerbEnd:
		run = func(ctx context.Context) ([]string, error) {
			next, err := e.EndTurn(ctx, active.ID)
			if err != nil {
				return nil, err
			}
			return []string{activeStyle.Render(d.player(next) + ", your move.")}, nil
		}
	}

	m.busy = true
	m.addLog(promptStyle.Render(DisplayName(active.Name) + ": " + input))
	return m, func() tea.Msg {
		lines, err := run(context.Background())
		return actionDoneMsg{lines: lines, err: err}
	}
}

// after describes commits against the state they produced. It runs on the
// command goroutine once the engine call has returned.
func (m UI) after(f func(d describer) []string) []string {
	d := m.describer()
	d.gs = m.engine.State()
	return f(d)
}

func (m UI) save(gs *state.GameState) tea.Cmd {
	if m.saver == nil {
		return nil
	}
	saver := m.saver
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return savedMsg{saver.SaveSession(ctx, gs)}
	}
}

// explain turns rule errors into something a player can act on.
func explain(err error) string {
	switch {
	case errors.Is(err, engine.ErrAmbiguousTarget):
		return "Several cats qualify, name one (play N CAT) or one per effect (play N CAT CAT)"
	case errors.Is(err, engine.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, engine.ErrInsufficientResources):
		return "Not enough food for that."
	case errors.Is(err, engine.ErrGameOver):
		return "The game is over."
	case errors.Is(err, engine.ErrNoAgenda):
		return "You have no secret agenda left to reveal."
	}
	return err.Error()
}

func (m UI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case promptMsg:
		p := msg.prompt
		m.prompt = &p
		return m, m.waitForPrompt()

	case actionDoneMsg, savedMsg:
		m.showQuitModal = false
		model, cmd := m.Update(msg)
		ui := model.(UI)
		ui.showQuitModal = true
		return ui, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}
	return m, nil
}

// quit passes any open question so the engine goroutine can finish.
func (m UI) quit() (tea.Model, tea.Cmd) {
	if m.prompt != nil {
		m.prompt.Pass()
		m.prompt = nil
	}
	return m, tea.Quit
}

func (m UI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("Leave the yard?"))
	content.WriteString("\n\n")
	content.WriteString("The session is saved and can be resumed.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep playing"))
	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m UI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.prompt != nil {
		modal := modalStyle.Width(min(60, m.width-4)).Render(m.describer().prompt(*m.prompt))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
	}

	logWidth := int(float64(m.width)*0.6) - 2
	metaWidth := m.width - logWidth - 4

	status := fmt.Sprintf("turn %d · %s", m.gs.Turn, phaseHint(m.gs))
	if m.busy {
		status = "resolving..."
	}
	left := logPanelStyle.Width(logWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			renderBoard(m.engine.Board(), m.gs),
			m.logView.View(),
			separatorStyle.Render(strings.Repeat("─", max(1, logWidth-4))),
			promptStyle.Render(status),
			m.textarea.View(),
		),
	)
	right := metaPanelStyle.Width(metaWidth).Render(m.metaView.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
