package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	interruptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	wallStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	kioskStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	basementStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("130"))
	ownerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	catStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("205")).Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// DisplayName title-cases a player's name for the screen.
func DisplayName(name string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(name))
}

// describer turns committed actions into log lines, reading names from a
// snapshot taken after the commit.
type describer struct {
	gs      *state.GameState
	board   *board.Board
	catalog *cards.Catalog
}

func (d describer) player(id string) string {
	if p, err := d.gs.Player(id); err == nil {
		return DisplayName(p.Name)
	}
	return id
}

func (d describer) owner(id string) string {
	if o, ok := d.board.Owner(id); ok {
		return o.Name
	}
	return id
}

func (d describer) def(id string) string {
	if def, ok := d.catalog.Get(id); ok {
		return def.Title
	}
	return id
}

func (d describer) agenda(id string) string {
	if a, ok := d.catalog.Agenda(id); ok {
		return a.Title
	}
	return id
}

func (d describer) card(id string) string {
	if c, _, _, ok := d.gs.FindCard(id); ok {
		return d.def(c.Def)
	}
	return "a card"
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// action describes a single action, or "" for bookkeeping nobody needs to read.
func (d describer) action(a state.Action) string {
	switch a.Kind {
	case state.ActGainFood:
		return fmt.Sprintf("%s gains %d food", d.player(a.Target), a.Amount)
	case state.ActPayFood:
		return fmt.Sprintf("%s pays %d food", d.player(a.Target), a.Amount)
	case state.ActTransferFood:
		return fmt.Sprintf("%s takes %d food from %s", d.player(a.Target), a.Amount, d.player(a.Source))
	case state.ActGainTrust:
		return fmt.Sprintf("%s gains %d trust with %s", d.player(a.Target), a.Amount, d.owner(a.Owner))
	case state.ActLoseTrust:
		return fmt.Sprintf("%s loses %d trust with %s", d.player(a.Target), a.Amount, d.owner(a.Owner))
	case state.ActDrawCards:
		return fmt.Sprintf("%s draws %s", d.player(a.Target), plural(a.Amount, "card"))
	case state.ActPlayCard:
		return fmt.Sprintf("%s plays %s", d.player(a.Source), d.card(a.Card))
	case state.ActMoveCard:
		return fmt.Sprintf("%s goes to %s's hand", d.card(a.Card), d.player(a.Target))
	case state.ActDiscard:
		return fmt.Sprintf("%s is discarded", d.card(a.Card))
	case state.ActPlaceInFront:
		return fmt.Sprintf("%s is placed in front of %s", d.card(a.Card), d.player(a.Target))
	case state.ActClaimTitle:
		return fmt.Sprintf("%s now holds the title %s", d.player(a.Target), d.def(a.Title))
	case state.ActMove:
		if len(a.Path) == 0 {
			return fmt.Sprintf("%s stays put", d.player(a.Target))
		}
		return fmt.Sprintf("%s walks to %s", d.player(a.Target), a.Path[len(a.Path)-1])
	case state.ActFight:
		return fmt.Sprintf("%s attacks %s", d.player(a.Source), d.player(a.Target))
	case state.ActEndTurn:
		return fmt.Sprintf("%s's turn", d.player(a.Target))
	case state.ActReveal:
		return fmt.Sprintf("%s reveals the secret agenda %s", d.player(a.Target), d.agenda(a.Card))
	}
	return ""
}

// commit renders one commit with its interrupt story.
func (d describer) commit(c state.Committed) string {
	text := d.action(c.Action)
	if text == "" {
		return ""
	}
	switch {
	case c.Skipped != "":
		return promptStyle.Render(fmt.Sprintf("%s (skipped: %s)", text, c.Skipped))
	case c.Interrupt != nil:
		return interruptStyle.Render(fmt.Sprintf("%s plays %s! %s",
			d.player(c.Interrupt.Player), d.def(c.Interrupt.Def), text))
	case c.Rejected != nil:
		return errorStyle.Render(fmt.Sprintf("%s cannot play %s. ", d.player(c.Rejected.Player), d.def(c.Rejected.Def))) + text
	}
	return eventStyle.Render(text)
}

func (d describer) commits(cs []state.Committed) []string {
	var out []string
	for _, c := range cs {
		if line := d.commit(c); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func (d describer) movement(m *engine.Movement) string {
	s := fmt.Sprintf("%s rolls %d", d.player(m.Player), m.Roll)
	if m.Rerolled {
		s += " on a reroll"
	}
	if m.Bonus != 0 {
		s += fmt.Sprintf(" %+d", m.Bonus)
	}
	return s + fmt.Sprintf(" and may walk %s", plural(m.Steps, "cell"))
}

func (d describer) fight(r *engine.FightResult) string {
	score := fmt.Sprintf("%s %d : %d %s", d.player(r.Attacker), r.AttackScore, r.DefendScore, d.player(r.Defender))
	if r.Winner == "" {
		return score + ", a draw"
	}
	s := fmt.Sprintf("%s, %s wins", score, d.player(r.Winner))
	if r.Spoils != "" {
		s += fmt.Sprintf(" and takes %s", r.Spoils)
	}
	return s
}

// prompt renders the question a Prompt asks.
func (d describer) prompt(p Prompt) string {
	var b strings.Builder
	switch p.Kind {
	case PromptInterrupt:
		b.WriteString(titleStyle.Render("Interrupt?") + "\n")
		b.WriteString(d.action(p.Event.Action) + "\n\n")
		for i, e := range p.Eligible {
			fmt.Fprintf(&b, "%d) %s: %s (costs %d food)\n", i+1, d.player(e.Player), d.def(e.Def), e.Cost)
		}
		b.WriteString("\n" + promptStyle.Render("Press a number to play, P to pass"))
	case PromptReroll:
		b.WriteString(titleStyle.Render("Reroll?") + "\n")
		fmt.Fprintf(&b, "%s rolled %d.\n\n", d.player(p.Player), p.Roll)
		b.WriteString(promptStyle.Render("Y to roll again, N to keep"))
	case PromptSpoils:
		b.WriteString(titleStyle.Render("Spoils") + "\n")
		fmt.Fprintf(&b, "%s beat %s.\n\n", d.player(p.Player), d.player(p.Loser))
		b.WriteString(promptStyle.Render("F to take food, C to take a random card"))
	}
	return b.String()
}

// renderBoard draws the grid with cats on top. Each cat is shown by its
// seat number.
func renderBoard(b *board.Board, gs *state.GameState) string {
	seats := make(map[board.Coord]string)
	for i, p := range gs.Players {
		if _, taken := seats[p.Position]; taken {
			seats[p.Position] = "*"
			continue
		}
		seats[p.Position] = fmt.Sprint(i + 1)
	}

	var out strings.Builder
	for r := range b.Rows() {
		for c := range b.Cols() {
			at := board.Coord{Row: r, Col: c}
			if s, ok := seats[at]; ok {
				out.WriteString(catStyle.Render(s + " "))
				continue
			}
			cell, _ := b.Cell(at)
			out.WriteString(cellGlyph(b, cell))
		}
		out.WriteString("\n")
	}
	return out.String()
}

func cellGlyph(b *board.Board, cell board.Cell) string {
	switch cell.Kind {
	case board.KindWall:
		return wallStyle.Render("██")
	case board.KindKiosk:
		return kioskStyle.Render("K ")
	case board.KindBasement:
		return basementStyle.Render("B ")
	case board.KindOwner:
		if o, ok := b.Owner(cell.Owner); ok {
			return ownerStyle.Render(o.Symbol + " ")
		}
	}
	return pathStyle.Render("· ")
}

// renderPlayers lists every cat's resources. The active player's hand is
// spelled out with card text wrapped to width.
func renderPlayers(d describer, width int) string {
	var out strings.Builder
	out.WriteString(titleStyle.Render("CATS") + "\n\n")
	active := d.gs.ActivePlayer()
	for i, p := range d.gs.Players {
		name := fmt.Sprintf("%d %s", i+1, DisplayName(p.Name))
		if active != nil && p.ID == active.ID && !d.gs.Over() {
			name = activeStyle.Render("▶ " + name)
		}
		out.WriteString(name + "\n")
		fmt.Fprintf(&out, "  food %d, %s in hand\n", p.Food, plural(len(p.Hand), "card"))
		for _, o := range d.board.Owners() {
			fmt.Fprintf(&out, "  %s %d/%d\n", o.Name, p.Trust[o.ID], d.gs.WinTrust)
		}
		for _, t := range d.gs.TitlesOf(p.ID) {
			fmt.Fprintf(&out, "  title: %s\n", d.def(t))
		}
		for _, c := range p.Front {
			fmt.Fprintf(&out, "  in front: %s\n", d.def(c.Def))
		}
		for _, a := range p.Revealed {
			fmt.Fprintf(&out, "  agenda: %s\n", d.agenda(a))
		}
		if p.Agenda != "" {
			out.WriteString("  secret agenda\n")
		}
		out.WriteString("\n")
	}

	if active == nil || d.gs.Over() {
		return out.String()
	}
	if a, ok := d.catalog.Agenda(active.Agenda); ok {
		out.WriteString(titleStyle.Render("AGENDA") + "\n\n" + a.Title + "\n")
		if a.Text != "" && width > 4 {
			out.WriteString(promptStyle.Render(wordwrap.String(a.Text, width-2)) + "\n")
		}
		out.WriteString("\n")
	}
	out.WriteString(titleStyle.Render("HAND") + "\n\n")
	for i, c := range active.Hand {
		def, ok := d.catalog.Get(c.Def)
		if !ok {
			fmt.Fprintf(&out, "%d) %s\n", i+1, c.Def)
			continue
		}
		head := fmt.Sprintf("%d) %s", i+1, def.Title)
		if def.Cost > 0 {
			head += fmt.Sprintf(" [%d]", def.Cost)
		}
		out.WriteString(head + "\n")
		if def.Text != "" && width > 4 {
			out.WriteString(promptStyle.Render(wordwrap.String(def.Text, width-2)) + "\n")
		}
	}
	return out.String()
}

func phaseHint(gs *state.GameState) string {
	switch gs.Phase {
	case state.PhaseRoll:
		return "roll, play <n> [target]"
	case state.PhaseMove:
		return fmt.Sprintf("walk %s with roll", plural(gs.Steps, "cell"))
	case state.PhasePlay:
		return "play <n> [target], fight <cat>, reveal, end"
	}
	return "game over, ctrl+c to leave"
}

const helpText = `Commands:
• roll              roll the die and walk
• walk R,C ...      walk a path of your own after rolling
• play N [cat ...]  play card N; name one cat, or one per effect to settle ties
• fight CAT         fight a cat on your cell after moving
• reveal            reveal your secret agenda once its goal is met
• end               end your turn
• copy              copy the game id to the clipboard
• help              show this help
• Ctrl+C            quit (the session is saved)`
