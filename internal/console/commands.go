package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

type Verb string

const (
	VerbRoll   Verb = "roll"
	VerbWalk   Verb = "walk"
	VerbPlay   Verb = "play"
	VerbFight  Verb = "fight"
	VerbEnd    Verb = "end"
	VerbReveal Verb = "reveal"
	VerbCopy   Verb = "copy"
	VerbHelp   Verb = "help"
	VerbQuit   Verb = "quit"
)

var aliases = map[string]Verb{
	"roll": VerbRoll, "r": VerbRoll,
	"walk": VerbWalk, "w": VerbWalk,
	"play": VerbPlay, "p": VerbPlay,
	"fight": VerbFight, "f": VerbFight,
	"end": VerbEnd, "e": VerbEnd, "done": VerbEnd,
	"reveal": VerbReveal, "agenda": VerbReveal,
	"copy": VerbCopy,
	"help": VerbHelp, "h": VerbHelp, "?": VerbHelp,
	"quit": VerbQuit, "q": VerbQuit, "exit": VerbQuit,
}

var ErrUnknownCommand = errors.New("unknown command")

// Command is one line typed by the active player.
type Command struct {
	Verb    Verb
	Card    string   // hand position (1-based) or card id
	Targets []string // player ids or names
	Path    []board.Coord
}

// ParseCommand reads a command line. A leading slash is accepted.
func ParseCommand(input string) (Command, error) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(input), "/"))
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("%w: empty input", ErrUnknownCommand)
	}
	verb, ok := aliases[strings.ToLower(fields[0])]
	if !ok {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
	}
	cmd := Command{Verb: verb}
	args := fields[1:]

	switch verb {
	case VerbPlay:
		if len(args) == 0 {
			return cmd, fmt.Errorf("usage: play N [cat ...]")
		}
		cmd.Card = args[0]
		if len(args) > 1 {
			cmd.Targets = args[1:]
		}
	case VerbFight:
		if len(args) != 1 {
			return cmd, fmt.Errorf("usage: fight CAT")
		}
		cmd.Targets = args
	case VerbWalk:
		if len(args) == 0 {
			return cmd, fmt.Errorf("usage: walk ROW,COL ...")
		}
		for _, a := range args {
			c, err := parseCoord(a)
			if err != nil {
				return cmd, err
			}
			cmd.Path = append(cmd.Path, c)
		}
	default:
		if len(args) > 0 {
			return cmd, fmt.Errorf("%s takes no arguments", verb)
		}
	}
	return cmd, nil
}

func parseCoord(s string) (board.Coord, error) {
	row, col, ok := strings.Cut(s, ",")
	if !ok {
		return board.Coord{}, fmt.Errorf("bad cell %q, want ROW,COL", s)
	}
	r, err := strconv.Atoi(row)
	if err != nil {
		return board.Coord{}, fmt.Errorf("bad row in %q: %w", s, err)
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return board.Coord{}, fmt.Errorf("bad column in %q: %w", s, err)
	}
	return board.Coord{Row: r, Col: c}, nil
}

// resolveCard finds a card in hand by 1-based position or by instance id.
func resolveCard(hand []state.Card, ref string) (state.Card, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(hand) {
			return state.Card{}, fmt.Errorf("no card %d in hand, you hold %d", n, len(hand))
		}
		return hand[n-1], nil
	}
	for _, c := range hand {
		if c.ID == ref {
			return c, nil
		}
	}
	return state.Card{}, fmt.Errorf("no card %q in hand", ref)
}

// playParams turns the typed targets into card choices. One target serves
// every step; several are taken one per effect step, in order.
func playParams(gs *state.GameState, targets []string) (engine.PlayParams, error) {
	var params engine.PlayParams
	for i, ref := range targets {
		id, err := resolvePlayer(gs, ref)
		if err != nil {
			return params, err
		}
		if len(targets) == 1 {
			params.Target = id
			break
		}
		if params.StepTargets == nil {
			params.StepTargets = make(map[int]string, len(targets))
		}
		params.StepTargets[i] = id
	}
	return params, nil
}

// resolvePlayer finds a player by id, seat number or case-insensitive name.
func resolvePlayer(gs *state.GameState, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(gs.Players) {
		return gs.Players[n-1].ID, nil
	}
	for _, p := range gs.Players {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no cat called %q", ref)
}
