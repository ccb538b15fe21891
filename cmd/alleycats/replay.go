package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/internal/journal"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/spf13/cobra"
)

func newReplayCmd(a *app) *cobra.Command {
	var (
		upTo    int
		asJSON  bool
		actions bool
	)
	cmd := &cobra.Command{
		Use:   "replay <journal file | game id>",
		Short: "Rebuild a game from its journal",
		Example: `  alleycats replay data/journal/6f1c0f6e-4a4b-4d0e-9a53-0c1d0c7c1a2e.jsonl.zst
  alleycats replay 6f1c0f6e-4a4b-4d0e-9a53-0c1d0c7c1a2e --upto 40`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if id, err := uuid.Parse(path); err == nil {
				path = journal.Path(a.cfg.JournalDir, id)
			}
			j, err := journal.Read(path)
			if err != nil {
				return err
			}
			gs, err := j.Replay(upTo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(gs)
			}
			if actions {
				printActions(out, j, upTo)
			}
			b, err := a.loadBoard()
			if err != nil {
				return err
			}
			printStanding(out, gs, b)
			return nil
		},
	}
	cmd.Flags().IntVar(&upTo, "upto", 0, "stop after this sequence number (default: the whole journal)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the rebuilt state as JSON")
	cmd.Flags().BoolVar(&actions, "actions", false, "list every committed action")
	return cmd
}

func printActions(out io.Writer, j *journal.Journal, upTo int) {
	for _, c := range j.Commits {
		if upTo > 0 && c.Seq > upTo {
			break
		}
		line := fmt.Sprintf("%5d  turn %-3d %-15s", c.Seq, c.Turn, c.Action.Kind)
		if c.Action.Source != "" {
			line += " from=" + c.Action.Source
		}
		if c.Action.Target != "" {
			line += " to=" + c.Action.Target
		}
		if c.Action.Amount != 0 {
			line += fmt.Sprintf(" x%d", c.Action.Amount)
		}
		if c.Interrupt != nil {
			line += fmt.Sprintf(" [%s by %s]", c.Interrupt.Def, c.Interrupt.Player)
		}
		if c.Skipped != "" {
			line += " (skipped: " + c.Skipped + ")"
		}
		fmt.Fprintln(out, line)
	}
}

func printStanding(out io.Writer, gs *state.GameState, b *board.Board) {
	fmt.Fprintf(out, "Game %s: turn %d, %d actions\n", gs.ID, gs.Turn, gs.Seq)

	headers := []string{"Cat", "Food", "Hand"}
	for _, o := range b.Owners() {
		headers = append(headers, o.Name)
	}
	headers = append(headers, "Titles")

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for _, p := range gs.Players {
		row := []string{p.Name, fmt.Sprint(p.Food), fmt.Sprint(len(p.Hand))}
		for _, o := range b.Owners() {
			row = append(row, fmt.Sprint(p.Trust[o.ID]))
		}
		row = append(row, strings.Join(gs.TitlesOf(p.ID), ", "))
		t.Row(row...)
	}
	fmt.Fprintln(out, t.String())

	if gs.Over() {
		fmt.Fprintf(out, "Winner: %s\n", gs.Winner)
	} else if p := gs.ActivePlayer(); p != nil {
		fmt.Fprintf(out, "%s to play (%s)\n", p.Name, gs.Phase)
	}
}
