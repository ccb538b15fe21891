package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/internal/events"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <game id>",
		Short: "Follow a running game's commits over Redis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid game id %q: %w", args[0], err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rs, err := a.requireRedis(ctx)
			if err != nil {
				return err
			}
			defer rs.Close()

			feed, err := events.NewBroadcaster(rs.Client(), a.logger).Subscribe(ctx, id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s, Ctrl+C to stop.\n", events.Channel(id))
			for ev := range feed {
				fmt.Fprintln(out, formatEvent(ev))
				if ev.Type == events.EventTypeGameOver {
					return nil
				}
			}
			return nil
		},
	}
}

func formatEvent(ev events.Event) string {
	switch ev.Type {
	case events.EventTypeGameOver:
		return fmt.Sprintf("game over, %v wins on turn %v", ev.Data["winner"], ev.Data["turn"])
	case events.EventTypeTurnEnded:
		return fmt.Sprintf("turn %v: %v to play", ev.Data["turn"], ev.Data["next"])
	}
	if ev.Committed == nil {
		return string(ev.Type)
	}
	a := ev.Committed.Action
	line := fmt.Sprintf("#%d %s", ev.Seq, a.Kind)
	if a.Target != "" {
		line += " " + a.Target
	}
	if a.Amount != 0 {
		line += fmt.Sprintf(" %d", a.Amount)
	}
	if a.Owner != "" {
		line += " (" + a.Owner + ")"
	}
	if ev.Type == events.EventTypeInterruptPlayed && ev.Committed.Interrupt != nil {
		line += fmt.Sprintf(", %s played %s", ev.Committed.Interrupt.Player, ev.Committed.Interrupt.Def)
	}
	return line
}
