package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/jwebster45206/alley-cats/internal/archive"
	"github.com/spf13/cobra"
)

const timeLayout = "2006-01-02 15:04"

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show finished games and who won them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ar, err := archive.Open(a.cfg.ArchivePath)
			if err != nil {
				return err
			}
			defer ar.Close()

			results, err := ar.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No finished games yet.")
				return nil
			}

			games := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Finished", "Game", "Turns", "Winner", "Cats")
			for _, r := range results {
				var names []string
				winner := r.Winner
				for _, s := range r.Standings {
					names = append(names, s.Name)
					if s.PlayerID == r.Winner {
						winner = s.Name
					}
				}
				games.Row(r.FinishedAt.Local().Format(timeLayout), r.GameID.String()[:8], fmt.Sprint(r.Turns), winner, strings.Join(names, ", "))
			}
			fmt.Fprintln(out, games.String())

			wins, err := ar.Wins(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(wins))
			for n := range wins {
				names = append(names, n)
			}
			sort.Slice(names, func(i, j int) bool {
				if wins[names[i]] != wins[names[j]] {
					return wins[names[i]] > wins[names[j]]
				}
				return names[i] < names[j]
			})
			board := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Cat", "Wins")
			for _, n := range names {
				board.Row(n, fmt.Sprint(wins[n]))
			}
			fmt.Fprintln(out, board.String())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of games to show")
	return cmd
}

func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved games that can be resumed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := a.requireRedis(cmd.Context())
			if err != nil {
				return err
			}
			defer rs.Close()

			sessions, err := rs.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No saved games.")
				return nil
			}
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("Updated", "Game", "Turn", "Cats")
			for _, s := range sessions {
				t.Row(s.UpdatedAt.Local().Format(timeLayout), s.ID.String(), fmt.Sprint(s.Turn), strings.Join(s.Players, ", "))
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}
