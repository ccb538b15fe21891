package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/internal/archive"
	"github.com/jwebster45206/alley-cats/internal/console"
	"github.com/jwebster45206/alley-cats/internal/events"
	"github.com/jwebster45206/alley-cats/internal/journal"
	"github.com/jwebster45206/alley-cats/internal/logger"
	"github.com/jwebster45206/alley-cats/internal/storage"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/engine"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/jwebster45206/alley-cats/pkg/textfilter"
	"github.com/spf13/cobra"
)

const (
	minPlayers = 2
	maxPlayers = 6
)

func newPlayCmd(a *app) *cobra.Command {
	var (
		resume   string
		seed     int64
		winTrust int
		window   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "play [cat names...]",
		Short: "Play a hot-seat game in the terminal",
		Example: `  alleycats play tom felix garfield
  alleycats play --resume 6f1c0f6e-4a4b-4d0e-9a53-0c1d0c7c1a2e`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("seed") {
				a.cfg.Seed = seed
			}
			if cmd.Flags().Changed("win-trust") {
				a.cfg.WinTrust = winTrust
			}
			if cmd.Flags().Changed("decision-window") {
				a.cfg.DecisionWindow = window
			}
			if resume == "" && (len(args) < minPlayers || len(args) > maxPlayers) {
				return fmt.Errorf("name between %d and %d cats, or pass --resume", minPlayers, maxPlayers)
			}

			logFile, err := a.openLogFile()
			if err != nil {
				return err
			}
			defer logFile.Close()
			a.logTo(logFile)

			return a.play(cmd, args, resume)
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "id of a saved game to continue")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for dealing and dice (default: random)")
	cmd.Flags().IntVar(&winTrust, "win-trust", 0, "trust with one owner needed to win")
	cmd.Flags().DurationVar(&window, "decision-window", 0, "how long players get to answer an interrupt")
	return cmd
}

func (a *app) play(cmd *cobra.Command, names []string, resume string) error {
	ctx := cmd.Context()
	b, err := a.loadBoard()
	if err != nil {
		return err
	}
	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	store, rs, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	var e *engine.Engine
	if resume != "" {
		e, err = a.resumeGame(ctx, store, b, cat, resume)
	} else {
		e, err = a.newGame(b, cat, names)
	}
	if err != nil {
		return err
	}

	decider := console.NewDecider()
	e.WithDecider(decider).
		WithDecisionWindow(a.cfg.DecisionWindow).
		WithLogger(a.logger)

	gs := e.State()
	log := logger.WithGame(a.logger, gs.ID)
	jw, err := journal.Open(a.cfg.JournalDir, gs, a.logger)
	if err != nil {
		return err
	}
	defer jw.Close()
	e.WithObserver(jw)

	var broadcaster *events.Broadcaster
	if rs != nil {
		broadcaster = events.NewBroadcaster(rs.Client(), log)
		e.WithObserver(broadcaster)
	}
	if err := store.SaveSession(ctx, gs); err != nil {
		return err
	}
	log.Info("game started", "players", len(gs.Players), "turn", gs.Turn, "journal", jw.Path())

	ui := console.New(console.Options{Engine: e, Decider: decider, Saver: store, Logger: log})
	if _, err := tea.NewProgram(ui, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}

	final := e.State()
	if err := store.SaveSession(ctx, final); err != nil {
		logger.WithError(log, err).Error("failed to save session")
	}
	out := cmd.OutOrStdout()
	if !final.Over() {
		fmt.Fprintf(out, "Game saved. Continue with: alleycats play --resume %s\n", final.ID)
		return nil
	}

	name := final.Winner
	if winner, err := final.Player(final.Winner); err == nil {
		name = console.DisplayName(winner.Name)
	}
	fmt.Fprintf(out, "%s won on turn %d.\n", name, final.Turn)
	if broadcaster != nil {
		if err := broadcaster.PublishGameOver(ctx, final); err != nil {
			logger.WithError(log, err).Warn("failed to announce game over")
		}
	}
	return a.archive(ctx, final, jw.Path())
}

func (a *app) archive(ctx context.Context, gs *state.GameState, journalPath string) error {
	ar, err := archive.Open(a.cfg.ArchivePath)
	if err != nil {
		return err
	}
	defer ar.Close()
	if err := ar.Record(ctx, gs, journalPath); err != nil {
		return fmt.Errorf("failed to archive game: %w", err)
	}
	a.logger.Info("game archived", "game_id", gs.ID, "winner", gs.Winner)
	return nil
}

func (a *app) newGame(b *board.Board, cat *cards.Catalog, names []string) (*engine.Engine, error) {
	players, err := seats(names)
	if err != nil {
		return nil, err
	}
	seed := a.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return engine.NewGame(engine.GameSetup{
		Players:  players,
		Board:    b,
		Catalog:  cat,
		Seed:     seed,
		WinTrust: a.cfg.WinTrust,
	})
}

// seats turns typed names into players with stable ids.
func seats(names []string) ([]engine.PlayerSetup, error) {
	filter := textfilter.NewNameFilter()
	players := make([]engine.PlayerSetup, 0, len(names))
	for i, n := range names {
		name, err := filter.Clean(n)
		if err != nil {
			return nil, fmt.Errorf("cat %d: %w", i+1, err)
		}
		players = append(players, engine.PlayerSetup{ID: fmt.Sprintf("cat-%d", i+1), Name: name})
	}
	return players, nil
}

// resumeGame loads a snapshot, or rebuilds the game from its journal when
// the snapshot store does not have it.
func (a *app) resumeGame(ctx context.Context, store storage.Storage, b *board.Board, cat *cards.Catalog, ref string) (*engine.Engine, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("invalid game id %q: %w", ref, err)
	}
	gs, err := store.LoadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs == nil {
		j, err := journal.Read(journal.Path(a.cfg.JournalDir, id))
		if err != nil {
			return nil, fmt.Errorf("game %s not found: %w", id, err)
		}
		if gs, err = j.Replay(0); err != nil {
			return nil, err
		}
		a.logger.Info("session rebuilt from journal", "game_id", id, "seq", gs.Seq)
	}
	if gs.Over() {
		return nil, fmt.Errorf("game %s is already over", id)
	}
	return engine.Resume(gs, b, cat)
}
