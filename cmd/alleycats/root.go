package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jwebster45206/alley-cats/internal/config"
	"github.com/jwebster45206/alley-cats/internal/logger"
	"github.com/jwebster45206/alley-cats/internal/storage"
	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/spf13/cobra"
)

const redisAttempts = 5

// app carries what every subcommand needs once the config is loaded.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var mapPath, catalogPath string

	root := &cobra.Command{
		Use:          "alleycats",
		Short:        "Alley Cats board game engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("map") {
				cfg.MapPath = mapPath
			}
			if cmd.Flags().Changed("catalog") {
				cfg.CatalogPath = catalogPath
			}
			a.cfg = cfg
			a.logger = logger.Setup(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&mapPath, "map", "", "map file (.yaml, or .txt/.tsv rows); defaults to the built-in yard")
	root.PersistentFlags().StringVar(&catalogPath, "catalog", "", "card catalog YAML; defaults to the built-in deck")

	root.AddCommand(
		newPlayCmd(a),
		newValidateCmd(a),
		newReplayCmd(a),
		newHistoryCmd(a),
		newSessionsCmd(a),
		newWatchCmd(a),
	)
	return root
}

func (a *app) loadBoard() (*board.Board, error) {
	if a.cfg.MapPath == "" {
		return board.Default()
	}
	return board.LoadFile(a.cfg.MapPath)
}

func (a *app) loadCatalog() (*cards.Catalog, error) {
	if a.cfg.CatalogPath == "" {
		return cards.Default()
	}
	return cards.LoadFile(a.cfg.CatalogPath)
}

// logTo redirects logging, e.g. to a file while the terminal UI owns stdout.
func (a *app) logTo(w io.Writer) {
	a.logger = logger.Setup(a.cfg, w)
}

func (a *app) openLogFile() (*os.File, error) {
	f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// openRedis connects to REDIS_URL. It returns nil when Redis is not
// configured.
func (a *app) openRedis(ctx context.Context) (*storage.RedisStorage, error) {
	if a.cfg.RedisURL == "" {
		return nil, nil
	}
	rs, err := storage.NewRedisStorage(a.cfg.RedisURL, a.cfg.SessionTTL, a.logger)
	if err != nil {
		return nil, err
	}
	if err := rs.WaitForConnection(ctx, redisAttempts, time.Second); err != nil {
		_ = rs.Close()
		return nil, err
	}
	return rs, nil
}

// openStorage prefers Redis and falls back to an in-process store, in
// which case sessions are resumed from the journal.
func (a *app) openStorage(ctx context.Context) (storage.Storage, *storage.RedisStorage, error) {
	rs, err := a.openRedis(ctx)
	if err != nil {
		return nil, nil, err
	}
	if rs == nil {
		a.logger.Info("REDIS_URL not set, sessions are kept in memory")
		return storage.NewMemoryStorage(), nil, nil
	}
	return rs, rs, nil
}

func (a *app) requireRedis(ctx context.Context) (*storage.RedisStorage, error) {
	rs, err := a.openRedis(ctx)
	if err != nil {
		return nil, err
	}
	if rs == nil {
		return nil, fmt.Errorf("REDIS_URL is not set")
	}
	return rs, nil
}
