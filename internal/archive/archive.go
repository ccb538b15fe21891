// Package archive keeps the results of finished games in SQLite.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
	_ "modernc.org/sqlite"
)

// Standing is one player's position when a game ended.
type Standing struct {
	Seat     int            `json:"seat"`
	PlayerID string         `json:"player_id"`
	Name     string         `json:"name"`
	Food     int            `json:"food"`
	Trust    map[string]int `json:"trust"`
	Titles   []string       `json:"titles,omitempty"`
}

type Result struct {
	GameID     uuid.UUID  `json:"game_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Turns      int        `json:"turns"`
	Actions    int        `json:"actions"`
	Winner     string     `json:"winner,omitempty"`
	Seed       int64      `json:"seed"`
	Journal    string     `json:"journal,omitempty"`
	Standings  []Standing `json:"standings"`
}

type Archive struct {
	db *sql.DB
}

func Open(path string) (*Archive, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			turns INTEGER NOT NULL,
			actions INTEGER NOT NULL,
			winner TEXT NOT NULL,
			seed INTEGER NOT NULL,
			journal TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_finished ON games(finished_at);`,
		`CREATE TABLE IF NOT EXISTS standings (
			game_id TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			player_id TEXT NOT NULL,
			name TEXT NOT NULL,
			food INTEGER NOT NULL,
			trust_json TEXT NOT NULL,
			titles_json TEXT NOT NULL,
			PRIMARY KEY (game_id, seat)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Record stores the final state of a game. Recording the same game again
// replaces the earlier result.
func (a *Archive) Record(ctx context.Context, gs *state.GameState, journal string) error {
	if gs == nil {
		return errors.New("game state cannot be nil")
	}
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := gs.ID.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM standings WHERE game_id = ?`, id); err != nil {
		return fmt.Errorf("clear standings: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO games (id, started_at, finished_at, turns, actions, winner, seed, journal)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, gs.CreatedAt.UTC().UnixMilli(), gs.UpdatedAt.UTC().UnixMilli(),
		gs.Turn, gs.Seq, gs.Winner, gs.ShuffleSeed, journal,
	); err != nil {
		return fmt.Errorf("insert game: %w", err)
	}

	for seat, p := range gs.Players {
		trust, err := json.Marshal(p.Trust)
		if err != nil {
			return err
		}
		titles, err := json.Marshal(gs.TitlesOf(p.ID))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO standings (game_id, seat, player_id, name, food, trust_json, titles_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, seat, p.ID, p.Name, p.Food, string(trust), string(titles),
		); err != nil {
			return fmt.Errorf("insert standing %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// History returns up to limit results, most recent first.
func (a *Archive) History(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, turns, actions, winner, seed, journal
		 FROM games ORDER BY finished_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	var out []Result
	for rows.Next() {
		var (
			r                 Result
			id                string
			started, finished int64
		)
		if err := rows.Scan(&id, &started, &finished, &r.Turns, &r.Actions, &r.Winner, &r.Seed, &r.Journal); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if r.GameID, err = uuid.Parse(id); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("bad game id %q: %w", id, err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, r)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Standings, err = a.standings(ctx, out[i].GameID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (a *Archive) standings(ctx context.Context, gameID uuid.UUID) ([]Standing, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT seat, player_id, name, food, trust_json, titles_json
		 FROM standings WHERE game_id = ? ORDER BY seat`, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var (
			s             Standing
			trust, titles string
		)
		if err := rows.Scan(&s.Seat, &s.PlayerID, &s.Name, &s.Food, &trust, &titles); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(trust), &s.Trust); err != nil {
			return nil, fmt.Errorf("decode trust: %w", err)
		}
		if err := json.Unmarshal([]byte(titles), &s.Titles); err != nil {
			return nil, fmt.Errorf("decode titles: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Wins counts won games per player name.
func (a *Archive) Wins(ctx context.Context) (map[string]int, error) {
	rows, err := a.db.QueryContext(ctx,
		`SELECT s.name, COUNT(*)
		 FROM games g JOIN standings s ON s.game_id = g.id AND s.player_id = g.winner
		 WHERE g.winner <> ''
		 GROUP BY s.name`)
	if err != nil {
		return nil, fmt.Errorf("query wins: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			name string
			n    int
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		out[name] = n
	}
	return out, rows.Err()
}
