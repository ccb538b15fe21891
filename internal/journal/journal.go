// Package journal records every committed action of a game as compressed
// JSON lines. The first record holds the starting state, so a journal can
// be replayed into the exact state of any later point.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/klauspost/compress/zstd"
)

const ext = ".jsonl.zst"

var ErrGap = errors.New("journal has a gap")

type RecordType string

const (
	RecordHeader RecordType = "header"
	RecordCommit RecordType = "commit"
)

type Record struct {
	Type   RecordType       `json:"type"`
	Time   time.Time        `json:"time"`
	State  *state.GameState `json:"state,omitempty"`
	Commit *state.Committed `json:"commit,omitempty"`
}

// Path is where a game's journal lives inside dir.
func Path(dir string, gameID uuid.UUID) string {
	return filepath.Join(dir, gameID.String()+ext)
}

// Writer appends records for one game. It is an engine observer.
type Writer struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// Open starts or continues the journal of gs. A new journal begins with a
// header holding gs; an existing one gets a new compressed frame appended.
func Open(dir string, gs *state.GameState, logger *slog.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal dir: %w", err)
	}
	path := Path(dir, gs.ID)
	_, statErr := os.Stat(path)
	fresh := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start compressor: %w", err)
	}
	w := &Writer{
		path:   path,
		logger: logger,
		f:      f,
		enc:    enc,
		w:      bufio.NewWriterSize(enc, 64*1024),
	}
	if fresh {
		if err := w.write(Record{Type: RecordHeader, Time: time.Now().UTC(), State: gs.Clone()}); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	return w, nil
}

func (w *Writer) Path() string { return w.path }

// OnCommit appends the commit. A failed write is logged; the game goes on
// without its journal.
func (w *Writer) OnCommit(_ context.Context, gameID uuid.UUID, c state.Committed) {
	if err := w.Append(c); err != nil {
		w.logger.Error("Failed to journal commit", "game_id", gameID, "seq", c.Seq, "error", err)
	}
}

func (w *Writer) Append(c state.Committed) error {
	return w.write(Record{Type: RecordCommit, Time: time.Now().UTC(), Commit: &c})
}

func (w *Writer) write(r Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return errors.New("journal is closed")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the compressed frame. Records are only readable after
// Close.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err1 error
	if w.w != nil {
		err1 = w.w.Flush()
	}
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	w.w = nil
	return err1
}
