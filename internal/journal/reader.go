package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jwebster45206/alley-cats/pkg/state"
	"github.com/klauspost/compress/zstd"
)

// Journal is a decoded journal file.
type Journal struct {
	Header  *state.GameState
	Commits []state.Committed
}

func Read(path string) (*Journal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to start decompressor: %w", err)
	}
	defer dec.Close()

	j := &Journal{}
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch r.Type {
		case RecordHeader:
			if j.Header != nil {
				return nil, fmt.Errorf("line %d: second header", line)
			}
			j.Header = r.State
		case RecordCommit:
			if r.Commit == nil {
				return nil, fmt.Errorf("line %d: commit record without commit", line)
			}
			j.Commits = append(j.Commits, *r.Commit)
		default:
			return nil, fmt.Errorf("line %d: unknown record type %q", line, r.Type)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	if j.Header == nil {
		return nil, fmt.Errorf("journal %s has no header", path)
	}
	return j, nil
}

// Replay applies the recorded transactions to a copy of the header state,
// stopping after sequence number upTo. upTo <= 0 replays everything.
func (j *Journal) Replay(upTo int) (*state.GameState, error) {
	gs := j.Header.Clone()
	for _, c := range j.Commits {
		if upTo > 0 && c.Seq > upTo {
			break
		}
		if c.Seq != gs.Seq+1 {
			return gs, fmt.Errorf("%w: expected seq %d, found %d", ErrGap, gs.Seq+1, c.Seq)
		}
		if err := gs.Apply(c.Batch...); err != nil {
			return gs, fmt.Errorf("seq %d: %w", c.Seq, err)
		}
		gs.Seq = c.Seq
	}
	return gs, nil
}
