package board

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrOutOfBounds = errors.New("cell is outside the board")
	ErrImpassable  = errors.New("cell is a wall")
	ErrNotAdjacent = errors.New("cells are not adjacent")
)

// Coord addresses a cell. Its String form doubles as the unique cell id.
type Coord struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.Row, c.Col)
}

// Neighbors returns the orthogonal neighbours in N, E, S, W order
func (c Coord) Neighbors() []Coord {
	return []Coord{
		{Row: c.Row - 1, Col: c.Col},
		{Row: c.Row, Col: c.Col + 1},
		{Row: c.Row + 1, Col: c.Col},
		{Row: c.Row, Col: c.Col - 1},
	}
}

func (c Coord) adjacent(o Coord) bool {
	dr, dc := c.Row-o.Row, c.Col-o.Col
	return (dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))
}

type CellKind string

const (
	KindEmpty    CellKind = "empty"
	KindWall     CellKind = "wall"
	KindKiosk    CellKind = "kiosk"
	KindBasement CellKind = "basement"
	KindOwner    CellKind = "owner"
)

type RewardType string

const (
	RewardTrust RewardType = "trust"
	RewardFood  RewardType = "food"
	RewardCard  RewardType = "card"
)

// Reward is the fixed benefit an owner grants on a visit
type Reward struct {
	Type   RewardType `json:"type" yaml:"type"`
	Amount int        `json:"amount" yaml:"amount"`
}

// Owner is a fixed board character tied to its cells.
type Owner struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Symbol string `json:"symbol" yaml:"symbol"`
	Reward Reward `json:"reward" yaml:"reward"`
}

type Cell struct {
	Coord
	Kind  CellKind `json:"kind"`
	Owner string   `json:"owner,omitempty"` // owner id for KindOwner cells
}

func (c Cell) ID() string { return c.Coord.String() }

func (c Cell) Passable() bool { return c.Kind != KindWall }

// GrantsBenefit reports whether visiting the cell yields a once-per-turn reward.
func (c Cell) GrantsBenefit() bool {
	switch c.Kind {
	case KindKiosk, KindBasement, KindOwner:
		return true
	}
	return false
}

// Board is an immutable grid of cells plus the owners referenced by it.
type Board struct {
	cells  [][]Cell
	owners map[string]Owner
	order  []string
}

// New builds a board from symbol rows. Each rune is one cell: '.' wall,
// 'K' kiosk, 'B' basement, an owner symbol, or ' '/'_' for an empty path.
func New(rows []string, owners []Owner) (*Board, error) {
	grid := make([][]string, len(rows))
	for i, row := range rows {
		for _, r := range row {
			grid[i] = append(grid[i], string(r))
		}
	}
	return build(grid, owners)
}

func build(grid [][]string, owners []Owner) (*Board, error) {
	b := &Board{owners: make(map[string]Owner, len(owners))}
	bySymbol := make(map[string]Owner, len(owners))
	for _, o := range owners {
		if o.ID == "" || o.Symbol == "" {
			return nil, fmt.Errorf("owner %q: id and symbol are required", o.Name)
		}
		if _, dup := b.owners[o.ID]; dup {
			return nil, fmt.Errorf("duplicate owner id %q", o.ID)
		}
		switch o.Reward.Type {
		case RewardTrust, RewardFood, RewardCard:
		default:
			return nil, fmt.Errorf("owner %q: unknown reward type %q", o.ID, o.Reward.Type)
		}
		b.owners[o.ID] = o
		b.order = append(b.order, o.ID)
		bySymbol[o.Symbol] = o
	}

	width := 0
	for _, row := range grid {
		width = max(width, len(row))
	}
	if len(grid) == 0 || width == 0 {
		return nil, errors.New("map is empty")
	}

	b.cells = make([][]Cell, len(grid))
	for r, row := range grid {
		b.cells[r] = make([]Cell, width)
		for c := 0; c < width; c++ {
			sym := ""
			if c < len(row) {
				sym = strings.TrimSpace(row[c])
			}
			cell := Cell{Coord: Coord{Row: r, Col: c}, Kind: KindEmpty}
			switch sym {
			case ".":
				cell.Kind = KindWall
			case "K":
				cell.Kind = KindKiosk
			case "B":
				cell.Kind = KindBasement
			case "", "_":
			default:
				o, ok := bySymbol[sym]
				if !ok {
					return nil, fmt.Errorf("unknown map symbol %q at %d,%d", sym, r, c)
				}
				cell.Kind = KindOwner
				cell.Owner = o.ID
			}
			b.cells[r][c] = cell
		}
	}
	return b, nil
}

func (b *Board) Rows() int { return len(b.cells) }

func (b *Board) Cols() int { return len(b.cells[0]) }

// Cell returns the cell at c, or false when c is outside the grid
func (b *Board) Cell(c Coord) (Cell, bool) {
	if c.Row < 0 || c.Row >= len(b.cells) || c.Col < 0 || c.Col >= len(b.cells[c.Row]) {
		return Cell{}, false
	}
	return b.cells[c.Row][c.Col], true
}

func (b *Board) Owner(id string) (Owner, bool) {
	o, ok := b.owners[id]
	return o, ok
}

// Owners returns owners in declaration order
func (b *Board) Owners() []Owner {
	out := make([]Owner, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.owners[id])
	}
	return out
}

// OwnerAt returns the owner standing on c, if any.
func (b *Board) OwnerAt(c Coord) (Owner, bool) {
	cell, ok := b.Cell(c)
	if !ok || cell.Kind != KindOwner {
		return Owner{}, false
	}
	return b.Owner(cell.Owner)
}

// OpenCells lists passable empty cells in row-major order.
func (b *Board) OpenCells() []Coord {
	var out []Coord
	for _, row := range b.cells {
		for _, cell := range row {
			if cell.Kind == KindEmpty {
				out = append(out, cell.Coord)
			}
		}
	}
	return out
}

func (b *Board) passable(c Coord) bool {
	cell, ok := b.Cell(c)
	return ok && cell.Passable()
}

// ValidatePath checks that path is a chain of orthogonal steps over passable
// cells starting next to from. Revisiting cells is allowed.
func (b *Board) ValidatePath(from Coord, path []Coord) error {
	prev := from
	for i, step := range path {
		cell, ok := b.Cell(step)
		if !ok {
			return fmt.Errorf("step %d (%s): %w", i+1, step, ErrOutOfBounds)
		}
		if !cell.Passable() {
			return fmt.Errorf("step %d (%s): %w", i+1, step, ErrImpassable)
		}
		if !prev.adjacent(step) {
			return fmt.Errorf("step %d (%s -> %s): %w", i+1, prev, step, ErrNotAdjacent)
		}
		prev = step
	}
	return nil
}

// Walk finds a legal walk of exactly steps moves from start. The search is
// depth first in N, E, S, W order and avoids stepping straight back unless
// no other walk exists, so the result is deterministic for a given board.
func (b *Board) Walk(start Coord, steps int) ([]Coord, bool) {
	if steps <= 0 {
		return nil, true
	}
	path := make([]Coord, 0, steps)
	if b.walk(start, start, steps, &path, false) {
		return path, true
	}
	path = path[:0]
	if b.walk(start, start, steps, &path, true) {
		return path, true
	}
	return nil, false
}

func (b *Board) walk(cur, prev Coord, left int, path *[]Coord, allowBack bool) bool {
	if left == 0 {
		return true
	}
	for _, next := range cur.Neighbors() {
		if !b.passable(next) {
			continue
		}
		if next == prev && len(*path) > 0 && !allowBack {
			continue
		}
		*path = append(*path, next)
		if b.walk(next, cur, left-1, path, allowBack) {
			return true
		}
		*path = (*path)[:len(*path)-1]
	}
	return false
}
