package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/jwebster45206/alley-cats/pkg/board"
	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/spf13/cobra"
)

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check map and card catalog files",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "map <file>",
			Short:   "Validate a map and check every cell can be reached",
			Example: "  alleycats validate map yard.yaml",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return validateMap(cmd.OutOrStdout(), args[0])
			},
		},
		&cobra.Command{
			Use:     "catalog <file>",
			Short:   "Validate a card catalog against the schema and the map's owners",
			Example: "  alleycats validate catalog cards.yaml --map yard.yaml",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				b, err := a.loadBoard()
				if err != nil {
					return err
				}
				return validateCatalog(cmd.OutOrStdout(), args[0], b)
			},
		},
	)
	return cmd
}

func validateMap(out io.Writer, path string) error {
	fmt.Fprintf(out, "Validating %s...\n", path)
	b, err := board.LoadFile(path)
	if err != nil {
		return err
	}
	v := &validator{}
	v.validateBoard(b)
	if err := v.err(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Map is valid: %dx%d, %d owners, %d starting cells.\n", b.Rows(), b.Cols(), len(b.Owners()), len(b.OpenCells()))
	return nil
}

func validateCatalog(out io.Writer, path string, b *board.Board) error {
	fmt.Fprintf(out, "Validating %s...\n", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if err := cards.ValidateSchema(data); err != nil {
		return fmt.Errorf("file %s does not match the catalog schema: %w", path, err)
	}
	cat, err := cards.Parse(data)
	if err != nil {
		return err
	}
	v := &validator{}
	v.validateOwners(cat, b)
	if err := v.err(path); err != nil {
		return err
	}
	total := 0
	for _, d := range cat.All() {
		total += d.Count
	}
	fmt.Fprintf(out, "Catalog is valid: %d definitions, %d cards, %d agendas.\n", len(cat.All()), total, len(cat.Agendas()))
	return nil
}

type validator struct {
	errors []string
}

func (v *validator) add(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) err(path string) error {
	if len(v.errors) == 0 {
		return nil
	}
	return fmt.Errorf("validation errors in %s:\n%s", path, strings.Join(v.errors, "\n"))
}

func (v *validator) validateBoard(b *board.Board) {
	placed := make(map[string]bool)
	var passable []board.Coord
	for r := range b.Rows() {
		for c := range b.Cols() {
			cell, _ := b.Cell(board.Coord{Row: r, Col: c})
			if cell.Kind == board.KindOwner {
				placed[cell.Owner] = true
			}
			if cell.Passable() {
				passable = append(passable, cell.Coord)
			}
		}
	}
	for _, o := range b.Owners() {
		if !placed[o.ID] {
			v.add("- owner %q has no cell on the map", o.ID)
		}
	}
	if len(b.OpenCells()) == 0 {
		v.add("- no empty cell for cats to start on")
	}
	if len(passable) == 0 {
		return
	}

	seen := map[board.Coord]bool{passable[0]: true}
	queue := []board.Coord{passable[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			cell, ok := b.Cell(n)
			if !ok || !cell.Passable() || seen[n] {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	for _, c := range passable {
		if !seen[c] {
			v.add("- cell %s cannot be reached from %s", c, passable[0])
		}
	}
}

// validateOwners checks literal owner ids in the catalog exist on the map.
func (v *validator) validateOwners(cat *cards.Catalog, b *board.Board) {
	check := func(kind, id string, ref cards.OwnerRef) {
		switch ref {
		case "", cards.OwnerOfCell, cards.OwnerBound, cards.OwnerOfVisited:
			return
		}
		if _, ok := b.Owner(string(ref)); !ok {
			v.add("- %s %q: unknown owner %q", kind, id, ref)
		}
	}
	checkKeys := func(kind, id string, m map[string]int) {
		owners := make([]string, 0, len(m))
		for o := range m {
			owners = append(owners, o)
		}
		sort.Strings(owners)
		for _, o := range owners {
			check(kind, id, cards.OwnerRef(o))
		}
	}
	checkPassive := func(kind, id string, p *cards.Passive) {
		if p != nil {
			checkKeys(kind, id, p.OwnerFood)
			checkKeys(kind, id, p.VisitFood)
		}
	}
	for _, d := range cat.All() {
		for _, s := range d.Steps {
			check("card", d.ID, s.Owner)
			if s.If != nil {
				check("card", d.ID, s.If.Owner)
			}
		}
		checkPassive("card", d.ID, d.Passive)
	}
	for _, a := range cat.Agendas() {
		check("agenda", a.ID, cards.OwnerRef(a.Objective.Owner))
		checkKeys("agenda", a.ID, a.Objective.Visits)
		for _, s := range a.Reward {
			check("agenda", a.ID, s.Owner)
		}
		checkPassive("agenda", a.ID, a.Bonus)
	}
}
