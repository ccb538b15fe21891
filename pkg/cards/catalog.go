package cards

import (
	"embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var builtinCatalogs embed.FS

// Catalog is the static set of card definitions a game is built from.
type Catalog struct {
	defs  map[string]*Definition
	order []string

	agendas     map[string]*Agenda
	agendaOrder []string
}

type catalogFile struct {
	Cards   []Definition `yaml:"cards"`
	Agendas []Agenda     `yaml:"agendas"`
}

// NewCatalog builds a catalog without semantic validation. Duplicate ids are
// still rejected.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]*Definition, len(defs)), agendas: make(map[string]*Agenda)}
	for i := range defs {
		d := defs[i]
		if d.ID == "" {
			return nil, fmt.Errorf("card %d: id is required", i)
		}
		if _, dup := c.defs[d.ID]; dup {
			return nil, fmt.Errorf("duplicate card id %q", d.ID)
		}
		if d.Category == "" {
			d.Category = CategoryEffect
		}
		if d.Placement == "" && d.StaysInPlay() {
			d.Placement = PlaceSelf
		}
		c.defs[d.ID] = &d
		c.order = append(c.order, d.ID)
	}
	return c, nil
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	c, err := NewCatalog(f.Cards...)
	if err != nil {
		return nil, err
	}
	if err := c.AddAgendas(f.Agendas...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded catalog of the printed game
func Default() (*Catalog, error) {
	data, err := builtinCatalogs.ReadFile("catalogs/alley_cats.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin catalog: %w", err)
	}
	return Parse(data)
}

func (c *Catalog) Get(id string) (*Definition, bool) {
	d, ok := c.defs[id]
	return d, ok
}

// All returns definitions in catalog order
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.defs[id])
	}
	return out
}

// AddAgendas registers secret agendas. Ids share one namespace with cards.
func (c *Catalog) AddAgendas(agendas ...Agenda) error {
	for i := range agendas {
		a := agendas[i]
		if a.ID == "" {
			return fmt.Errorf("agenda %d: id is required", i)
		}
		_, dupAgenda := c.agendas[a.ID]
		if _, dupCard := c.defs[a.ID]; dupCard || dupAgenda {
			return fmt.Errorf("duplicate agenda id %q", a.ID)
		}
		c.agendas[a.ID] = &a
		c.agendaOrder = append(c.agendaOrder, a.ID)
	}
	return nil
}

func (c *Catalog) Agenda(id string) (*Agenda, bool) {
	a, ok := c.agendas[id]
	return a, ok
}

// Agendas returns agendas in catalog order
func (c *Catalog) Agendas() []*Agenda {
	out := make([]*Agenda, 0, len(c.agendaOrder))
	for _, id := range c.agendaOrder {
		out = append(out, c.agendas[id])
	}
	return out
}

// Validate checks every definition for authoring defects and joins them.
func (c *Catalog) Validate() error {
	var errs []error
	for _, d := range c.All() {
		if err := validateDefinition(d); err != nil {
			errs = append(errs, fmt.Errorf("card %q: %w", d.ID, err))
		}
	}
	for _, a := range c.Agendas() {
		if err := validateAgenda(a); err != nil {
			errs = append(errs, fmt.Errorf("agenda %q: %w", a.ID, err))
		}
	}
	return errors.Join(errs...)
}

func validateDefinition(d *Definition) error {
	if d.Title == "" {
		return errors.New("title is required")
	}
	if d.Count < 0 {
		return errors.New("count must not be negative")
	}
	if d.Cost < 0 {
		return errors.New("cost must not be negative")
	}

	switch d.Timing {
	case TimingImmediate, TimingDelayed, TimingPersistent:
	case TimingInterrupt:
		if d.Interrupt != RedirectRecipient && d.Interrupt != RedirectDestination {
			return fmt.Errorf("interrupt card needs a policy, got %q", d.Interrupt)
		}
	default:
		return fmt.Errorf("unknown timing %q", d.Timing)
	}

	if d.IsTitle() && len(d.Steps) > 0 {
		return errors.New("title cards resolve to a claim and take no steps")
	}
	if d.Timing == TimingDelayed {
		if d.Trigger == nil {
			return errors.New("delayed card needs a trigger")
		}
		switch d.Trigger.Event {
		case EventVisitedCell, EventFight, EventVisitedOtherOwner:
		default:
			return fmt.Errorf("unknown trigger event %q", d.Trigger.Event)
		}
	}

	for i, s := range d.Steps {
		switch s.Kind {
		case StepGainFood, StepGainTrust, StepLoseTrust, StepDrawCards,
			StepStealFood, StepStealCard, StepDiscardRandom:
		default:
			return fmt.Errorf("step %d: unknown kind %q", i, s.Kind)
		}
		if s.Amount <= 0 {
			return fmt.Errorf("step %d: amount must be positive", i)
		}
		if (s.Kind == StepGainTrust || s.Kind == StepLoseTrust) && s.Owner == "" {
			return fmt.Errorf("step %d: trust steps need an owner", i)
		}
		if (s.Kind == StepDiscardRandom || s.Target == TargetOpponent) && !d.Needs(RequireOpponent) {
			return fmt.Errorf("step %d: targets an opponent but the card does not require one", i)
		}
		refs := []OwnerRef{s.Owner}
		if s.If != nil {
			refs = append(refs, s.If.Owner)
		}
		for _, ref := range refs {
			if err := checkOwnerRef(d, ref); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
	}
	return nil
}

// checkOwnerRef reports references to owners the card cannot know about at
// resolution time.
func checkOwnerRef(d *Definition, ref OwnerRef) error {
	switch ref {
	case OwnerOfCell:
		if !d.Needs(RequireOwnerCell) {
			return fmt.Errorf("%w: %q without the owner_cell requirement", ErrUnboundEffect, ref)
		}
	case OwnerBound:
		if !d.Binds() {
			return fmt.Errorf("%w: %q on a card that never binds", ErrUnboundEffect, ref)
		}
	case OwnerOfVisited:
		if d.Trigger == nil || d.Trigger.Event != EventVisitedOtherOwner {
			return fmt.Errorf("%w: %q outside a visited_other_owner trigger", ErrUnboundEffect, ref)
		}
	}
	return nil
}
