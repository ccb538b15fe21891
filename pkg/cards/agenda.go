package cards

import (
	"errors"
	"fmt"
)

// Objective is what a player must have achieved before revealing an
// agenda. Every set field must hold.
type Objective struct {
	Owner         string         `yaml:"owner,omitempty" json:"owner,omitempty"` // owner for TrustAtLeast
	TrustAtLeast  *int           `yaml:"trust_at_least,omitempty" json:"trust_at_least,omitempty"`
	FoodAtLeast   *int           `yaml:"food_at_least,omitempty" json:"food_at_least,omitempty"`
	HandAtLeast   *int           `yaml:"hand_at_least,omitempty" json:"hand_at_least,omitempty"`
	TitlesAtLeast *int           `yaml:"titles_at_least,omitempty" json:"titles_at_least,omitempty"`
	Visits        map[string]int `yaml:"visits,omitempty" json:"visits,omitempty"` // owner -> times visited
}

func (o Objective) empty() bool {
	return o.TrustAtLeast == nil && o.FoodAtLeast == nil && o.HandAtLeast == nil &&
		o.TitlesAtLeast == nil && len(o.Visits) == 0
}

// Agenda is a secret goal dealt face down at the start of the game.
// Revealing it once the objective holds grants Reward. An agenda with a
// Bonus stays revealed in front of its player, the rest go back to the box.
type Agenda struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Text      string    `yaml:"text" json:"text"`
	Objective Objective `yaml:"objective" json:"objective"`
	Reward    []Step    `yaml:"reward,omitempty" json:"reward,omitempty"`
	Bonus     *Passive  `yaml:"bonus,omitempty" json:"bonus,omitempty"`
}

func (a *Agenda) Persistent() bool { return a.Bonus != nil }

// Definition adapts the reward to the card step resolver. The caster is the
// agenda's player and every owner is named literally.
func (a *Agenda) Definition() *Definition {
	return &Definition{ID: a.ID, Title: a.Title, Category: CategoryEffect, Timing: TimingImmediate, Steps: a.Reward}
}

func validateAgenda(a *Agenda) error {
	if a.Title == "" {
		return errors.New("title is required")
	}
	if a.Objective.empty() {
		return errors.New("objective is required")
	}
	if a.Objective.TrustAtLeast != nil && a.Objective.Owner == "" {
		return errors.New("trust objective needs an owner")
	}
	if len(a.Reward) == 0 && a.Bonus == nil {
		return errors.New("agenda grants nothing")
	}
	for i, s := range a.Reward {
		switch s.Kind {
		case StepGainFood, StepGainTrust, StepDrawCards:
		default:
			return fmt.Errorf("reward %d: %q cannot be an agenda reward", i, s.Kind)
		}
		if s.Amount <= 0 {
			return fmt.Errorf("reward %d: amount must be positive", i)
		}
		if s.Kind == StepGainTrust {
			switch s.Owner {
			case "":
				return fmt.Errorf("reward %d: trust steps need an owner", i)
			case OwnerOfCell, OwnerBound, OwnerOfVisited:
				return fmt.Errorf("reward %d: %w: %q", i, ErrUnboundEffect, s.Owner)
			}
		}
		if s.Target == TargetOpponent || s.If != nil {
			return fmt.Errorf("reward %d: agenda rewards go to their player unconditionally", i)
		}
	}
	return nil
}
