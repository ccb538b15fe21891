package engine

import (
	"errors"

	"github.com/jwebster45206/alley-cats/pkg/cards"
	"github.com/jwebster45206/alley-cats/pkg/state"
)

var (
	ErrInvalidMove           = errors.New("invalid move")
	ErrInsufficientResources = state.ErrInsufficientResources
	ErrUnboundEffect         = cards.ErrUnboundEffect
	ErrNoEligibleTarget      = errors.New("no eligible target")
	ErrAmbiguousTarget       = errors.New("several players qualify, choose a target")
	ErrNotPlayable           = errors.New("card cannot be played now")
	ErrNotYourTurn           = errors.New("not your turn")
	ErrGameOver              = errors.New("game is over")
	ErrProposalInFlight      = errors.New("another action is being resolved")
	ErrInvalidInterrupt      = errors.New("interrupt is not eligible for this event")
	ErrCardNotFound          = state.ErrCardNotFound
	ErrNoAgenda              = errors.New("no secret agenda to reveal")
	ErrObjectiveUnmet        = errors.New("agenda objective not met")
)

// isRuleError reports errors that abort a single card but not the turn.
func isRuleError(err error) bool {
	return errors.Is(err, ErrUnboundEffect) ||
		errors.Is(err, ErrAmbiguousTarget) ||
		errors.Is(err, ErrNoEligibleTarget)
}
