package combo

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for an empty deck, a non-positive hand size
	// or iteration count, or malformed steps.
	ErrInvalidInput = errors.New("invalid simulation input")
	// ErrInfeasibleDeck matches any *InfeasibleDeckError.
	ErrInfeasibleDeck = errors.New("deck too small for hand size")
	// ErrTooManySteps is returned by Exact when the combo has more steps than it can enumerate.
	ErrTooManySteps = errors.New("too many steps for exact computation")
	// ErrTooComplex is returned by Exact when the number of hand compositions exceeds MaxExactStates.
	ErrTooComplex = errors.New("combo too complex for exact computation")
)

// InfeasibleDeckError reports a deck with fewer cards than the requested hand.
type InfeasibleDeckError struct {
	DeckSize int
	HandSize int
}

func (e *InfeasibleDeckError) Error() string {
	return fmt.Sprintf("deck too small: %d cards cannot fill a %d-card hand", e.DeckSize, e.HandSize)
}

// Is makes errors.Is(err, ErrInfeasibleDeck) succeed.
func (e *InfeasibleDeckError) Is(target error) bool {
	return target == ErrInfeasibleDeck
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
