package combo

import (
	"sort"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/probability"
)

const (
	// MaxExactSteps bounds the Hall subset check run for every hand composition.
	MaxExactSteps = 10
	// MaxExactStates bounds the number of hand compositions Exact enumerates.
	MaxExactStates = 2_000_000
)

// ExactResult is the closed-form probability of a combo.
type ExactResult struct {
	Probability  float64        `json:"probability"`
	Fraction     float64        `json:"fraction"`
	HandSize     int            `json:"hand_size"`
	States       int            `json:"states"`
	ShortCircuit *Unsatisfiable `json:"short_circuit,omitempty"`
}

// Exact computes the probability that a hand of handSize cards satisfies the
// combo without sampling. Cards are grouped by the set of steps they can
// serve; every composition of the hand over those groups is weighted by its
// multivariate hypergeometric mass and checked with Hall's condition.
func Exact(deckCards []string, steps []Step, handSize int) (ExactResult, error) {
	p, err := compile(deckCards, steps, handSize)
	if err != nil {
		return ExactResult{}, err
	}
	if len(deckCards) < handSize {
		return ExactResult{}, &InfeasibleDeckError{DeckSize: len(deckCards), HandSize: handSize}
	}

	result := ExactResult{HandSize: handSize}
	if u := p.unsatisfiable(); u != nil {
		result.ShortCircuit = u
		return result, nil
	}
	if len(p.steps) > MaxExactSteps {
		return ExactResult{}, ErrTooManySteps
	}
	if len(p.steps) == 0 {
		result.Fraction, result.Probability, result.States = 1, 100, 1
		return result, nil
	}

	e := newEnumerator(p)
	if err := e.walk(0, handSize, 1); err != nil {
		return ExactResult{}, err
	}

	result.States = e.states
	result.Fraction = e.feasible / probability.Combinations(len(deckCards), handSize)
	if result.Fraction > 1 {
		result.Fraction = 1
	}
	result.Probability = 100 * result.Fraction
	return result, nil
}

type enumerator struct {
	masks    []uint64
	counts   []int
	other    int
	need     []int // subset -> summed requirement
	drawn    []int
	states   int
	feasible float64
}

func newEnumerator(p *plan) *enumerator {
	groups := make(map[uint64]int)
	e := &enumerator{}
	for _, m := range p.deck {
		if m == 0 {
			e.other++
			continue
		}
		groups[m]++
	}
	for m := range groups {
		e.masks = append(e.masks, m)
	}
	sort.Slice(e.masks, func(i, j int) bool { return e.masks[i] < e.masks[j] })
	for _, m := range e.masks {
		e.counts = append(e.counts, groups[m])
	}
	e.drawn = make([]int, len(e.masks))

	e.need = make([]int, 1<<len(p.steps))
	for subset := 1; subset < len(e.need); subset++ {
		for i, r := range p.required {
			if subset&(1<<i) != 0 {
				e.need[subset] += r
			}
		}
	}
	return e
}

func (e *enumerator) walk(group, remaining int, weight float64) error {
	if group == len(e.masks) {
		if remaining > e.other {
			return nil
		}
		e.states++
		if e.states > MaxExactStates {
			return ErrTooComplex
		}
		if e.hall() {
			e.feasible += weight * probability.Combinations(e.other, remaining)
		}
		return nil
	}

	for x := 0; x <= e.counts[group] && x <= remaining; x++ {
		e.drawn[group] = x
		if err := e.walk(group+1, remaining-x, weight*probability.Combinations(e.counts[group], x)); err != nil {
			return err
		}
	}
	e.drawn[group] = 0
	return nil
}

// hall reports whether every subset of steps is covered by enough drawn cards.
func (e *enumerator) hall() bool {
	for subset := 1; subset < len(e.need); subset++ {
		have := 0
		for i, m := range e.masks {
			if m&uint64(subset) != 0 {
				have += e.drawn[i]
			}
		}
		if have < e.need[subset] {
			return false
		}
	}
	return true
}

// Satisfies reports whether a specific hand meets every step, with each card
// used for at most one step.
func Satisfies(hand []string, steps []Step) bool {
	index := make(map[string]uint64)
	var required []int
	for _, s := range steps {
		if s.RequiredCount <= 0 {
			continue
		}
		if len(required) == MaxSteps {
			return false
		}
		bit := uint64(1) << len(required)
		for _, name := range s.AllowedNames {
			index[name] |= bit
		}
		required = append(required, s.RequiredCount)
	}

	masks := make([]uint64, len(hand))
	for i, name := range hand {
		masks[i] = index[name]
	}
	return newBacktracker(required, len(hand)).match(masks)
}
