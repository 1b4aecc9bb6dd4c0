package combo

import (
	"math/bits"
	"strings"
)

// MaxSteps is the largest number of steps with a non-zero requirement a combo may have.
const MaxSteps = 64

// Step is one requirement of a combo: at least RequiredCount distinct drawn
// cards whose names are in AllowedNames.
type Step struct {
	ID            string   `json:"id" toml:"id"`
	Label         string   `json:"label,omitempty" toml:"label"`
	AllowedNames  []string `json:"allowed_names" toml:"cards"`
	RequiredCount int      `json:"required_count" toml:"required"`
}

// Name returns a display name for the step.
func (s Step) Name() string {
	switch {
	case s.Label != "":
		return s.Label
	case s.ID != "":
		return s.ID
	default:
		return strings.Join(s.AllowedNames, " / ")
	}
}

// Unsatisfiable describes why a combo can never be drawn from a deck.
type Unsatisfiable struct {
	Steps     []string `json:"steps"`
	Required  int      `json:"required"`
	Available int      `json:"available"`
	Reason    string   `json:"reason"`
}

// plan is a combo compiled against a specific deck. Each card is reduced to a
// bitmask of the compiled steps it can serve.
type plan struct {
	deck     []uint64
	required []int
	steps    []Step
	handSize int
}

func compile(deckCards []string, steps []Step, handSize int) (*plan, error) {
	if len(deckCards) == 0 {
		return nil, invalidf("deck is empty")
	}
	if handSize <= 0 {
		return nil, invalidf("hand size must be positive, got %d", handSize)
	}

	p := &plan{handSize: handSize}
	index := make(map[string]uint64)
	for _, s := range steps {
		if s.RequiredCount < 0 {
			return nil, invalidf("step %q has negative required count %d", s.Name(), s.RequiredCount)
		}
		if s.RequiredCount == 0 {
			continue
		}
		if len(p.steps) == MaxSteps {
			return nil, invalidf("at most %d steps with a requirement are supported", MaxSteps)
		}
		bit := uint64(1) << len(p.steps)
		for _, name := range s.AllowedNames {
			index[name] |= bit
		}
		p.steps = append(p.steps, s)
		p.required = append(p.required, s.RequiredCount)
	}

	p.deck = make([]uint64, len(deckCards))
	for i, name := range deckCards {
		p.deck[i] = index[name]
	}
	return p, nil
}

func (p *plan) totalRequired() int {
	total := 0
	for _, r := range p.required {
		total += r
	}
	return total
}

// deckHallLimit bounds the subset check in unsatisfiable.
const deckHallLimit = 16

// unsatisfiable reports a combo that no hand from this deck can satisfy.
func (p *plan) unsatisfiable() *Unsatisfiable {
	available := make([]int, len(p.steps))
	for _, m := range p.deck {
		for m != 0 {
			i := bits.TrailingZeros64(m)
			available[i]++
			m &= m - 1
		}
	}

	for i, s := range p.steps {
		if len(s.AllowedNames) == 0 {
			return &Unsatisfiable{
				Steps:    []string{s.Name()},
				Required: s.RequiredCount,
				Reason:   "step has no allowed cards",
			}
		}
		if s.RequiredCount > available[i] {
			return &Unsatisfiable{
				Steps:     []string{s.Name()},
				Required:  s.RequiredCount,
				Available: available[i],
				Reason:    "step requires more copies than the deck contains",
			}
		}
	}

	if total := p.totalRequired(); total > p.handSize {
		return &Unsatisfiable{
			Steps:     p.stepNames(^uint64(0)),
			Required:  total,
			Available: p.handSize,
			Reason:    "combo requires more cards than the hand holds",
		}
	}

	if len(p.steps) > deckHallLimit {
		return nil
	}
	counts := make(map[uint64]int)
	for _, m := range p.deck {
		if m != 0 {
			counts[m]++
		}
	}
	for subset := uint64(1); subset < 1<<len(p.steps); subset++ {
		need := 0
		for i := range p.steps {
			if subset&(1<<i) != 0 {
				need += p.required[i]
			}
		}
		have := 0
		for m, c := range counts {
			if m&subset != 0 {
				have += c
			}
		}
		if need > have {
			return &Unsatisfiable{
				Steps:     p.stepNames(subset),
				Required:  need,
				Available: have,
				Reason:    "steps together require more copies than the deck contains",
			}
		}
	}
	return nil
}

func (p *plan) stepNames(subset uint64) []string {
	var names []string
	for i, s := range p.steps {
		if subset&(1<<i) != 0 {
			names = append(names, s.Name())
		}
	}
	return names
}
