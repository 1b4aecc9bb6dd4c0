package combo

import "fmt"

// Matcher selects the hand feasibility check used by the simulator.
type Matcher int

const (
	// Backtracking assigns cards to steps in order and backtracks when a
	// later step cannot be filled.
	Backtracking Matcher = iota
	// BipartiteMatching expands steps into slots and runs augmenting-path matching.
	BipartiteMatching
)

func (m Matcher) String() string {
	switch m {
	case Backtracking:
		return "backtracking"
	case BipartiteMatching:
		return "bipartite"
	default:
		return fmt.Sprintf("Matcher(%d)", int(m))
	}
}

// ParseMatcher converts a matcher name to a Matcher.
func ParseMatcher(s string) (Matcher, error) {
	switch s {
	case "", "backtracking":
		return Backtracking, nil
	case "bipartite", "matching":
		return BipartiteMatching, nil
	default:
		return Backtracking, invalidf("unknown matcher %q", s)
	}
}

// handMatcher decides whether a hand of step masks satisfies every step.
// Implementations keep scratch state and are not safe for concurrent use.
type handMatcher interface {
	match(hand []uint64) bool
}

func newMatcher(kind Matcher, required []int, handSize int) handMatcher {
	if kind == BipartiteMatching {
		return newBipartite(required, handSize)
	}
	return newBacktracker(required, handSize)
}

// backtracker walks the steps in order, choosing card indices in increasing
// order within a step so each combination is tried once.
type backtracker struct {
	required []int
	used     []bool
	hand     []uint64
}

func newBacktracker(required []int, handSize int) *backtracker {
	return &backtracker{
		required: required,
		used:     make([]bool, handSize),
	}
}

func (b *backtracker) match(hand []uint64) bool {
	if len(b.required) == 0 {
		return true
	}
	if len(b.used) < len(hand) {
		b.used = make([]bool, len(hand))
	}
	b.hand = hand
	clear(b.used)
	return b.fill(0, b.required[0], 0)
}

func (b *backtracker) fill(step, need, from int) bool {
	if need == 0 {
		next := step + 1
		if next == len(b.required) {
			return true
		}
		return b.fill(next, b.required[next], 0)
	}

	bit := uint64(1) << step
	for i := from; i < len(b.hand); i++ {
		if b.used[i] || b.hand[i]&bit == 0 {
			continue
		}
		// Cards with identical masks are interchangeable, so a mask that
		// already failed at this position will fail again.
		if b.triedEquivalent(i, from, bit) {
			continue
		}
		b.used[i] = true
		if b.fill(step, need-1, i+1) {
			return true
		}
		b.used[i] = false
	}
	return false
}

func (b *backtracker) triedEquivalent(i, from int, bit uint64) bool {
	for j := from; j < i; j++ {
		if !b.used[j] && b.hand[j]&bit != 0 && b.hand[j] == b.hand[i] {
			return true
		}
	}
	return false
}

// bipartite matches hand cards to step slots with Kuhn's augmenting paths.
type bipartite struct {
	slots     []int // slot -> step index
	slotOwner []int // slot -> hand index, -1 when free
	seen      []bool
	hand      []uint64
}

func newBipartite(required []int, handSize int) *bipartite {
	b := &bipartite{}
	for step, r := range required {
		for i := 0; i < r; i++ {
			b.slots = append(b.slots, step)
		}
	}
	b.slotOwner = make([]int, len(b.slots))
	b.seen = make([]bool, len(b.slots))
	return b
}

func (b *bipartite) match(hand []uint64) bool {
	if len(b.slots) == 0 {
		return true
	}
	if len(b.slots) > len(hand) {
		return false
	}
	b.hand = hand
	for i := range b.slotOwner {
		b.slotOwner[i] = -1
	}

	matched := 0
	for card := range hand {
		if hand[card] == 0 {
			continue
		}
		clear(b.seen)
		if b.augment(card) {
			matched++
			if matched == len(b.slots) {
				return true
			}
		}
	}
	return false
}

func (b *bipartite) augment(card int) bool {
	for slot, step := range b.slots {
		if b.hand[card]&(1<<step) == 0 || b.seen[slot] {
			continue
		}
		b.seen[slot] = true
		if b.slotOwner[slot] == -1 || b.augment(b.slotOwner[slot]) {
			b.slotOwner[slot] = card
			return true
		}
	}
	return false
}
