// Package probability computes exact draw odds for card categories using the
// hypergeometric distribution.
package probability

import (
	"errors"
	"fmt"
	"math"
)

// DefaultHandSize is the opening hand size used when a caller does not supply one.
const DefaultHandSize = 5

var (
	// ErrEmptyDeck is returned when a distribution is requested for a deck with no main cards.
	ErrEmptyDeck = errors.New("deck has no main deck cards")
	// ErrInvalidHandSize is returned for a hand size of zero or less.
	ErrInvalidHandSize = errors.New("hand size must be positive")
	// ErrInvalidCount is returned when the category count is negative or larger than the deck.
	ErrInvalidCount = errors.New("category count out of range")
)

// Combinations returns the binomial coefficient C(n, k) as a float64.
// It uses a running product so no factorial of n is ever formed.
func Combinations(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	if k == 0 || k == n {
		return 1
	}
	if k > n/2 {
		k = n - k
	}

	result := 1.0
	for i := 1; i <= k; i++ {
		result *= float64(n-i+1) / float64(i)
	}
	return result
}

// Hypergeometric returns the probability of drawing exactly k successes in a
// sample of n cards taken without replacement from N cards of which K are successes.
func Hypergeometric(N, K, n, k int) float64 {
	if N < 0 || K < 0 || n < 0 || k < 0 {
		return 0
	}
	if n > N || k > K || k > n || n-k > N-K {
		return 0
	}
	total := Combinations(N, n)
	if total == 0 {
		return 0
	}
	return Combinations(K, k) * Combinations(N-K, n-k) / total
}

// PMF returns the full probability mass function for k = 0..n.
func PMF(N, K, n int) []float64 {
	if n < 0 {
		return nil
	}
	pmf := make([]float64, n+1)
	for k := 0; k <= n; k++ {
		pmf[k] = Hypergeometric(N, K, n, k)
	}
	return pmf
}

// AtLeast returns the probability of drawing k or more successes.
// The tail is computed as the complement of the lower mass and clamped to [0, 1].
func AtLeast(N, K, n, k int) float64 {
	if k <= 0 {
		return 1
	}
	lower := 0.0
	for i := 0; i < k; i++ {
		lower += Hypergeometric(N, K, n, i)
	}
	return clamp01(1 - lower)
}

// Distribution is the four-bucket breakdown of how many copies of a category
// show up in an opening hand.
type Distribution struct {
	P0          float64 `json:"p0"`
	P1          float64 `json:"p1"`
	P2          float64 `json:"p2"`
	P3Plus      float64 `json:"p3plus"`
	CountInDeck int     `json:"count_in_deck"`
	DeckSize    int     `json:"deck_size"`
	HandSize    int     `json:"hand_size"`
}

// NewDistribution computes the 0/1/2/3+ breakdown for a category with
// countInDeck copies in a deckSize-card deck. The hand is capped at the deck size.
func NewDistribution(deckSize, countInDeck, handSize int) (Distribution, error) {
	if deckSize <= 0 {
		return Distribution{}, ErrEmptyDeck
	}
	if handSize <= 0 {
		return Distribution{}, fmt.Errorf("%w: %d", ErrInvalidHandSize, handSize)
	}
	if countInDeck < 0 || countInDeck > deckSize {
		return Distribution{}, fmt.Errorf("%w: %d of %d", ErrInvalidCount, countInDeck, deckSize)
	}

	n := min(handSize, deckSize)
	d := Distribution{
		P0:          Hypergeometric(deckSize, countInDeck, n, 0),
		P1:          Hypergeometric(deckSize, countInDeck, n, 1),
		P2:          Hypergeometric(deckSize, countInDeck, n, 2),
		CountInDeck: countInDeck,
		DeckSize:    deckSize,
		HandSize:    n,
	}
	d.P3Plus = math.Max(0, 1-(d.P0+d.P1+d.P2))
	return d, nil
}

// AtLeastOne is the chance of opening at least one copy.
func (d Distribution) AtLeastOne() float64 {
	return clamp01(1 - d.P0)
}

// Percentages returns the four buckets scaled to 0-100.
func (d Distribution) Percentages() [4]float64 {
	return [4]float64{d.P0 * 100, d.P1 * 100, d.P2 * 100, d.P3Plus * 100}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
