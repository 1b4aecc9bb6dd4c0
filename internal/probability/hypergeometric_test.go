package probability

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinations(t *testing.T) {
	tests := []struct {
		name string
		n, k int
		want float64
	}{
		{"k zero", 5, 0, 1},
		{"k equals n", 5, 5, 1},
		{"k above n", 5, 6, 0},
		{"negative k", 5, -1, 0},
		{"five choose two", 5, 2, 10},
		{"symmetric branch", 10, 8, 45},
		{"forty choose five", 40, 5, 658008},
		{"thirty seven choose five", 37, 5, 435897},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Combinations(tt.n, tt.k), 1e-6)
		})
	}
}

func TestCombinations_LargeInputsStayFinite(t *testing.T) {
	got := Combinations(1000, 500)
	assert.False(t, math.IsInf(got, 0))
	assert.Greater(t, got, 0.0)
}

func TestHypergeometric_Boundaries(t *testing.T) {
	assert.Equal(t, 0.0, Hypergeometric(10, 3, 5, 4), "k greater than K")
	assert.Equal(t, 0.0, Hypergeometric(5, 2, 6, 1), "n greater than N")
	assert.Equal(t, 0.0, Hypergeometric(10, 8, 5, 1), "not enough non-successes")
	assert.Equal(t, 0.0, Hypergeometric(10, 3, 2, 3), "k greater than n")
	assert.InDelta(t, 0.1, Hypergeometric(5, 2, 3, 0), 1e-12)
}

func TestHypergeometric_Normalization(t *testing.T) {
	for N := 1; N <= 60; N += 7 {
		for K := 0; K <= N; K += 3 {
			for n := 0; n <= N && n <= 9; n++ {
				sum := 0.0
				for k := 0; k <= n; k++ {
					sum += Hypergeometric(N, K, n, k)
				}
				assert.InDelta(t, 1.0, sum, 1e-9, "N=%d K=%d n=%d", N, K, n)
			}
		}
	}
}

func TestHypergeometric_ComplementSymmetry(t *testing.T) {
	for N := 5; N <= 45; N += 5 {
		for K := 0; K <= N; K += 2 {
			for n := 0; n <= 7 && n <= N; n++ {
				for k := 0; k <= n; k++ {
					a := Hypergeometric(N, K, n, k)
					b := Hypergeometric(N, N-K, n, n-k)
					assert.InDelta(t, a, b, 1e-12, "N=%d K=%d n=%d k=%d", N, K, n, k)
				}
			}
		}
	}
}

func TestNewDistribution_ThreeCopiesInForty(t *testing.T) {
	d, err := NewDistribution(40, 3, 5)
	require.NoError(t, err)

	assert.InDelta(t, 0.66245, d.P0, 1e-4)
	assert.InDelta(t, 0.30111, d.P1, 1e-4)
	assert.InDelta(t, 0.03543, d.P2, 1e-4)
	assert.InDelta(t, 0.00101, d.P3Plus, 1e-4)
	assert.InDelta(t, 1.0, d.P0+d.P1+d.P2+d.P3Plus, 1e-12)
	assert.Equal(t, 3, d.CountInDeck)
	assert.Equal(t, 5, d.HandSize)
	assert.InDelta(t, 0.33755, d.AtLeastOne(), 1e-4)
}

func TestNewDistribution_EdgeCases(t *testing.T) {
	t.Run("no copies puts all mass at zero", func(t *testing.T) {
		d, err := NewDistribution(40, 0, 5)
		require.NoError(t, err)
		assert.Equal(t, 1.0, d.P0)
		assert.Equal(t, 0.0, d.P1)
		assert.Equal(t, 0.0, d.P3Plus)
	})

	t.Run("hand larger than deck draws the whole deck", func(t *testing.T) {
		d, err := NewDistribution(4, 2, 5)
		require.NoError(t, err)
		assert.Equal(t, 4, d.HandSize)
		assert.InDelta(t, 1.0, d.P2, 1e-12)
		assert.InDelta(t, 0.0, d.P0, 1e-12)
	})

	t.Run("every card in category", func(t *testing.T) {
		d, err := NewDistribution(10, 10, 5)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, d.P3Plus, 1e-12)
	})

	t.Run("errors", func(t *testing.T) {
		_, err := NewDistribution(0, 0, 5)
		assert.True(t, errors.Is(err, ErrEmptyDeck))

		_, err = NewDistribution(40, 3, 0)
		assert.True(t, errors.Is(err, ErrInvalidHandSize))

		_, err = NewDistribution(40, 41, 5)
		assert.True(t, errors.Is(err, ErrInvalidCount))
	})
}

func TestAtLeastAndPMF(t *testing.T) {
	pmf := PMF(40, 3, 5)
	require.Len(t, pmf, 6)

	sum := 0.0
	for _, p := range pmf {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)

	assert.Equal(t, 1.0, AtLeast(40, 3, 5, 0))
	assert.InDelta(t, 1-pmf[0], AtLeast(40, 3, 5, 1), 1e-12)
	assert.InDelta(t, pmf[3], AtLeast(40, 3, 5, 3), 1e-12)
	assert.InDelta(t, 0.0, AtLeast(40, 3, 5, 4), 1e-12)
}
