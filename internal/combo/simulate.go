// Package combo estimates how often an opening hand satisfies an ordered set
// of card requirements, by Monte Carlo sampling or by exact enumeration.
package combo

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultHandSize is the opening hand size.
	DefaultHandSize = 5
	// DefaultIterations gives a relative standard error near 0.1% around 50%.
	DefaultIterations = 1_000_000

	// checkInterval is how many trials a worker runs between context checks
	// and progress reports.
	checkInterval = 4096
)

// Options configures a simulation run. HandSize and Iterations must be set;
// DefaultHandSize and DefaultIterations are the usual choices.
type Options struct {
	HandSize   int
	Iterations int
	// Seed makes a run reproducible. Nil draws a seed from crypto/rand.
	Seed *uint64
	// Workers partitions the iterations. Values below 2 run on the calling goroutine.
	Workers int
	Matcher Matcher
	// Progress receives the number of finished trials. Calls are serialized.
	Progress func(done, total int)
}

// Result is the outcome of a simulation.
type Result struct {
	Probability float64 `json:"probability"`
	Successes   int     `json:"successes"`
	// Trials is the number of hands drawn. It is 0 when ShortCircuit is set.
	Trials int `json:"trials"`
	// Iterations is the requested number of trials.
	Iterations   int            `json:"iterations"`
	HandSize     int            `json:"hand_size"`
	Seed         uint64         `json:"seed"`
	Workers      int            `json:"workers"`
	Duration     time.Duration  `json:"duration_ns"`
	ShortCircuit *Unsatisfiable `json:"short_circuit,omitempty"`
}

// Seeded returns a pointer to seed for use in Options.
func Seeded(seed uint64) *uint64 {
	return &seed
}

// NewSeed returns a random seed read from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	return o
}

// Simulate estimates the probability, as a percentage, that a random hand of
// opts.HandSize cards drawn from deckCards satisfies every step at once, with
// each drawn card serving at most one step.
//
// A hand size or iteration count below 1 returns ErrInvalidInput, as does an
// empty deck. A deck smaller than the hand returns an *InfeasibleDeckError.
// Combos that no hand could satisfy return a zero result with ShortCircuit set
// and run no trials.
func Simulate(ctx context.Context, deckCards []string, steps []Step, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if opts.Iterations <= 0 {
		return Result{}, invalidf("iterations must be positive, got %d", opts.Iterations)
	}
	if opts.HandSize <= 0 {
		return Result{}, invalidf("hand size must be positive, got %d", opts.HandSize)
	}

	p, err := compile(deckCards, steps, opts.HandSize)
	if err != nil {
		return Result{}, err
	}
	if len(deckCards) < opts.HandSize {
		return Result{}, &InfeasibleDeckError{DeckSize: len(deckCards), HandSize: opts.HandSize}
	}

	var seed uint64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else if seed, err = NewSeed(); err != nil {
		return Result{}, err
	}

	result := Result{
		Iterations: opts.Iterations,
		HandSize:   opts.HandSize,
		Seed:       seed,
		Workers:    min(opts.Workers, opts.Iterations),
	}

	if u := p.unsatisfiable(); u != nil {
		result.ShortCircuit = u
		return result, nil
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("simulation cancelled: %w", err)
	}

	start := time.Now()
	successes, err := p.run(ctx, seed, result.Workers, opts)
	if err != nil {
		return Result{}, err
	}
	result.Successes = successes
	result.Trials = opts.Iterations
	result.Probability = 100 * float64(successes) / float64(opts.Iterations)
	result.Duration = time.Since(start)
	return result, nil
}

func (p *plan) run(ctx context.Context, seed uint64, workers int, opts Options) (int, error) {
	progress := newReporter(opts.Progress, opts.Iterations)

	if workers == 1 {
		return p.trials(ctx, newSource(seed, 0), opts.Iterations, opts.Matcher, progress)
	}

	g, gctx := errgroup.WithContext(ctx)
	counts := make([]int, workers)
	per, extra := opts.Iterations/workers, opts.Iterations%workers
	for w := 0; w < workers; w++ {
		n := per
		if w < extra {
			n++
		}
		g.Go(func() error {
			c, err := p.trials(gctx, newSource(seed, uint64(w)), n, opts.Matcher, progress)
			counts[w] = c
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	return total, nil
}

// newSource derives an independent PCG stream for each worker.
func newSource(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// trials draws n hands and counts those that satisfy the plan.
func (p *plan) trials(ctx context.Context, rng *rand.Rand, n int, kind Matcher, progress *reporter) (int, error) {
	deck := make([]uint64, len(p.deck))
	copy(deck, p.deck)
	size := len(deck)
	hand := p.handSize
	m := newMatcher(kind, p.required, hand)

	successes, reported := 0, 0
	for t := 0; t < n; t++ {
		if t%checkInterval == 0 && t > 0 {
			if err := ctx.Err(); err != nil {
				return successes, fmt.Errorf("simulation cancelled after %d trials: %w", t, err)
			}
			progress.add(t - reported)
			reported = t
		}

		// Partial Fisher-Yates over the first hand positions. The buffer is
		// not reset between trials; the pass yields a uniform hand from any
		// starting arrangement.
		for k := 0; k < hand; k++ {
			j := k + rng.IntN(size-k)
			deck[k], deck[j] = deck[j], deck[k]
		}
		if m.match(deck[:hand]) {
			successes++
		}
	}
	progress.add(n - reported)
	return successes, nil
}

// reporter accumulates finished trials across workers and forwards them to
// the caller's progress callback one call at a time.
type reporter struct {
	fn    func(done, total int)
	total int
	done  int
	mu    sync.Mutex
}

func newReporter(fn func(done, total int), total int) *reporter {
	return &reporter{fn: fn, total: total}
}

func (r *reporter) add(n int) {
	if r == nil || r.fn == nil || n == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done += n
	r.fn(r.done, r.total)
}
