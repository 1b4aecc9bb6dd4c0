package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
)

// Methods reported in SimulationResult.
const (
	MethodMonteCarlo = "monte_carlo"
	MethodExact      = "exact"
)

const maxWorkers = 64

// SimulateRequest describes a combo probability run. Zero numeric fields use
// the service defaults.
type SimulateRequest struct {
	Steps      []combo.Step `json:"steps"`
	HandSize   int          `json:"hand_size"`
	Iterations int          `json:"iterations"`
	Seed       *uint64      `json:"seed,omitempty"`
	Workers    int          `json:"workers"`
	Matcher    string       `json:"matcher,omitempty"`
	// Exact enumerates hands instead of sampling them.
	Exact bool `json:"exact"`

	Progress func(done, total int) `json:"-"`
}

// SimulationResult is the outcome of Simulate.
type SimulationResult struct {
	Method       string               `json:"method"`
	Probability  float64              `json:"probability"`
	DeckSize     int                  `json:"deck_size"`
	HandSize     int                  `json:"hand_size"`
	MonteCarlo   *combo.Result        `json:"monte_carlo,omitempty"`
	Exact        *combo.ExactResult   `json:"exact,omitempty"`
	ShortCircuit *combo.Unsatisfiable `json:"short_circuit,omitempty"`
}

// Simulate runs a combo against the main deck of a stored deck.
func (s *Service) Simulate(ctx context.Context, deckID string, req SimulateRequest) (*SimulationResult, error) {
	view, err := s.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, deck.MainDeck(Entries(view.Cards)), req)
}

// SimulateCards runs a combo against inline entries. Entries without an area
// count as main deck.
func (s *Service) SimulateCards(ctx context.Context, entries []deck.Entry, req SimulateRequest) (*SimulationResult, error) {
	return s.run(ctx, deck.MainDeck(MainByDefault(entries)), req)
}

// MainByDefault returns entries with an empty area set to the main deck.
func MainByDefault(entries []deck.Entry) []deck.Entry {
	out := make([]deck.Entry, len(entries))
	for i, e := range entries {
		if e.Area == "" {
			e.Area = deck.Main
		}
		out[i] = e
	}
	return out
}

func (s *Service) run(ctx context.Context, cards []string, req SimulateRequest) (*SimulationResult, error) {
	opts, err := s.simulationOptions(req)
	if err != nil {
		return nil, err
	}
	steps := numberSteps(req.Steps)

	result := &SimulationResult{DeckSize: len(cards), HandSize: opts.HandSize}
	start := time.Now()

	if req.Exact {
		exact, err := combo.Exact(cards, steps, opts.HandSize)
		if err != nil {
			s.metrics.RecordFailure()
			return nil, err
		}
		s.metrics.RecordExact(time.Since(start), exact.ShortCircuit != nil)
		result.Method = MethodExact
		result.Probability = exact.Probability
		result.Exact = &exact
		result.ShortCircuit = exact.ShortCircuit
		return result, nil
	}

	mc, err := combo.Simulate(ctx, cards, steps, opts)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.metrics.RecordCancellation()
		} else {
			s.metrics.RecordFailure()
		}
		return nil, err
	}
	s.metrics.RecordSimulation(time.Since(start), mc.Trials, mc.ShortCircuit != nil)
	s.logger.Debug("simulation finished",
		zap.Int("deck_size", len(cards)),
		zap.Int("steps", len(steps)),
		zap.Int("trials", mc.Trials),
		zap.Float64("probability", mc.Probability),
		zap.Duration("duration", mc.Duration),
	)

	result.Method = MethodMonteCarlo
	result.Probability = mc.Probability
	result.MonteCarlo = &mc
	result.ShortCircuit = mc.ShortCircuit
	return result, nil
}

// simulationOptions resolves a request against the service defaults and limits.
func (s *Service) simulationOptions(req SimulateRequest) (combo.Options, error) {
	opts := combo.Options{
		HandSize:   req.HandSize,
		Iterations: req.Iterations,
		Seed:       req.Seed,
		Workers:    req.Workers,
		Matcher:    s.opts.Matcher,
		Progress:   req.Progress,
	}
	if opts.HandSize == 0 {
		opts.HandSize = s.opts.HandSize
	}
	if opts.Iterations == 0 {
		opts.Iterations = s.opts.Iterations
	}
	if opts.Iterations > s.opts.MaxIterations {
		return opts, invalid("iterations %d above the limit of %d", opts.Iterations, s.opts.MaxIterations)
	}
	if opts.Workers <= 0 {
		opts.Workers = s.opts.Workers
	}
	opts.Workers = min(opts.Workers, maxWorkers)

	if req.Matcher != "" {
		m, err := combo.ParseMatcher(req.Matcher)
		if err != nil {
			return opts, err
		}
		opts.Matcher = m
	}
	return opts, nil
}

// numberSteps gives unnamed steps a positional ID.
func numberSteps(steps []combo.Step) []combo.Step {
	out := make([]combo.Step, len(steps))
	for i, st := range steps {
		if st.ID == "" {
			st.ID = fmt.Sprintf("step-%d", i+1)
		}
		out[i] = st
	}
	return out
}
