// Package analysis is the application layer behind the HTTP API and the CLI:
// it imports deck lists, keeps them in storage and runs the probability and
// combo calculations against them.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/catalog"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/combo"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/metrics"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/storage"
)

var (
	// ErrNotFound is returned when a deck, card or combo does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for malformed requests.
	ErrValidation = errors.New("validation failed")
)

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Catalog is the card database the service resolves names against.
type Catalog interface {
	Metadata(ctx context.Context, names []string) (map[string]catalog.Metadata, error)
	BestMatch(ctx context.Context, name string) (*catalog.Card, error)
}

// Options holds simulation defaults and limits.
type Options struct {
	HandSize      int
	Iterations    int
	MaxIterations int
	Workers       int // 0 = one per CPU
	Matcher       combo.Matcher
	// CatalogBudget bounds the catalog lookups of one import so the deck
	// write still has time left under the caller's deadline.
	CatalogBudget time.Duration
}

// DefaultOptions returns the built-in simulation defaults.
func DefaultOptions() Options {
	return Options{
		HandSize:      combo.DefaultHandSize,
		Iterations:    combo.DefaultIterations,
		MaxIterations: 10_000_000,
		CatalogBudget: 20 * time.Second,
	}
}

// Service implements deck, tag, combo and analysis operations.
type Service struct {
	store   *storage.Service
	catalog Catalog
	opts    Options
	metrics *metrics.SimulationMetrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a service. catalog may be nil, in which case imported
// cards are kept without metadata. m may be nil.
func NewService(store *storage.Service, cat Catalog, opts Options, m *metrics.SimulationMetrics, logger *zap.Logger) *Service {
	def := DefaultOptions()
	if opts.HandSize <= 0 {
		opts.HandSize = def.HandSize
	}
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.MaxIterations < opts.Iterations {
		opts.MaxIterations = max(def.MaxIterations, opts.Iterations)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.CatalogBudget <= 0 {
		opts.CatalogBudget = def.CatalogBudget
	}
	if m == nil {
		m = metrics.NewSimulationMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		catalog: cat,
		opts:    opts,
		metrics: m,
		logger:  logger.Named("analysis"),
		now:     time.Now,
	}
}

// Options returns the effective simulation defaults.
func (s *Service) Options() Options {
	return s.opts
}

// Metrics returns the metrics collector shared with the jobs manager.
func (s *Service) Metrics() *metrics.SimulationMetrics {
	return s.metrics
}
