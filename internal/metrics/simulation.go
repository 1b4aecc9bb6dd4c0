// Package metrics collects in-process counters and latency histograms for
// simulations and catalog lookups.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// SimulationMetrics tracks simulation throughput and latency.
type SimulationMetrics struct {
	SimulationLatency *Histogram
	ExactLatency      *Histogram
	CatalogLatency    *Histogram

	Simulations   atomic.Uint64
	ExactRuns     atomic.Uint64
	Trials        atomic.Uint64
	ShortCircuits atomic.Uint64
	Failures      atomic.Uint64
	Cancellations atomic.Uint64
	CatalogCalls  atomic.Uint64
	CatalogErrors atomic.Uint64

	mu        sync.RWMutex
	startTime time.Time
}

// NewSimulationMetrics creates an empty collector.
func NewSimulationMetrics() *SimulationMetrics {
	return &SimulationMetrics{
		SimulationLatency: NewHistogram(defaultHistogramSize),
		ExactLatency:      NewHistogram(defaultHistogramSize),
		CatalogLatency:    NewHistogram(defaultHistogramSize),
		startTime:         time.Now(),
	}
}

// RecordSimulation records a finished Monte Carlo run.
func (m *SimulationMetrics) RecordSimulation(d time.Duration, trials int, shortCircuit bool) {
	m.Simulations.Add(1)
	if trials > 0 {
		m.Trials.Add(uint64(trials))
	}
	if shortCircuit {
		m.ShortCircuits.Add(1)
	}
	m.SimulationLatency.Record(d)
}

// RecordExact records a finished exact enumeration.
func (m *SimulationMetrics) RecordExact(d time.Duration, shortCircuit bool) {
	m.ExactRuns.Add(1)
	if shortCircuit {
		m.ShortCircuits.Add(1)
	}
	m.ExactLatency.Record(d)
}

// RecordFailure counts a run that returned an error.
func (m *SimulationMetrics) RecordFailure() {
	m.Failures.Add(1)
}

// RecordCancellation counts a run stopped by its context.
func (m *SimulationMetrics) RecordCancellation() {
	m.Cancellations.Add(1)
}

// RecordCatalogCall records a catalog request and whether it failed.
func (m *SimulationMetrics) RecordCatalogCall(d time.Duration, err error) {
	m.CatalogCalls.Add(1)
	if err != nil {
		m.CatalogErrors.Add(1)
	}
	m.CatalogLatency.Record(d)
}

// Stats is a JSON-friendly snapshot of SimulationMetrics.
type Stats struct {
	SimulationLatency Summary `json:"simulation_latency"`
	ExactLatency      Summary `json:"exact_latency"`
	CatalogLatency    Summary `json:"catalog_latency"`

	Simulations   uint64 `json:"simulations"`
	ExactRuns     uint64 `json:"exact_runs"`
	Trials        uint64 `json:"trials"`
	ShortCircuits uint64 `json:"short_circuits"`
	Failures      uint64 `json:"failures"`
	Cancellations uint64 `json:"cancellations"`
	CatalogCalls  uint64 `json:"catalog_calls"`
	CatalogErrors uint64 `json:"catalog_errors"`

	CatalogSuccessRate float64 `json:"catalog_success_rate"` // percentage
	TrialsPerSecond    float64 `json:"trials_per_second"`
	Uptime             string  `json:"uptime"`
}

// Snapshot returns the current statistics.
func (m *SimulationMetrics) Snapshot() Stats {
	m.mu.RLock()
	started := m.startTime
	m.mu.RUnlock()

	s := Stats{
		SimulationLatency: m.SimulationLatency.Summary(),
		ExactLatency:      m.ExactLatency.Summary(),
		CatalogLatency:    m.CatalogLatency.Summary(),
		Simulations:       m.Simulations.Load(),
		ExactRuns:         m.ExactRuns.Load(),
		Trials:            m.Trials.Load(),
		ShortCircuits:     m.ShortCircuits.Load(),
		Failures:          m.Failures.Load(),
		Cancellations:     m.Cancellations.Load(),
		CatalogCalls:      m.CatalogCalls.Load(),
		CatalogErrors:     m.CatalogErrors.Load(),
		Uptime:            time.Since(started).Round(time.Second).String(),
	}

	if s.CatalogCalls > 0 {
		s.CatalogSuccessRate = float64(s.CatalogCalls-s.CatalogErrors) / float64(s.CatalogCalls) * 100
	}
	// Latency samples are milliseconds.
	if total := s.SimulationLatency.Mean * float64(s.SimulationLatency.Count); total > 0 {
		s.TrialsPerSecond = float64(s.Trials) / (total / 1000)
	}
	return s
}

// Reset clears all metrics and restarts the uptime clock.
func (m *SimulationMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SimulationLatency.Reset()
	m.ExactLatency.Reset()
	m.CatalogLatency.Reset()
	for _, c := range []*atomic.Uint64{
		&m.Simulations, &m.ExactRuns, &m.Trials, &m.ShortCircuits,
		&m.Failures, &m.Cancellations, &m.CatalogCalls, &m.CatalogErrors,
	} {
		c.Store(0)
	}
	m.startTime = time.Now()
}
