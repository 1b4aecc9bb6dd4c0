package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSimulationMetrics_Snapshot(t *testing.T) {
	m := NewSimulationMetrics()
	m.RecordSimulation(100*time.Millisecond, 1000, false)
	m.RecordSimulation(100*time.Millisecond, 0, true)
	m.RecordExact(time.Millisecond, false)
	m.RecordFailure()
	m.RecordCancellation()
	m.RecordCatalogCall(10*time.Millisecond, nil)
	m.RecordCatalogCall(10*time.Millisecond, errors.New("boom"))

	s := m.Snapshot()
	assert.Equal(t, uint64(2), s.Simulations)
	assert.Equal(t, uint64(1), s.ExactRuns)
	assert.Equal(t, uint64(1000), s.Trials)
	assert.Equal(t, uint64(1), s.ShortCircuits)
	assert.Equal(t, uint64(1), s.Failures)
	assert.Equal(t, uint64(1), s.Cancellations)
	assert.Equal(t, uint64(2), s.CatalogCalls)
	assert.Equal(t, uint64(1), s.CatalogErrors)
	assert.InDelta(t, 50.0, s.CatalogSuccessRate, 1e-9)
	assert.InDelta(t, 5000.0, s.TrialsPerSecond, 1e-6)
	assert.Equal(t, 2, s.SimulationLatency.Count)
	assert.NotEmpty(t, s.Uptime)
}

func TestSimulationMetrics_Reset(t *testing.T) {
	m := NewSimulationMetrics()
	m.RecordSimulation(time.Millisecond, 10, true)
	m.RecordCatalogCall(time.Millisecond, nil)
	m.Reset()

	s := m.Snapshot()
	assert.Zero(t, s.Simulations)
	assert.Zero(t, s.Trials)
	assert.Zero(t, s.ShortCircuits)
	assert.Zero(t, s.CatalogCalls)
	assert.Zero(t, s.SimulationLatency.Count)
	assert.Zero(t, s.TrialsPerSecond)
}
