// Package jobs runs combo simulations in the background with bounded
// concurrency, progress events and cancellation.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/analysis"
	"github.com/lucianovegaallegroni-boop/SOLEMNSTATS-sub000/internal/deck"
)

var (
	// ErrJobNotFound is returned for unknown or pruned job IDs.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobFinished is returned when cancelling a job that already ended.
	ErrJobFinished = errors.New("job already finished")
	// ErrInvalidRequest is returned when a request has neither or both of a deck and cards.
	ErrInvalidRequest = errors.New("request needs either a deck id or cards")
	// ErrShuttingDown is returned by Submit once Shutdown has been called.
	ErrShuttingDown = errors.New("job manager is shutting down")
)

// State is the lifecycle state of a job.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Finished reports whether the state is terminal.
func (s State) Finished() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Event types published for job transitions.
const (
	EventQueued    = "simulation:queued"
	EventStarted   = "simulation:started"
	EventProgress  = "simulation:progress"
	EventCompleted = "simulation:completed"
	EventFailed    = "simulation:failed"
	EventCancelled = "simulation:cancelled"
)

// Runner executes simulations. *analysis.Service satisfies it.
type Runner interface {
	Simulate(ctx context.Context, deckID string, req analysis.SimulateRequest) (*analysis.SimulationResult, error)
	SimulateCards(ctx context.Context, entries []deck.Entry, req analysis.SimulateRequest) (*analysis.SimulationResult, error)
}

// Publisher receives job events, e.g. a websocket hub.
type Publisher interface {
	Publish(eventType string, data any)
}

// Request is a simulation job submission.
type Request struct {
	DeckID     string                   `json:"deck_id,omitempty"`
	Cards      []deck.Entry             `json:"cards,omitempty"`
	Simulation analysis.SimulateRequest `json:"simulation"`
}

// Progress is the number of finished trials.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Job is a snapshot of a submitted simulation.
type Job struct {
	ID         string                     `json:"id"`
	State      State                      `json:"state"`
	DeckID     string                     `json:"deck_id,omitempty"`
	Progress   Progress                   `json:"progress"`
	Result     *analysis.SimulationResult `json:"result,omitempty"`
	Error      string                     `json:"error,omitempty"`
	CreatedAt  time.Time                  `json:"created_at"`
	StartedAt  *time.Time                 `json:"started_at,omitempty"`
	FinishedAt *time.Time                 `json:"finished_at,omitempty"`
}

// Config holds manager settings.
type Config struct {
	MaxConcurrent    int
	MaxRetained      int           // finished jobs kept for polling
	ProgressInterval time.Duration // minimum spacing of progress events
}

// DefaultConfig returns the default manager settings.
func DefaultConfig() Config {
	return Config{MaxConcurrent: 2, MaxRetained: 100, ProgressInterval: 250 * time.Millisecond}
}

type job struct {
	Job
	cancel context.CancelFunc
}

// Manager tracks simulation jobs.
type Manager struct {
	runner    Runner
	publisher Publisher
	cfg       Config
	sem       *semaphore.Weighted
	logger    *zap.Logger

	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	jobs   map[string]*job
	order  []string
	closed bool
}

// NewManager creates a manager. publisher and logger may be nil.
func NewManager(runner Runner, publisher Publisher, cfg Config, logger *zap.Logger) *Manager {
	def := DefaultConfig()
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = def.MaxConcurrent
	}
	if cfg.MaxRetained <= 0 {
		cfg.MaxRetained = def.MaxRetained
	}
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = def.ProgressInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Manager{
		runner:    runner,
		publisher: publisher,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		logger:    logger.Named("jobs"),
		ctx:       ctx,
		stop:      stop,
		jobs:      make(map[string]*job),
	}
}

// Submit queues a simulation and returns its initial snapshot.
func (m *Manager) Submit(req Request) (Job, error) {
	if (req.DeckID == "") == (len(req.Cards) == 0) {
		return Job{}, ErrInvalidRequest
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Job{}, ErrShuttingDown
	}
	ctx, cancel := context.WithCancel(m.ctx)
	j := &job{
		Job: Job{
			ID:        uuid.New().String(),
			State:     StateQueued,
			DeckID:    req.DeckID,
			Progress:  Progress{Total: req.Simulation.Iterations},
			CreatedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}
	m.jobs[j.ID] = j
	m.order = append(m.order, j.ID)
	snapshot := j.Job
	m.wg.Add(1)
	m.mu.Unlock()

	m.publish(EventQueued, snapshot)
	go m.run(ctx, j.ID, req)
	return snapshot, nil
}

// Get returns a job snapshot.
func (m *Manager) Get(id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j.Job, nil
}

// List returns all retained jobs, oldest first.
func (m *Manager) List() []Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.jobs[id].Job)
	}
	return out
}

// Cancel stops a queued or running job. The job reaches StateCancelled
// asynchronously.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if j.State.Finished() {
		return fmt.Errorf("%w: %s is %s", ErrJobFinished, id, j.State)
	}
	j.cancel()
	return nil
}

// Shutdown cancels every job and waits for them to stop or ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) run(ctx context.Context, id string, req Request) {
	defer m.wg.Done()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.finish(id, nil, err)
		return
	}
	defer m.sem.Release(1)

	started := time.Now().UTC()
	snapshot, ok := m.update(id, func(j *Job) {
		j.State = StateRunning
		j.StartedAt = &started
	})
	if !ok {
		return
	}
	m.publish(EventStarted, snapshot)

	sim := req.Simulation
	sim.Progress = m.progress(id)

	var (
		result *analysis.SimulationResult
		err    error
	)
	if req.DeckID != "" {
		result, err = m.runner.Simulate(ctx, req.DeckID, sim)
	} else {
		result, err = m.runner.SimulateCards(ctx, req.Cards, sim)
	}
	m.finish(id, result, err)
}

// progress returns a callback that records progress and publishes it at
// most once per ProgressInterval, always publishing completion.
func (m *Manager) progress(id string) func(done, total int) {
	var last time.Time
	return func(done, total int) {
		snapshot, ok := m.update(id, func(j *Job) {
			j.Progress = Progress{Done: done, Total: total}
		})
		if !ok {
			return
		}
		if now := time.Now(); done == total || now.Sub(last) >= m.cfg.ProgressInterval {
			last = now
			m.publish(EventProgress, map[string]any{"id": id, "progress": snapshot.Progress})
		}
	}
}

func (m *Manager) finish(id string, result *analysis.SimulationResult, err error) {
	finished := time.Now().UTC()
	event := EventCompleted

	snapshot, ok := m.update(id, func(j *Job) {
		j.FinishedAt = &finished
		switch {
		case err == nil:
			j.State = StateCompleted
			j.Result = result
			if result != nil && result.MonteCarlo != nil {
				j.Progress = Progress{Done: result.MonteCarlo.Iterations, Total: result.MonteCarlo.Iterations}
			}
		case errors.Is(err, context.Canceled):
			j.State = StateCancelled
			j.Error = err.Error()
			event = EventCancelled
		default:
			j.State = StateFailed
			j.Error = err.Error()
			event = EventFailed
		}
	})
	if !ok {
		return
	}

	m.mu.Lock()
	if j, ok := m.jobs[id]; ok {
		j.cancel()
	}
	m.prune()
	m.mu.Unlock()

	if err != nil && event == EventFailed {
		m.logger.Warn("simulation job failed", zap.String("job_id", id), zap.Error(err))
	} else {
		m.logger.Debug("simulation job finished", zap.String("job_id", id), zap.String("state", string(snapshot.State)))
	}
	m.publish(event, snapshot)
}

// prune drops the oldest finished jobs beyond MaxRetained. m.mu must be held.
func (m *Manager) prune() {
	finished := 0
	for _, id := range m.order {
		if m.jobs[id].State.Finished() {
			finished++
		}
	}
	if finished <= m.cfg.MaxRetained {
		return
	}

	drop := finished - m.cfg.MaxRetained
	kept := m.order[:0]
	for _, id := range m.order {
		if drop > 0 && m.jobs[id].State.Finished() {
			delete(m.jobs, id)
			drop--
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
}

func (m *Manager) update(id string, fn func(*Job)) (Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	fn(&j.Job)
	return j.Job, true
}

func (m *Manager) publish(eventType string, data any) {
	if m.publisher != nil {
		m.publisher.Publish(eventType, data)
	}
}
