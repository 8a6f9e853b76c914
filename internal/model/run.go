package model

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunState represents the lifecycle state of a crawl run.
//
// The state machine is:
//
//	Idle -> Running -> {Paused <-> Running} -> {Completed | Stopped}
//
// Completed (frontier drained naturally) and Stopped (external stop
// request) are terminal. A new run always starts from a fresh CrawlRun so
// visited-set state never leaks between runs.
type RunState int

// Crawl run states in lifecycle order.
const (
	// StateIdle is the initial state before a run starts.
	StateIdle RunState = iota

	// StateRunning indicates workers are actively fetching.
	StateRunning

	// StatePaused indicates workers finished their current task and are
	// blocked before taking the next one. Frontier state is preserved.
	StatePaused

	// StateCompleted indicates the frontier drained naturally.
	StateCompleted

	// StateStopped indicates an external stop request ended the run.
	StateStopped
)

// String returns the human-readable state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state is terminal.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateStopped
}

// CrawlRun tracks the counters and configuration of a single crawl run.
// One instance exists per controller lifetime; it is mutated by the
// controller and the scheduler under its internal mutex and read through
// Snapshot by the status surface.
type CrawlRun struct {
	mu sync.Mutex

	// id uniquely identifies the run. It doubles as the run handle
	// returned by the control surface and the database key.
	id string

	state     RunState
	startedAt time.Time

	fetched  int
	failed   int
	queued   int
	inFlight int
	rejected int

	maxDepth    int
	concurrency int
}

// NewCrawlRun creates a fresh CrawlRun in the idle state.
func NewCrawlRun(maxDepth, concurrency int) *CrawlRun {
	return &CrawlRun{
		id:          uuid.NewString(),
		state:       StateIdle,
		maxDepth:    maxDepth,
		concurrency: concurrency,
	}
}

// ID returns the run identifier.
func (r *CrawlRun) ID() string {
	return r.id
}

// SetState transitions the run to the given state.
// Transition validity is enforced by the controller, not here.
func (r *CrawlRun) SetState(s RunState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s == StateRunning && r.startedAt.IsZero() {
		r.startedAt = time.Now()
	}
	r.state = s
}

// State returns the current run state.
func (r *CrawlRun) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// AddFetched increments the fetched counter.
func (r *CrawlRun) AddFetched() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetched++
}

// AddFailed increments the failed counter.
func (r *CrawlRun) AddFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed++
}

// AddRejected increments the rejected-by-scope counter.
// Rejections are expected pruning outcomes, never failures.
func (r *CrawlRun) AddRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

// SetQueueDepth records the current frontier queue length and in-flight
// count. The frontier calls this under its own lock so the counters stay
// consistent with the queue at every observation point.
func (r *CrawlRun) SetQueueDepth(queued, inFlight int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = queued
	r.inFlight = inFlight
}

// Snapshot is a point-in-time copy of a run's state and counters.
type Snapshot struct {
	// ID is the run identifier.
	ID string `json:"id"`

	// State is the run state at snapshot time.
	State string `json:"state"`

	// StartedAt is when the run entered the running state.
	// Zero if the run never started.
	StartedAt time.Time `json:"started_at"`

	// Fetched is the number of tasks fetched and parsed successfully.
	Fetched int `json:"fetched"`

	// Failed is the number of tasks whose fetch failed or timed out.
	Failed int `json:"failed"`

	// Queued is the number of tasks waiting in the frontier.
	Queued int `json:"queued"`

	// InFlight is the number of tasks currently being processed.
	InFlight int `json:"in_flight"`

	// Rejected is the number of candidates pruned by scope, depth, or
	// child limits.
	Rejected int `json:"rejected"`

	// MaxDepth is the configured depth limit for the run.
	MaxDepth int `json:"max_depth"`

	// Concurrency is the configured worker count for the run.
	Concurrency int `json:"concurrency"`
}

// Snapshot returns a consistent copy of the run counters.
func (r *CrawlRun) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		ID:          r.id,
		State:       r.state.String(),
		StartedAt:   r.startedAt,
		Fetched:     r.fetched,
		Failed:      r.failed,
		Queued:      r.queued,
		InFlight:    r.inFlight,
		Rejected:    r.rejected,
		MaxDepth:    r.maxDepth,
		Concurrency: r.concurrency,
	}
}
