package spider

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/model"
	"github.com/nao1215/webspider/internal/parser"
	"github.com/nao1215/webspider/internal/transport"
)

// Controller owns the crawl lifecycle. It validates configuration,
// seeds the frontier, starts the worker pool, and exposes the control
// surface: start, pause, resume, stop, and status.
//
// The lifecycle is:
//
//	Start -> running -> {Pause <-> Resume} -> {completed | Stop -> stopped}
//
// Invalid transitions return sentinel errors instead of corrupting the
// run. Each Start builds a fresh CrawlRun and frontier, so visited-set
// state never leaks between runs.
type Controller struct {
	cfg      *config.Config
	logger   *slog.Logger
	fetcher  transport.Fetcher
	registry *parser.Registry
	values   parser.ValueProvider
	recorder Recorder

	// mu makes every state check-and-transition atomic, including the
	// background transition to a terminal state when the pool drains.
	// Without it, Pause racing natural completion could overwrite a
	// terminal state.
	mu            sync.Mutex
	run           *model.CrawlRun
	frontier      *Frontier
	done          chan struct{}
	stopRequested bool
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithFetcher replaces the HTTP fetcher. Tests substitute fakes here.
func WithFetcher(f transport.Fetcher) ControllerOption {
	return func(c *Controller) {
		c.fetcher = f
	}
}

// WithRegistry replaces the parser registry.
func WithRegistry(r *parser.Registry) ControllerOption {
	return func(c *Controller) {
		c.registry = r
	}
}

// WithValueProvider replaces the form value provider.
func WithValueProvider(v parser.ValueProvider) ControllerOption {
	return func(c *Controller) {
		c.values = v
	}
}

// WithRecorder sets the resource recorder for persistence.
func WithRecorder(r Recorder) ControllerOption {
	return func(c *Controller) {
		c.recorder = r
	}
}

// NewController creates a Controller for the given configuration.
// Missing collaborators default to the production implementations:
// a transport.Client built from the config, the default parser
// registry, the deterministic form value provider, and a recorder
// that discards events.
func NewController(cfg *config.Config, opts ...ControllerOption) *Controller {
	c := &Controller{cfg: cfg}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.fetcher == nil {
		c.fetcher = transport.NewClient(
			transport.WithTimeout(cfg.Timeout),
			transport.WithUserAgent(cfg.UserAgent),
			transport.WithMaxBodySize(cfg.MaxBodySize),
			transport.WithCrawlDelay(cfg.CrawlDelay),
		)
	}
	if c.registry == nil {
		c.registry = parser.NewDefaultRegistry(c.logger)
	}
	if c.values == nil {
		c.values = parser.DefaultValueProvider{}
	}
	if c.recorder == nil {
		c.recorder = NopRecorder{}
	}

	return c
}

// Start validates the configuration, seeds the frontier, and launches
// the worker pool. It returns the run identifier immediately; the crawl
// proceeds in the background until Wait observes completion.
//
// A configuration error is fatal: the run never leaves the idle state.
func (c *Controller) Start(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run != nil && !c.run.State().Terminal() {
		return "", ErrAlreadyRunning
	}

	if err := c.cfg.Validate(); err != nil {
		return "", err
	}

	scope, err := NewScope(c.cfg)
	if err != nil {
		return "", err
	}

	run := model.NewCrawlRun(c.cfg.MaxDepth, c.cfg.Concurrency)
	frontier := NewFrontier(scope, run, c.cfg.MaxPages, c.logger)

	seeded := false
	for _, seed := range c.cfg.Seeds {
		identity := model.Identity{}
		if u, err := url.Parse(seed); err == nil {
			identity = scope.IdentityFor(u.Hostname())
		}
		if frontier.OfferSeed(seed, identity) {
			seeded = true
		} else {
			c.logger.Warn("seed rejected", "url", seed)
		}
	}
	if !seeded {
		return "", ErrNoSeedAccepted
	}

	sched := newScheduler(c.cfg, frontier, scope, c.fetcher, c.registry, c.values, c.recorder, run, c.logger)

	c.run = run
	c.frontier = frontier
	c.done = make(chan struct{})
	c.stopRequested = false

	run.SetState(model.StateRunning)
	c.logger.Info("crawl started",
		"run_id", run.ID(),
		"seeds", len(c.cfg.Seeds),
		"max_depth", c.cfg.MaxDepth,
		"concurrency", c.cfg.Concurrency)

	go c.runCrawl(ctx, sched)

	return run.ID(), nil
}

// runCrawl drives the worker pool to completion in the background.
// The run and frontier are captured at launch so a restart replacing
// the controller's fields never redirects this crawl's bookkeeping.
func (c *Controller) runCrawl(ctx context.Context, sched *scheduler) {
	run := c.run
	frontier := c.frontier
	defer close(c.done)

	// Workers blocked in Take do not observe context cancellation on
	// their own; translate it into a frontier close.
	watcherDone := make(chan struct{})
	defer close(watcherDone)
	go func() {
		select {
		case <-ctx.Done():
			frontier.Close()
		case <-watcherDone:
		}
	}()

	err := sched.runWorkers(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("worker pool exited with error", "error", err)
	}

	c.mu.Lock()
	if c.stopRequested || ctx.Err() != nil {
		run.SetState(model.StateStopped)
	} else {
		run.SetState(model.StateCompleted)
	}
	c.mu.Unlock()

	snap := run.Snapshot()
	c.logger.Info("crawl finished",
		"run_id", snap.ID,
		"state", snap.State,
		"fetched", snap.Fetched,
		"failed", snap.Failed,
		"rejected", snap.Rejected)
}

// Pause holds workers before their next dispatch. In-flight fetches
// finish; frontier state is fully preserved.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run == nil {
		return ErrNotStarted
	}
	if c.run.State() != model.StateRunning {
		return ErrNotRunning
	}

	c.frontier.SetPaused(true)
	c.run.SetState(model.StatePaused)
	c.logger.Info("crawl paused", "run_id", c.run.ID())
	return nil
}

// Resume releases paused workers. A crawl whose frontier drained during
// the pause completes immediately after resuming.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run == nil {
		return ErrNotStarted
	}
	if c.run.State() != model.StatePaused {
		return ErrNotPaused
	}

	c.run.SetState(model.StateRunning)
	c.frontier.SetPaused(false)
	c.logger.Info("crawl resumed", "run_id", c.run.ID())
	return nil
}

// Stop requests a graceful shutdown: queued tasks are discarded,
// in-flight tasks complete and their resources are recorded, then the
// run transitions to stopped. Stop is valid from running or paused.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.run == nil {
		return ErrNotStarted
	}
	if c.run.State().Terminal() {
		return ErrAlreadyFinished
	}

	c.stopRequested = true
	c.frontier.Close()
	c.frontier.SetPaused(false)
	c.logger.Info("crawl stopping", "run_id", c.run.ID())
	return nil
}

// Status returns a point-in-time snapshot of the run.
func (c *Controller) Status() model.Snapshot {
	c.mu.Lock()
	run := c.run
	c.mu.Unlock()

	if run == nil {
		return model.Snapshot{State: model.StateIdle.String()}
	}
	return run.Snapshot()
}

// Wait blocks until the crawl reaches a terminal state or the context
// is cancelled.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return ErrNotStarted
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
