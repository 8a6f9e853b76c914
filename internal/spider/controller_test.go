package spider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/model"
	"github.com/nao1215/webspider/internal/transport"
)

// fakePage describes one response served by fakeFetcher.
type fakePage struct {
	status int
	ctype  string
	body   string
}

// fakeFetcher serves canned responses keyed by URL path. Paths without
// an entry fail with a transport error. The optional gate hook runs
// before each response and lets lifecycle tests hold fetches in flight.
type fakeFetcher struct {
	pages map[string]fakePage
	gate  func(path string)

	mu    sync.Mutex
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, req *transport.Request) (*transport.Response, error) {
	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}

	if f.gate != nil {
		f.gate(u.Path)
	}

	f.mu.Lock()
	f.calls = append(f.calls, u.Path)
	f.mu.Unlock()

	page, ok := f.pages[u.Path]
	if !ok {
		return nil, fmt.Errorf("connection refused: %s", req.URL)
	}

	status := page.status
	if status == 0 {
		status = http.StatusOK
	}
	ctype := page.ctype
	if ctype == "" {
		ctype = "text/html; charset=utf-8"
	}

	return &transport.Response{
		URL:         req.URL,
		StatusCode:  status,
		Header:      http.Header{},
		Body:        []byte(page.body),
		ContentType: ctype,
	}, nil
}

// fetched returns the paths fetched so far.
func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// htmlPage builds a minimal HTML page linking to the given URLs.
func htmlPage(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range links {
		fmt.Fprintf(&b, `<a href=%q>link</a>`, l)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// collectRecorder accumulates recorded resources for assertions.
type collectRecorder struct {
	mu        sync.Mutex
	runIDs    map[string]struct{}
	resources []*model.Resource
}

func newCollectRecorder() *collectRecorder {
	return &collectRecorder{runIDs: make(map[string]struct{})}
}

func (r *collectRecorder) Record(_ context.Context, runID string, res *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runIDs[runID] = struct{}{}
	r.resources = append(r.resources, res)
	return nil
}

// newTestController wires a controller around the fake fetcher.
func newTestController(cfg *config.Config, fetcher transport.Fetcher, opts ...ControllerOption) *Controller {
	opts = append([]ControllerOption{
		WithFetcher(fetcher),
		WithLogger(discardLogger()),
	}, opts...)
	return NewController(cfg, opts...)
}

// runToCompletion starts the controller and waits for a terminal state.
func runToCompletion(t *testing.T, c *Controller) model.Snapshot {
	t.Helper()

	if _, err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	return c.Status()
}

// TestControllerCrawl tests full crawl runs against a canned site.
func TestControllerCrawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls the reachable site to completion", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/":  {body: htmlPage("/a", "/b")},
			"/a": {body: htmlPage("/b", "/a", "/c")},
			"/b": {body: htmlPage()},
			"/c": {body: htmlPage()},
		}}
		cfg := seededConfig("http://t/")

		snap := runToCompletion(t, newTestController(cfg, fetcher))

		if snap.State != "completed" {
			t.Errorf("state = %q, want completed", snap.State)
		}
		if snap.Fetched != 4 {
			t.Errorf("fetched = %d, want 4", snap.Fetched)
		}
		if snap.Failed != 0 || snap.Rejected != 0 {
			t.Errorf("failed = %d, rejected = %d, want 0/0", snap.Failed, snap.Rejected)
		}
		if snap.Queued != 0 || snap.InFlight != 0 {
			t.Errorf("queued = %d, in-flight = %d after completion", snap.Queued, snap.InFlight)
		}
	})

	t.Run("respects the depth limit", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/":  {body: htmlPage("/a")},
			"/a": {body: htmlPage("/b")},
			"/b": {body: htmlPage()},
		}}
		cfg := seededConfig("http://t/")
		cfg.MaxDepth = 1

		snap := runToCompletion(t, newTestController(cfg, fetcher))

		if snap.Fetched != 2 {
			t.Errorf("fetched = %d, want 2 (seed plus one level)", snap.Fetched)
		}
		if snap.Rejected != 1 {
			t.Errorf("rejected = %d, want 1 (the depth-2 candidate)", snap.Rejected)
		}
		for _, path := range fetcher.fetched() {
			if path == "/b" {
				t.Error("/b is beyond the depth limit and should not be fetched")
			}
		}
	})

	t.Run("excluded paths are never fetched", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/":            {body: htmlPage("/admin/panel", "/public")},
			"/admin/panel": {body: htmlPage()},
			"/public":      {body: htmlPage()},
		}}
		cfg := seededConfig("http://t/")
		cfg.Scope = &config.File{
			Defaults: config.TargetConfig{Exclude: []string{"/admin/*"}},
		}

		snap := runToCompletion(t, newTestController(cfg, fetcher))

		if snap.Fetched != 2 {
			t.Errorf("fetched = %d, want 2", snap.Fetched)
		}
		if snap.Rejected != 1 {
			t.Errorf("rejected = %d, want 1", snap.Rejected)
		}
		for _, path := range fetcher.fetched() {
			if strings.HasPrefix(path, "/admin/") {
				t.Errorf("excluded path %q was fetched", path)
			}
		}
	})

	t.Run("fetch failures are counted and the crawl continues", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/":   {body: htmlPage("/down", "/ok")},
			"/ok": {body: htmlPage()},
			// /down has no entry: the fetch fails.
		}}
		cfg := seededConfig("http://t/")
		recorder := newCollectRecorder()

		snap := runToCompletion(t, newTestController(cfg, fetcher, WithRecorder(recorder)))

		if snap.State != "completed" {
			t.Errorf("state = %q, want completed", snap.State)
		}
		if snap.Fetched != 2 {
			t.Errorf("fetched = %d, want 2", snap.Fetched)
		}
		if snap.Failed != 1 {
			t.Errorf("failed = %d, want 1", snap.Failed)
		}

		var failure *model.Resource
		for _, res := range recorder.resources {
			if res.Failed {
				failure = res
			}
		}
		if failure == nil {
			t.Fatal("failed task should still be recorded")
		}
		if failure.URL != "http://t/down" || failure.Error == "" {
			t.Errorf("failure resource = %+v", failure)
		}
	})

	t.Run("robots and sitemap feed the crawl", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/robots.txt": {
				ctype: "text/plain",
				body:  "User-agent: *\nDisallow: /private/\nSitemap: http://t/sitemap.xml\n",
			},
			"/sitemap.xml": {
				ctype: "application/xml",
				body: `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` +
					`<url><loc>http://t/from-sitemap</loc></url></urlset>`,
			},
			"/private/":     {body: htmlPage()},
			"/from-sitemap": {body: htmlPage()},
		}}
		cfg := seededConfig("http://t/robots.txt")

		snap := runToCompletion(t, newTestController(cfg, fetcher))

		if snap.Fetched != 4 {
			t.Errorf("fetched = %d, want 4: %v", snap.Fetched, fetcher.fetched())
		}
	})

	t.Run("one resource event per completed task", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/":  {body: htmlPage("/a", "/gone")},
			"/a": {body: htmlPage()},
		}}
		cfg := seededConfig("http://t/")
		recorder := newCollectRecorder()

		snap := runToCompletion(t, newTestController(cfg, fetcher, WithRecorder(recorder)))

		want := snap.Fetched + snap.Failed
		if len(recorder.resources) != want {
			t.Errorf("recorded %d resources, want %d", len(recorder.resources), want)
		}
		if len(recorder.runIDs) != 1 {
			t.Errorf("resources span %d run IDs, want 1", len(recorder.runIDs))
		}
	})
}

// TestControllerLifecycle tests the state machine transitions.
func TestControllerLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("configuration errors keep the run idle", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig() // no seeds
		c := newTestController(cfg, &fakeFetcher{})

		if _, err := c.Start(context.Background()); !errors.Is(err, config.ErrNoSeed) {
			t.Errorf("Start() error = %v, want ErrNoSeed", err)
		}
		if got := c.Status().State; got != "idle" {
			t.Errorf("state = %q, want idle", got)
		}
	})

	t.Run("lifecycle operations before start", func(t *testing.T) {
		t.Parallel()

		c := newTestController(seededConfig("http://t/"), &fakeFetcher{})

		if err := c.Pause(); !errors.Is(err, ErrNotStarted) {
			t.Errorf("Pause() error = %v, want ErrNotStarted", err)
		}
		if err := c.Stop(); !errors.Is(err, ErrNotStarted) {
			t.Errorf("Stop() error = %v, want ErrNotStarted", err)
		}
		if err := c.Wait(context.Background()); !errors.Is(err, ErrNotStarted) {
			t.Errorf("Wait() error = %v, want ErrNotStarted", err)
		}
	})

	t.Run("pause and resume around an in-flight fetch", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{}, 1)
		release := make(chan struct{})
		fetcher := &fakeFetcher{
			pages: map[string]fakePage{"/": {body: htmlPage()}},
			gate: func(string) {
				started <- struct{}{}
				<-release
			},
		}
		cfg := seededConfig("http://t/")
		cfg.Concurrency = 1
		c := newTestController(cfg, fetcher)

		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		<-started

		if err := c.Pause(); err != nil {
			t.Fatalf("Pause() error = %v", err)
		}
		if got := c.Status().State; got != "paused" {
			t.Errorf("state = %q, want paused", got)
		}
		if err := c.Pause(); !errors.Is(err, ErrNotRunning) {
			t.Errorf("second Pause() error = %v, want ErrNotRunning", err)
		}

		if err := c.Resume(); err != nil {
			t.Fatalf("Resume() error = %v", err)
		}
		if err := c.Resume(); !errors.Is(err, ErrNotPaused) {
			t.Errorf("second Resume() error = %v, want ErrNotPaused", err)
		}

		close(release)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if got := c.Status().State; got != "completed" {
			t.Errorf("state = %q, want completed", got)
		}
	})

	t.Run("pause racing natural completion cannot mask the terminal state", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{
			"/":  {body: htmlPage("/a", "/b")},
			"/a": {body: htmlPage()},
			"/b": {body: htmlPage()},
		}}
		c := newTestController(seededConfig("http://t/"), fetcher)

		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}

		// Hammer the control surface while the pool drains. Once the
		// run is terminal, Pause must keep failing with ErrNotRunning
		// instead of overwriting the completed state.
		hammerDone := make(chan struct{})
		go func() {
			defer close(hammerDone)
			for {
				if err := c.Pause(); errors.Is(err, ErrNotRunning) {
					return
				}
				_ = c.Resume()
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		<-hammerDone

		if got := c.Status().State; got != "completed" {
			t.Errorf("state = %q, want completed", got)
		}
		if err := c.Pause(); !errors.Is(err, ErrNotRunning) {
			t.Errorf("Pause() after completion error = %v, want ErrNotRunning", err)
		}
		if err := c.Resume(); !errors.Is(err, ErrNotPaused) {
			t.Errorf("Resume() after completion error = %v, want ErrNotPaused", err)
		}
		if err := c.Stop(); !errors.Is(err, ErrAlreadyFinished) {
			t.Errorf("Stop() after completion error = %v, want ErrAlreadyFinished", err)
		}
	})

	t.Run("stop discards queued tasks but finishes in-flight work", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		calls := 0
		started := make(chan struct{}, 1)
		release := make(chan struct{})
		fetcher := &fakeFetcher{
			pages: map[string]fakePage{
				"/":  {body: htmlPage("/1", "/2", "/3", "/4", "/5")},
				"/1": {body: htmlPage()},
				"/2": {body: htmlPage()},
				"/3": {body: htmlPage()},
				"/4": {body: htmlPage()},
				"/5": {body: htmlPage()},
			},
			gate: func(string) {
				mu.Lock()
				calls++
				second := calls == 2
				mu.Unlock()
				if second {
					started <- struct{}{}
					<-release
				}
			},
		}
		cfg := seededConfig("http://t/")
		cfg.Concurrency = 1
		c := newTestController(cfg, fetcher)

		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		<-started // the second fetch is in flight; four tasks are queued

		if err := c.Stop(); err != nil {
			t.Fatalf("Stop() error = %v", err)
		}
		close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}

		snap := c.Status()
		if snap.State != "stopped" {
			t.Errorf("state = %q, want stopped", snap.State)
		}
		if snap.Fetched != 2 {
			t.Errorf("fetched = %d, want 2 (seed plus the in-flight task)", snap.Fetched)
		}
		if err := c.Stop(); !errors.Is(err, ErrAlreadyFinished) {
			t.Errorf("Stop() after stop error = %v, want ErrAlreadyFinished", err)
		}
	})

	t.Run("start while running is rejected", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{}, 1)
		release := make(chan struct{})
		fetcher := &fakeFetcher{
			pages: map[string]fakePage{"/": {body: htmlPage()}},
			gate: func(string) {
				started <- struct{}{}
				<-release
			},
		}
		cfg := seededConfig("http://t/")
		cfg.Concurrency = 1
		c := newTestController(cfg, fetcher)

		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		<-started

		if _, err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
			t.Errorf("Start() while running error = %v, want ErrAlreadyRunning", err)
		}

		close(release)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	})

	t.Run("restart after completion starts a fresh run", func(t *testing.T) {
		t.Parallel()

		fetcher := &fakeFetcher{pages: map[string]fakePage{"/": {body: htmlPage("/x")}, "/x": {body: htmlPage()}}}
		c := newTestController(seededConfig("http://t/"), fetcher)

		first := runToCompletion(t, c)

		if _, err := c.Start(context.Background()); err != nil {
			t.Fatalf("restart error = %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		second := c.Status()

		if first.ID == second.ID {
			t.Error("a restart must produce a new run ID")
		}
		if second.Fetched != first.Fetched {
			t.Errorf("fresh run fetched = %d, want %d (visited set must not leak)", second.Fetched, first.Fetched)
		}
	})

	t.Run("context cancellation stops the run", func(t *testing.T) {
		t.Parallel()

		started := make(chan struct{}, 1)
		release := make(chan struct{})
		fetcher := &fakeFetcher{
			pages: map[string]fakePage{
				"/":  {body: htmlPage("/1", "/2")},
				"/1": {body: htmlPage()},
				"/2": {body: htmlPage()},
			},
			gate: func(path string) {
				if path == "/1" || path == "/2" {
					select {
					case started <- struct{}{}:
					default:
					}
					<-release
				}
			},
		}
		cfg := seededConfig("http://t/")
		cfg.Concurrency = 1
		c := newTestController(cfg, fetcher)

		ctx, cancel := context.WithCancel(context.Background())
		if _, err := c.Start(ctx); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		<-started
		cancel()
		close(release)

		waitCtx, waitCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer waitCancel()
		if err := c.Wait(waitCtx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
		if got := c.Status().State; got != "stopped" {
			t.Errorf("state = %q, want stopped", got)
		}
	})
}
