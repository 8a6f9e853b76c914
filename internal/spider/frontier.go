package spider

import (
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"github.com/nao1215/webspider/internal/model"
)

// Frontier is the crawl's work queue. It owns admission: every
// candidate passes scope, depth, budget, and deduplication checks
// before it becomes a task, and each accepted task is dispatched to
// exactly one worker.
//
// The queue is FIFO, which combined with depth bookkeeping yields a
// breadth-first crawl: all depth-n tasks drain before depth-n+1 tasks
// run in volume.
//
// Design decision: Admission and deduplication live in one place,
// under one mutex, because:
//  1. Offer must be atomic - two workers offering the same canonical
//     key concurrently must admit exactly one task
//  2. The drain condition (queue empty and nothing in flight) is only
//     observable when both counters move under the same lock
//  3. Parsers and workers stay free of crawl-state concerns
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	// queue holds admitted tasks in FIFO order.
	queue []model.FetchTask

	// visited maps canonical keys to their admission. Entries are added
	// on admission, not on completion, so re-offers of an in-flight or
	// queued URL are dropped too.
	visited map[string]struct{}

	// inFlight counts tasks taken by workers and not yet marked done.
	inFlight int

	// accepted counts all admitted tasks, checked against maxPages.
	accepted int

	// maxPages is the total task budget for the run.
	maxPages int

	// closed stops admission and dispatch after a stop request.
	closed bool

	// paused holds workers in Take without dispatching. Admission stays
	// open so in-flight tasks can still offer their candidates.
	paused bool

	scope  *Scope
	run    *model.CrawlRun
	logger *slog.Logger
}

// NewFrontier creates an empty frontier for one run.
func NewFrontier(scope *Scope, run *model.CrawlRun, maxPages int, logger *slog.Logger) *Frontier {
	f := &Frontier{
		queue:    make([]model.FetchTask, 0),
		visited:  make(map[string]struct{}),
		maxPages: maxPages,
		scope:    scope,
		run:      run,
		logger:   logger,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// OfferSeed admits a seed URL at depth zero.
// Seeds bypass the per-parent child limit but not scope, budget, or
// deduplication.
func (f *Frontier) OfferSeed(rawURL string, identity model.Identity) bool {
	return f.offer(model.Candidate{URL: rawURL, Method: http.MethodGet}, 0, identity, "")
}

// Offer evaluates a candidate discovered on the parent task and admits
// it at the parent's depth plus one. It returns true only when the
// candidate became a queued task.
//
// Rejections are expected pruning outcomes: scope, depth, budget, and
// child-limit rejections increment the rejected counter; duplicates are
// dropped silently because re-discovering a known URL is the normal
// case on any site with shared navigation.
func (f *Frontier) Offer(parent *model.FetchTask, c model.Candidate) bool {
	parentKey, err := Canonicalize(parent.URL, parent.Method)
	if err != nil {
		parentKey = parent.URL
	}
	return f.offer(c, parent.Depth+1, parent.Identity, parentKey)
}

func (f *Frontier) offer(c model.Candidate, depth int, identity model.Identity, parentKey string) bool {
	u, err := url.Parse(c.URL)
	if err != nil {
		f.logger.Debug("dropping malformed candidate", "url", c.URL, "error", err)
		return false
	}

	if !f.scope.Contains(u) {
		f.reject("out of scope", c)
		return false
	}
	if !f.scope.WithinDepth(depth, u.Hostname()) {
		f.reject("depth limit", c)
		return false
	}

	key, err := Canonicalize(c.URL, c.Method)
	if err != nil {
		f.logger.Debug("dropping candidate", "url", c.URL, "error", err)
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	if _, ok := f.visited[key]; ok {
		return false
	}
	if f.accepted >= f.maxPages {
		f.reject("page budget", c)
		return false
	}
	if !f.scope.AllowChild(parentKey) {
		f.reject("child limit", c)
		return false
	}

	method := c.Method
	if method == "" {
		method = http.MethodGet
	}

	f.visited[key] = struct{}{}
	f.accepted++
	f.queue = append(f.queue, model.FetchTask{
		URL:      c.URL,
		Method:   method,
		Form:     c.Form,
		Depth:    depth,
		Identity: identity,
		Source:   c.Source,
	})
	f.run.SetQueueDepth(len(f.queue), f.inFlight)
	f.cond.Signal()
	return true
}

// reject records one pruned candidate.
func (f *Frontier) reject(reason string, c model.Candidate) {
	f.logger.Debug("candidate rejected", "reason", reason, "url", c.URL)
	f.run.AddRejected()
}

// Take blocks until a task is available and returns it. It returns
// ok=false when the crawl is over: either the frontier was closed by a
// stop request, or the queue drained with no task in flight.
//
// While paused, Take blocks even with a non-empty queue; a drain that
// becomes observable during a pause is reported after resume. A worker
// must call MarkDone for every task it takes; the in-flight count is
// what lets Take distinguish "queue momentarily empty" from "crawl
// finished".
func (f *Frontier) Take() (model.FetchTask, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return model.FetchTask{}, false
		}
		if !f.paused {
			if len(f.queue) > 0 {
				break
			}
			if f.inFlight == 0 {
				return model.FetchTask{}, false
			}
		}
		f.cond.Wait()
	}

	task := f.queue[0]
	f.queue = f.queue[1:]
	f.inFlight++
	f.run.SetQueueDepth(len(f.queue), f.inFlight)
	return task, true
}

// MarkDone releases the in-flight slot of a taken task.
// When the last in-flight task completes against an empty queue, every
// blocked worker is woken so it can observe the drain and exit.
func (f *Frontier) MarkDone() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inFlight--
	f.run.SetQueueDepth(len(f.queue), f.inFlight)
	if len(f.queue) == 0 && f.inFlight == 0 {
		f.cond.Broadcast()
	}
}

// Close stops admission and dispatch. Queued tasks are never
// dispatched after Close; in-flight tasks finish normally.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.cond.Broadcast()
}

// SetPaused pauses or resumes dispatch. Frontier state is fully
// preserved across a pause.
func (f *Frontier) SetPaused(paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.paused = paused
	f.cond.Broadcast()
}

// Visited reports whether the URL/method pair was already admitted.
func (f *Frontier) Visited(rawURL, method string) bool {
	key, err := Canonicalize(rawURL, method)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[key]
	return ok
}

// QueueLen returns the number of queued tasks.
func (f *Frontier) QueueLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
