package spider

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/model"
	"github.com/nao1215/webspider/internal/parser"
	"github.com/nao1215/webspider/internal/transport"
)

// scheduler runs the worker pool. Each worker loops: take a task from
// the frontier, fetch it, run the parser registry over the response,
// offer every extracted candidate back to the frontier, and emit one
// resource event. The pool exits when the frontier reports the crawl
// is over.
type scheduler struct {
	cfg      *config.Config
	frontier *Frontier
	scope    *Scope
	fetcher  transport.Fetcher
	registry *parser.Registry
	values   parser.ValueProvider
	recorder Recorder
	run      *model.CrawlRun
	logger   *slog.Logger
}

func newScheduler(cfg *config.Config, frontier *Frontier, scope *Scope, fetcher transport.Fetcher,
	registry *parser.Registry, values parser.ValueProvider, recorder Recorder,
	run *model.CrawlRun, logger *slog.Logger) *scheduler {
	return &scheduler{
		cfg:      cfg,
		frontier: frontier,
		scope:    scope,
		fetcher:  fetcher,
		registry: registry,
		values:   values,
		recorder: recorder,
		run:      run,
		logger:   logger,
	}
}

// runWorkers blocks until every worker has exited.
func (s *scheduler) runWorkers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Concurrency; i++ {
		g.Go(func() error {
			return s.worker(ctx)
		})
	}
	return g.Wait()
}

// worker is the per-goroutine crawl loop.
// Pausing happens inside Take, never inside a task: a pause lets
// in-flight fetches finish and holds workers before the next dispatch.
func (s *scheduler) worker(ctx context.Context) error {
	for {
		task, ok := s.frontier.Take()
		if !ok {
			return nil
		}

		if ctx.Err() != nil {
			s.frontier.MarkDone()
			return ctx.Err()
		}

		s.process(ctx, task)
		s.frontier.MarkDone()
	}
}

// process handles one task end to end.
// A fetch error marks the task failed and moves on; there is no retry.
// Retrying inside the run would reorder the breadth-first queue for a
// URL that is most likely still down; a later run retries naturally.
func (s *scheduler) process(ctx context.Context, task model.FetchTask) {
	res := &model.Resource{
		URL:    task.URL,
		Method: task.Method,
		Depth:  task.Depth,
	}

	resp, err := s.fetcher.Fetch(ctx, s.buildRequest(&task))
	res.FetchedAt = time.Now()
	if err != nil {
		res.Failed = true
		res.Error = err.Error()
		s.run.AddFailed()
		s.logger.Warn("fetch failed", "url", task.URL, "depth", task.Depth, "error", err)
		s.record(ctx, res)
		return
	}

	res.StatusCode = resp.StatusCode
	res.ContentType = resp.ContentType
	res.HashBody(resp.Body)
	s.run.AddFetched()

	pctx, err := parser.NewContext(s.cfg, s.values, task.Identity, resp, task.Depth)
	if err != nil {
		s.logger.Warn("parse context failed", "url", task.URL, "error", err)
		s.record(ctx, res)
		return
	}

	result := s.registry.Parse(pctx)
	res.Title = pctx.Title()
	res.Candidates = result.Candidates

	accepted := 0
	for _, c := range result.Candidates {
		if s.frontier.Offer(&task, c) {
			accepted++
		}
	}

	s.logger.Debug("task done",
		"url", task.URL,
		"status", resp.StatusCode,
		"depth", task.Depth,
		"candidates", len(result.Candidates),
		"accepted", accepted)
	s.record(ctx, res)
}

// buildRequest applies the target's cookie and header configuration.
func (s *scheduler) buildRequest(task *model.FetchTask) *transport.Request {
	req := &transport.Request{
		URL:      task.URL,
		Method:   task.Method,
		Form:     task.Form,
		Identity: task.Identity,
	}

	if u, err := url.Parse(task.URL); err == nil {
		tc := s.scope.TargetFor(u.Hostname())
		if tc.Cookie != "" || len(tc.Headers) > 0 {
			req.Header = http.Header{}
			if tc.Cookie != "" {
				req.Header.Set("Cookie", tc.Cookie)
			}
			for k, v := range tc.Headers {
				req.Header.Set(k, v)
			}
		}
	}

	return req
}

// record hands the resource to the recorder. Recorder errors never fail
// the task.
func (s *scheduler) record(ctx context.Context, res *model.Resource) {
	if err := s.recorder.Record(ctx, s.run.ID(), res); err != nil {
		s.logger.Warn("failed to record resource", "url", res.URL, "error", err)
	}
}
