package parser

import (
	"log/slog"

	"github.com/nao1215/webspider/internal/model"
)

// Parser is the capability interface implemented by every content parser.
//
// Design decision: We use an interface with an explicit CanParse check
// rather than dispatching on content type directly because:
//  1. Several parsers key on the path (robots.txt) rather than the type
//  2. Parsers can carry configuration state
//  3. The registry can treat all parsers uniformly, in priority order
type Parser interface {
	// Name returns the parser's name for logging and candidate sourcing.
	Name() string

	// CanParse reports whether this parser understands the fetched
	// message. It must be cheap; expensive work belongs in Parse.
	CanParse(pctx *Context) bool

	// Parse extracts candidates from the message. A non-nil error is
	// contained by the registry: it is logged and treated as yielding
	// no candidates, without aborting the remaining parsers.
	Parse(pctx *Context) (*Result, error)
}

// Result is the outcome of parsing one message.
type Result struct {
	// Candidates are the extracted URI candidates.
	Candidates []model.Candidate

	// StopParsing vetoes subsequent parsers for this message. Set by
	// parsers that fully own a content type, e.g. the sitemap parser
	// suppressing generic link extraction on a sitemap payload.
	StopParsing bool
}

// merge appends another result's candidates and carries its veto.
func (r *Result) merge(other *Result) {
	if other == nil {
		return
	}
	r.Candidates = append(r.Candidates, other.Candidates...)
	r.StopParsing = r.StopParsing || other.StopParsing
}

// Registry holds an ordered list of parsers and runs them against a
// message. It is constructed explicitly and owned by the crawl
// controller; there is no process-wide parser registration.
type Registry struct {
	// parsers is the ordered parser list. Registration order is
	// invocation order.
	parsers []Parser

	// logger records isolated parser failures.
	logger *slog.Logger
}

// NewRegistry creates a Registry with the given parsers in priority order.
func NewRegistry(logger *slog.Logger, parsers ...Parser) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		parsers: parsers,
		logger:  logger,
	}
}

// NewDefaultRegistry creates a Registry with the baseline parsers.
// Content-type owners run before the generic HTML and text parsers so
// their veto suppresses spurious link extraction on structured payloads.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	return NewRegistry(logger,
		NewRobotsParser(),
		NewSitemapParser(),
		NewRedirectParser(),
		NewHTMLParser(),
		NewTextParser(),
	)
}

// Register appends a parser to the registry.
// Parsers run in registration order.
func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Parse runs every applicable parser against the message and accumulates
// the extracted candidates.
//
// A parser failure is isolated: it is logged and the remaining parsers
// still run. Parsing stops early only when a parser signals StopParsing.
func (r *Registry) Parse(pctx *Context) *Result {
	result := &Result{}

	for _, p := range r.parsers {
		if !p.CanParse(pctx) {
			continue
		}

		pr, err := p.Parse(pctx)
		if err != nil {
			r.logger.Warn("parser failed",
				"parser", p.Name(),
				"url", pctx.Response().URL,
				"error", err,
			)
			continue
		}

		result.merge(pr)
		if result.StopParsing {
			r.logger.Debug("parser vetoed further parsing",
				"parser", p.Name(),
				"url", pctx.Response().URL,
			)
			break
		}
	}

	return result
}

// Names returns the registered parser names in invocation order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.parsers))
	for i, p := range r.parsers {
		names[i] = p.Name()
	}
	return names
}
