package config

import "errors"

// Configuration validation errors.
// These are returned by Config.Validate() and name the specific option
// that is invalid. They are package-level sentinels so callers can use
// errors.Is() for programmatic handling while keeping human-readable
// messages.
var (
	// ErrNoSeed is returned when no seed URL is specified.
	// A crawl has nothing to do without at least one starting URL.
	ErrNoSeed = errors.New("no seed specified: provide one or more starting URLs")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// Use 0 to crawl only the seeds themselves.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxChildren is returned when the per-page child limit
	// is not positive. A limit of zero would prune every discovery.
	ErrInvalidMaxChildren = errors.New("invalid max children: must be positive")

	// ErrInvalidConcurrency is returned when the worker count is not
	// positive. Zero workers would mean no crawling at all.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the page cap is not positive.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidTimeout is returned when the per-fetch timeout is not
	// positive. A zero timeout would fail every fetch immediately.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	// Use 0 for no delay between requests.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidScopePattern is returned when an include or exclude glob
	// in the scope file does not compile.
	ErrInvalidScopePattern = errors.New("invalid scope pattern")
)
