package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These are chosen to keep an unattended crawl polite and bounded while
// still discovering most of a typical application.
const (
	// DefaultMaxDepth limits how far the crawl recurses from a seed.
	// Depth 0 is the seed itself; each accepted child adds one.
	// Five levels reach most application content without chasing
	// calendar-style infinite link spaces.
	DefaultMaxDepth = 5

	// DefaultMaxChildren caps how many accepted children a single page
	// may contribute. Pages that generate unbounded links (directory
	// listings, faceted search) are pruned rather than crawled forever.
	DefaultMaxChildren = 256

	// DefaultConcurrency is the number of crawl workers. A small pool
	// keeps load on the target modest; raise it via --concurrency for
	// large sites that can take the traffic.
	DefaultConcurrency = 4

	// DefaultMaxPages caps the total pages fetched in one run.
	// This is the final guard against runaway crawls on sites that
	// defeat the depth and child limits.
	DefaultMaxPages = 1000

	// DefaultTimeout is the per-fetch timeout. A fetch that exceeds it
	// is counted as failed; the crawl continues with other tasks.
	DefaultTimeout = 20 * time.Second

	// DefaultCrawlDelay is the minimum interval between requests.
	// This is a politeness setting applied across all workers.
	DefaultCrawlDelay = 100 * time.Millisecond

	// DefaultUserAgent identifies the crawler in HTTP requests so
	// operators can recognize scanner traffic in their logs.
	DefaultUserAgent = "webspider/1.0 (+https://github.com/nao1215/webspider)"

	// DefaultMaxBodySize limits how much of a response body is read.
	// 5MB covers any realistic HTML page while bounding memory use.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// AppName is the application name used for XDG directory paths.
	AppName = "webspider"
)

// Config holds all options for a crawl run.
// It is populated from CLI flags and the optional scope file, validated
// once before the run starts, and passed through the application by
// dependency injection rather than global state.
type Config struct {
	// Seeds are the starting URLs of the crawl. At least one is required.
	Seeds []string

	// MaxDepth is the maximum recursion depth. Candidates whose depth
	// would exceed it are pruned, not errored.
	MaxDepth int

	// MaxChildren is the per-page limit on accepted children.
	MaxChildren int

	// Concurrency is the size of the crawl worker pool.
	Concurrency int

	// MaxPages caps the total number of tasks accepted in one run.
	MaxPages int

	// Timeout is the per-fetch timeout.
	Timeout time.Duration

	// CrawlDelay is the minimum interval between requests across all
	// workers. Zero disables the politeness limiter.
	CrawlDelay time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// ScopeFilePath is the path to the YAML scope file. If empty, the
	// loader searches for .webspider in the working and home directories.
	ScopeFilePath string

	// Scope holds per-target scope rules loaded from the scope file.
	// Never nil after flag parsing; an empty File means default scope
	// (same host as the seed, no exclusions).
	Scope *File

	// JSONReport enables JSON report output.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// Empty writes the report to stdout.
	ReportFile string

	// DBDir is the directory holding the SQLite crawl history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether completed runs are persisted.
	SaveToDB bool

	// Verbose enables debug-level logging.
	Verbose bool
}

// NewConfig creates a Config with default values.
// Callers override specific fields from CLI flags after creation.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		MaxChildren: DefaultMaxChildren,
		Concurrency: DefaultConcurrency,
		MaxPages:    DefaultMaxPages,
		Timeout:     DefaultTimeout,
		CrawlDelay:  DefaultCrawlDelay,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Scope:       &File{Targets: map[string]TargetConfig{}},
	}
}

// XDGDataDir returns the XDG data directory for webspider.
// On Linux: ~/.local/share/webspider
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webspider.
// On Linux: ~/.config/webspider
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It is called once after CLI parsing, before the controller leaves the
// idle state; any error here is fatal and the run never starts.
//
// The first error found is returned rather than collecting all errors,
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxChildren <= 0 {
		return ErrInvalidMaxChildren
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Scope != nil {
		if err := c.Scope.validatePatterns(); err != nil {
			return err
		}
	}

	return nil
}

// validatePatterns checks every include/exclude glob in the scope file.
func (cf *File) validatePatterns() error {
	check := func(patterns []string) error {
		for _, p := range patterns {
			if _, err := filepath.Match(p, "/"); err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidScopePattern, p)
			}
		}
		return nil
	}

	if err := check(cf.Defaults.Include); err != nil {
		return err
	}
	if err := check(cf.Defaults.Exclude); err != nil {
		return err
	}
	for _, tc := range cf.Targets {
		if err := check(tc.Include); err != nil {
			return err
		}
		if err := check(tc.Exclude); err != nil {
			return err
		}
	}
	return nil
}
