package report

import (
	"io"
	"time"

	"github.com/nao1215/webspider/internal/model"
)

// CrawlReport aggregates one run for output: the run's identity and
// counters plus every resource it recorded.
type CrawlReport struct {
	// RunID is the run identifier.
	RunID string `json:"run_id"`

	// Seed is the first seed URL of the run.
	Seed string `json:"seed"`

	// State is the terminal state of the run.
	State string `json:"state"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run reached a terminal state.
	FinishedAt time.Time `json:"finished_at"`

	// Fetched, Failed, and Rejected are the final run counters.
	Fetched  int `json:"fetched"`
	Failed   int `json:"failed"`
	Rejected int `json:"rejected"`

	// MaxDepth is the configured depth limit.
	MaxDepth int `json:"max_depth"`

	// Resources are the recorded fetches, ordered by depth then URL.
	Resources []*model.Resource `json:"resources"`
}

// NewCrawlReport builds a report from a final snapshot and the recorded
// resources.
func NewCrawlReport(snap model.Snapshot, seed string, resources []*model.Resource) *CrawlReport {
	return &CrawlReport{
		RunID:      snap.ID,
		Seed:       seed,
		State:      snap.State,
		StartedAt:  snap.StartedAt,
		FinishedAt: time.Now(),
		Fetched:    snap.Fetched,
		Failed:     snap.Failed,
		Rejected:   snap.Rejected,
		MaxDepth:   snap.MaxDepth,
		Resources:  resources,
	}
}

// Failures returns the resources whose fetch failed.
func (r *CrawlReport) Failures() []*model.Resource {
	var failures []*model.Resource
	for _, res := range r.Resources {
		if res.Failed {
			failures = append(failures, res)
		}
	}
	return failures
}

// Writer defines the interface for report output.
// Implementations write crawl results in various formats.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files, stdout, or network
// connections with the same API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *CrawlReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
//
// Design decision: We implement this as a separate type rather than
// using io.MultiWriter because our Writer interface is different
// from io.Writer - we write reports, not raw bytes.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *CrawlReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
