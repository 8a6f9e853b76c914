package report

import (
	"fmt"
	"io"
	"strings"
)

// ConsoleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type ConsoleWriter struct {
	baseWriter

	// verbose enables the full per-resource listing. Without it only
	// the run summary and failures are printed.
	verbose bool
}

// ConsoleWriterOption configures a ConsoleWriter.
type ConsoleWriterOption func(*ConsoleWriter)

// WithVerbose enables the per-resource listing.
func WithVerbose(verbose bool) ConsoleWriterOption {
	return func(w *ConsoleWriter) {
		w.verbose = verbose
	}
}

// NewConsoleWriter creates a ConsoleWriter that outputs to the given writer.
func NewConsoleWriter(output io.Writer, opts ...ConsoleWriterOption) *ConsoleWriter {
	w := &ConsoleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *ConsoleWriter) Write(report *CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	if w.verbose {
		w.writeSiteMap(&sb, report)
	}
	w.writeFailures(&sb, report)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run header.
func (w *ConsoleWriter) writeHeader(sb *strings.Builder, report *CrawlReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, " Crawl Report: %s\n", report.Seed)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, " Run ID:  %s\n", report.RunID)
	fmt.Fprintf(sb, " Started: %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, " State:   %s\n", report.State)
	sb.WriteString("\n")
}

// writeSummary writes the counter summary.
func (w *ConsoleWriter) writeSummary(sb *strings.Builder, report *CrawlReport) {
	fmt.Fprintf(sb, " Fetched:  %d\n", report.Fetched)
	fmt.Fprintf(sb, " Failed:   %d\n", report.Failed)
	fmt.Fprintf(sb, " Rejected: %d (out of scope, depth, or budget)\n", report.Rejected)
	sb.WriteString("\n")
}

// writeSiteMap writes one line per resource, indented by depth.
func (w *ConsoleWriter) writeSiteMap(sb *strings.Builder, report *CrawlReport) {
	if len(report.Resources) == 0 {
		return
	}

	sb.WriteString(" Site Map\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, res := range report.Resources {
		indent := strings.Repeat("  ", res.Depth)
		status := fmt.Sprintf("%d", res.StatusCode)
		if res.Failed {
			status = "ERR"
		}
		fmt.Fprintf(sb, " [%3s] %s%s %s\n", status, indent, res.Method, res.URL)
	}
	sb.WriteString("\n")
}

// writeFailures lists failed fetches.
func (w *ConsoleWriter) writeFailures(sb *strings.Builder, report *CrawlReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	sb.WriteString(" Failures\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	for _, res := range failures {
		fmt.Fprintf(sb, " %s: %s\n", res.URL, res.Error)
	}
	sb.WriteString("\n")
}
