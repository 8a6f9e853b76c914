package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeSiteMap(md, report)
	w.writeFailures(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *CrawlReport) {
	md.H1("Webspider Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed", "`" + report.Seed + "`"},
			{"Run ID", "`" + report.RunID + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"State", w.stateText(report)},
			{"Max Depth", strconv.Itoa(report.MaxDepth)},
		},
	})
	md.PlainText("")
}

// stateText decorates the terminal state for the header table.
func (w *MarkdownWriter) stateText(report *CrawlReport) string {
	switch report.State {
	case "completed":
		return "✅ Completed"
	case "stopped":
		return "⚠️ Stopped (partial results)"
	default:
		return report.State
	}
}

// writeSummary writes the counter summary with an outcome pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *CrawlReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Fetched", strconv.Itoa(report.Fetched)},
			{"🔴 Failed", strconv.Itoa(report.Failed)},
			{"⚪ Rejected by scope", strconv.Itoa(report.Rejected)},
		},
	})
	md.PlainText("")

	if report.Fetched+report.Failed+report.Rejected > 0 {
		w.writePieChart(md, report)
	}
}

// writePieChart writes a mermaid pie chart of task outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Task Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if report.Fetched > 0 {
		chart.LabelAndIntValue("Fetched", uint64(report.Fetched))
	}
	if report.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(report.Failed))
	}
	if report.Rejected > 0 {
		chart.LabelAndIntValue("Rejected", uint64(report.Rejected))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeSiteMap writes the discovered resources as a table.
func (w *MarkdownWriter) writeSiteMap(md *markdown.Markdown, report *CrawlReport) {
	md.H2("Site Map")
	md.PlainText("")

	if len(report.Resources) == 0 {
		md.PlainText("No resources were recorded for this run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Resources))
	for _, res := range report.Resources {
		status := strconv.Itoa(res.StatusCode)
		if res.Failed {
			status = "error"
		}
		rows = append(rows, []string{
			strconv.Itoa(res.Depth),
			res.Method,
			"`" + res.URL + "`",
			status,
			truncateString(res.Title, 50),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Depth", "Method", "URL", "Status", "Title"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures writes an alert listing failed fetches, if any.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *CrawlReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")
	md.Warningf("%d fetch(es) failed during this run.", len(failures))
	md.PlainText("")

	items := make([]string, 0, len(failures))
	for _, res := range failures {
		items = append(items, fmt.Sprintf("`%s` - %s", res.URL, res.Error))
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [webspider](https://github.com/nao1215/webspider)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
