// Package report renders crawl results for humans and tools.
//
// Three formats are supported:
//   - Console: a short plain-text summary for terminal use
//   - JSON: the full crawl report for tool integration
//   - Markdown: a shareable site-map document
//
// All writers implement the same Writer interface so the CLI can pick
// a format from flags and fan out to several destinations at once.
package report
