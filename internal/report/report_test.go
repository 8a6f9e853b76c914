package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/webspider/internal/model"
)

// newTestReport builds a small report with a mixed set of resources.
func newTestReport() *CrawlReport {
	snap := model.Snapshot{
		ID:       "run-1",
		State:    "completed",
		Fetched:  2,
		Failed:   1,
		Rejected: 3,
		MaxDepth: 5,
	}
	resources := []*model.Resource{
		{
			URL:         "http://t/",
			Method:      http.MethodGet,
			StatusCode:  200,
			ContentType: "text/html",
			Title:       "Home",
			Depth:       0,
			Hash:        "aaa",
			FetchedAt:   time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		},
		{
			URL:        "http://t/about",
			Method:     http.MethodGet,
			StatusCode: 200,
			Title:      "About",
			Depth:      1,
		},
		{
			URL:    "http://t/down",
			Method: http.MethodGet,
			Depth:  1,
			Failed: true,
			Error:  "connection refused",
		},
	}
	return NewCrawlReport(snap, "http://t/", resources)
}

// TestCrawlReportFailures tests failure extraction.
func TestCrawlReportFailures(t *testing.T) {
	t.Parallel()

	report := newTestReport()
	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(failures))
	}
	if failures[0].URL != "http://t/down" {
		t.Errorf("failure URL = %q", failures[0].URL)
	}
}

// TestJSONWriter tests JSON output and round-tripping.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact output round-trips", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewJSONWriter(&buf).Write(newTestReport())
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if n != buf.Len() {
			t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
		}

		var decoded CrawlReport
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if decoded.RunID != "run-1" || decoded.Fetched != 2 {
			t.Errorf("decoded = %+v", decoded)
		}
		if len(decoded.Resources) != 3 {
			t.Errorf("got %d resources, want 3", len(decoded.Resources))
		}
	})

	t.Run("pretty print indents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(newTestReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"run_id\"") {
			t.Error("pretty output should be indented")
		}
	})
}

// TestMarkdownWriter tests the markdown document structure.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(newTestReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Webspider Crawl Report",
		"## Summary",
		"## Site Map",
		"## Failures",
		"http://t/about",
		"connection refused",
		"```mermaid",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

// TestConsoleWriter tests the terminal output.
func TestConsoleWriter(t *testing.T) {
	t.Parallel()

	t.Run("summary only by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewConsoleWriter(&buf).Write(newTestReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()

		if !strings.Contains(out, "Fetched:  2") {
			t.Errorf("summary missing: %q", out)
		}
		if !strings.Contains(out, "connection refused") {
			t.Error("failures should always be listed")
		}
		if strings.Contains(out, "Site Map") {
			t.Error("site map should require verbose mode")
		}
	})

	t.Run("verbose lists every resource", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewConsoleWriter(&buf, WithVerbose(true)).Write(newTestReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		out := buf.String()

		if !strings.Contains(out, "Site Map") || !strings.Contains(out, "http://t/about") {
			t.Errorf("verbose output missing resources: %q", out)
		}
	})
}

// failingWriter always errors, for MultiWriter propagation tests.
type failingWriter struct{}

func (failingWriter) Write(*CrawlReport) (int, error) {
	return 0, errors.New("sink unavailable")
}

// TestMultiWriter tests fan-out and error propagation.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all sinks", func(t *testing.T) {
		t.Parallel()

		var a, b bytes.Buffer
		mw := NewMultiWriter(NewConsoleWriter(&a), NewJSONWriter(&b))
		if _, err := mw.Write(newTestReport()); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if a.Len() == 0 || b.Len() == 0 {
			t.Error("both sinks should receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var after bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewJSONWriter(&after))
		if _, err := mw.Write(newTestReport()); err == nil {
			t.Fatal("Write() should propagate the sink error")
		}
		if after.Len() != 0 {
			t.Error("writers after the failure should not run")
		}
	})
}
