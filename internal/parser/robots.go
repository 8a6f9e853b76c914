package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/nao1215/webspider/internal/model"
)

// RobotsParser extracts candidates from robots.txt files.
//
// For a security crawler, robots.txt is a discovery source rather than a
// restriction: Sitemap directives seed the sitemap parser, and Allow and
// Disallow paths name resources the operator considered worth listing.
// The parser fully owns the payload and vetoes further parsing.
type RobotsParser struct{}

// NewRobotsParser creates a RobotsParser.
func NewRobotsParser() *RobotsParser {
	return &RobotsParser{}
}

// Name implements Parser.
func (p *RobotsParser) Name() string {
	return "robots"
}

// CanParse reports whether the message is a successfully fetched
// robots.txt.
func (p *RobotsParser) CanParse(pctx *Context) bool {
	resp := pctx.Response()
	return strings.EqualFold(pctx.Path(), "/robots.txt") &&
		resp.StatusCode >= 200 && resp.StatusCode < 300 &&
		len(resp.Body) > 0
}

// Parse extracts Sitemap directives and rule paths as candidates.
// Sitemap URLs come from the robotstxt library; rule paths are scanned
// directly because the library exposes groups only as match predicates,
// not as raw path lists.
func (p *RobotsParser) Parse(pctx *Context) (*Result, error) {
	resp := pctx.Response()

	data, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse robots.txt: %w", err)
	}

	result := &Result{StopParsing: true}

	for _, sitemap := range data.Sitemaps {
		if sitemap = strings.TrimSpace(sitemap); sitemap != "" {
			result.Candidates = append(result.Candidates, model.NewCandidate(sitemap, p.Name()))
		}
	}

	base, err := pctx.BaseURL()
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(bytes.NewReader(resp.Body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if comment := strings.IndexByte(line, '#'); comment >= 0 {
			line = strings.TrimSpace(line[:comment])
		}

		directive, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		if directive != "allow" && directive != "disallow" {
			continue
		}

		path := strings.TrimSpace(value)
		// Wildcard rules and the empty disallow carry no concrete path.
		path = strings.TrimSuffix(path, "*")
		path = strings.TrimSuffix(path, "$")
		if path == "" || strings.Contains(path, "*") {
			continue
		}

		if resolved := resolveRef(base, path); resolved != "" {
			result.Candidates = append(result.Candidates, model.NewCandidate(resolved, p.Name()))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan robots.txt: %w", err)
	}

	return result, nil
}
