package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nao1215/webspider/internal/model"
)

// SitemapParser extracts candidates from sitemap XML documents.
// It handles both <urlset> files and <sitemapindex> files pointing at
// further sitemaps, and vetoes later parsers for the payload.
//
// Design decision: We use encoding/xml because sitemap files are plain
// well-formed XML with a tiny fixed schema; none of the example crawl
// stacks carry a dedicated sitemap library.
type SitemapParser struct{}

// NewSitemapParser creates a SitemapParser.
func NewSitemapParser() *SitemapParser {
	return &SitemapParser{}
}

// Name implements Parser.
func (p *SitemapParser) Name() string {
	return "sitemap"
}

// CanParse reports whether the message looks like a sitemap document.
// The check accepts both the conventional path and any XML payload whose
// root element is a sitemap, since robots.txt may point at any path.
func (p *SitemapParser) CanParse(pctx *Context) bool {
	resp := pctx.Response()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || len(resp.Body) == 0 {
		return false
	}

	if strings.HasSuffix(strings.ToLower(pctx.Path()), "sitemap.xml") {
		return true
	}

	if !strings.Contains(resp.ContentType, "xml") {
		return false
	}
	head := resp.Body
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<urlset")) || bytes.Contains(head, []byte("<sitemapindex"))
}

// urlSet is the <urlset> document of the sitemap protocol.
type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapIndex is the <sitemapindex> document pointing at sub-sitemaps.
type sitemapIndex struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Parse extracts every <loc> entry as a candidate.
func (p *SitemapParser) Parse(pctx *Context) (*Result, error) {
	body := pctx.Response().Body
	result := &Result{StopParsing: true}

	var set urlSet
	if err := xml.Unmarshal(body, &set); err == nil {
		for _, entry := range set.URLs {
			p.addLoc(result, entry.Loc)
		}
		return result, nil
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap XML: %w", err)
	}
	for _, entry := range index.Sitemaps {
		p.addLoc(result, entry.Loc)
	}
	return result, nil
}

// addLoc appends a trimmed, non-empty loc entry as a GET candidate.
func (p *SitemapParser) addLoc(result *Result, loc string) {
	if loc = strings.TrimSpace(loc); loc != "" {
		result.Candidates = append(result.Candidates, model.NewCandidate(loc, p.Name()))
	}
}
