package parser

import (
	"regexp"
	"strings"

	"github.com/nao1215/webspider/internal/model"
)

// TextParser is the fallback extractor for non-HTML textual payloads:
// plain text, JSON, JavaScript, and CSS. It picks out literal absolute
// URLs, which is as much structure as these payloads guarantee.
type TextParser struct{}

// NewTextParser creates a TextParser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Name implements Parser.
func (p *TextParser) Name() string {
	return "text"
}

// textualTypes are the content-type fragments the parser accepts.
var textualTypes = []string{
	"text/plain",
	"text/css",
	"application/json",
	"application/javascript",
	"text/javascript",
}

// CanParse reports whether the message is a textual non-HTML payload.
// HTML is excluded: the HTML parser owns it and extracts far more.
func (p *TextParser) CanParse(pctx *Context) bool {
	resp := pctx.Response()
	if resp.IsHTML() || len(resp.Body) == 0 {
		return false
	}
	for _, t := range textualTypes {
		if strings.Contains(resp.ContentType, t) {
			return true
		}
	}
	return false
}

// absoluteURLPattern matches bare absolute URLs in arbitrary text.
// Trailing punctuation that commonly follows a URL in prose is excluded.
var absoluteURLPattern = regexp.MustCompile(`https?://[^\s"'<>()\[\]{}]+`)

// Parse extracts literal absolute URLs from the body.
func (p *TextParser) Parse(pctx *Context) (*Result, error) {
	base, err := pctx.BaseURL()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[string]bool)

	for _, match := range absoluteURLPattern.FindAllString(string(pctx.Response().Body), -1) {
		match = strings.TrimRight(match, ".,;:")
		resolved := resolveRef(base, match)
		if resolved == "" || seen[resolved] {
			continue
		}
		seen[resolved] = true
		result.Candidates = append(result.Candidates, model.NewCandidate(resolved, p.Name()))
	}

	return result, nil
}
