package parser

import (
	"github.com/nao1215/webspider/internal/model"
)

// RedirectParser turns the Location header of a 3xx response into a
// candidate. The transport never follows redirects itself, so this is
// the only way a redirect target enters the frontier. The target then
// passes the same scope and dedup checks as every other candidate.
type RedirectParser struct{}

// NewRedirectParser creates a RedirectParser.
func NewRedirectParser() *RedirectParser {
	return &RedirectParser{}
}

// Name implements Parser.
func (p *RedirectParser) Name() string {
	return "redirect"
}

// CanParse reports whether the message is a redirect with a Location.
func (p *RedirectParser) CanParse(pctx *Context) bool {
	resp := pctx.Response()
	return resp.IsRedirect() && resp.Location() != ""
}

// Parse emits the resolved Location target.
// Redirect bodies occasionally carry an HTML fallback link, so the
// parser does not veto the rest of the chain.
func (p *RedirectParser) Parse(pctx *Context) (*Result, error) {
	base, err := pctx.BaseURL()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	if resolved := resolveRef(base, pctx.Response().Location()); resolved != "" {
		result.Candidates = append(result.Candidates, model.NewCandidate(resolved, p.Name()))
	}
	return result, nil
}
