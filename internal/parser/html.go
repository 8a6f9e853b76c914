package parser

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/webspider/internal/model"
)

// HTMLParser extracts candidates from HTML pages: anchors, resource
// links, frames, forms, and literal URLs inside inline scripts.
//
// Design decision: We parse with golang.org/x/net/html rather than
// regex because:
//  1. It correctly handles the malformed HTML common on the web
//  2. It provides a proper DOM-like structure for form extraction
//  3. Complex regex over markup is unmaintainable
type HTMLParser struct{}

// NewHTMLParser creates an HTMLParser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Name implements Parser.
func (p *HTMLParser) Name() string {
	return "html"
}

// CanParse reports whether the message is a non-empty HTML response.
func (p *HTMLParser) CanParse(pctx *Context) bool {
	resp := pctx.Response()
	return resp.IsHTML() && len(resp.Body) > 0
}

// inlineURLPattern matches literal absolute URLs inside inline scripts.
// Quoted string literals are the common case; the quote characters keep
// trailing punctuation out of the match.
var inlineURLPattern = regexp.MustCompile(`["'](https?://[^"'\s]+)["']`)

// Parse walks the document and extracts candidates.
func (p *HTMLParser) Parse(pctx *Context) (*Result, error) {
	doc, err := pctx.Document()
	if err != nil {
		return nil, err
	}

	base, err := pctx.BaseURL()
	if err != nil {
		return nil, err
	}

	// An explicit <base href> overrides the request URL for resolving
	// relative references on the whole page.
	if declared := findBaseHref(doc); declared != "" {
		if u, err := url.Parse(declared); err == nil {
			base = base.ResolveReference(u)
		}
	}

	result := &Result{}

	// The walk descends into forms too: pages nest navigation inside
	// them, and field collection happens only in extractForm, so no
	// element is extracted twice.
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, base, pctx, result)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement extracts candidates from a single element node.
func (p *HTMLParser) processElement(n *html.Node, base *url.URL, pctx *Context, result *Result) {
	switch n.Data {
	case "a", "link", "area":
		p.addLink(result, base, getAttr(n, "href"))

	case "frame", "iframe", "script", "img", "embed":
		p.addLink(result, base, getAttr(n, "src"))
		// Inline scripts carry no src; scan their text for literal URLs.
		if n.Data == "script" && getAttr(n, "src") == "" {
			p.extractInlineURLs(n, result)
		}

	case "meta":
		// <meta http-equiv="refresh" content="5; url=/next">
		if strings.EqualFold(getAttr(n, "http-equiv"), "refresh") {
			if target := refreshTarget(getAttr(n, "content")); target != "" {
				p.addLink(result, base, target)
			}
		}

	case "form":
		p.extractForm(n, base, pctx, result)
	}
}

// addLink resolves a reference against the base URL and appends a GET
// candidate. Unresolvable and non-navigational references are dropped.
func (p *HTMLParser) addLink(result *Result, base *url.URL, ref string) {
	resolved := resolveRef(base, ref)
	if resolved == "" {
		return
	}
	result.Candidates = append(result.Candidates, model.NewCandidate(resolved, p.Name()))
}

// extractInlineURLs scans inline script text for literal absolute URLs.
func (p *HTMLParser) extractInlineURLs(n *html.Node, result *Result) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		for _, m := range inlineURLPattern.FindAllStringSubmatch(c.Data, -1) {
			result.Candidates = append(result.Candidates, model.NewCandidate(m[1], p.Name()))
		}
	}
}

// extractForm builds a form-submission candidate with field values
// resolved through the context's value provider.
func (p *HTMLParser) extractForm(n *html.Node, base *url.URL, pctx *Context, result *Result) {
	action := getAttr(n, "action")
	target := resolveRef(base, action)
	if target == "" {
		// A form without an action submits to the page itself.
		target = base.String()
	}

	method := strings.ToUpper(getAttr(n, "method"))
	if method != http.MethodPost {
		method = http.MethodGet
	}

	targetURL, err := url.Parse(target)
	if err != nil {
		return
	}

	fields := make(map[string]string)
	collectFormFields(n, targetURL, pctx.ValueProvider(), fields)

	result.Candidates = append(result.Candidates,
		model.NewFormCandidate(target, method, p.Name(), fields))
}

// collectFormFields recursively gathers input, select, and textarea
// fields, resolving each value through the value provider.
func collectFormFields(n *html.Node, target *url.URL, values ValueProvider, fields map[string]string) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "input":
			name := getAttr(n, "name")
			fieldType := strings.ToLower(getAttr(n, "type"))
			if name != "" && fieldType != "submit" && fieldType != "button" && fieldType != "image" {
				attrs := map[string]string{"type": fieldType}
				if minValue := getAttr(n, "min"); minValue != "" {
					attrs["min"] = minValue
				}
				if maxValue := getAttr(n, "max"); maxValue != "" {
					attrs["max"] = maxValue
				}
				fields[name] = values.Value(target, name, getAttr(n, "value"), nil, attrs)
			}

		case "textarea":
			if name := getAttr(n, "name"); name != "" {
				fields[name] = values.Value(target, name, textContent(n), nil,
					map[string]string{"type": "textarea"})
			}

		case "select":
			if name := getAttr(n, "name"); name != "" {
				fields[name] = values.Value(target, name, "", optionValues(n),
					map[string]string{"type": "select"})
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectFormFields(c, target, values, fields)
	}
}

// optionValues returns the values of a select element's options.
func optionValues(n *html.Node) []string {
	var values []string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "option" {
			if v := getAttr(node, "value"); v != "" {
				values = append(values, v)
			} else if text := textContent(node); text != "" {
				values = append(values, text)
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return values
}

// textContent returns the trimmed concatenated text of a node's children.
func textContent(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// findBaseHref returns the href of the document's <base> element, if any.
func findBaseHref(doc *html.Node) string {
	var href string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if href != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "base" {
			href = getAttr(n, "href")
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(href)
}

// refreshTarget extracts the URL from a meta-refresh content attribute.
// The attribute has the form "seconds" or "seconds; url=target".
func refreshTarget(content string) string {
	_, after, found := strings.Cut(content, ";")
	if !found {
		return ""
	}
	after = strings.TrimSpace(after)
	if len(after) < 4 || !strings.EqualFold(after[:4], "url=") {
		return ""
	}
	return strings.Trim(strings.TrimSpace(after[4:]), `"'`)
}

// resolveRef resolves a reference against the base URL.
// Non-navigational schemes and bare fragments return empty.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "#" {
		return ""
	}

	lower := strings.ToLower(ref)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:", "about:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}
