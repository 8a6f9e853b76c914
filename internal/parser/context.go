package parser

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/model"
	"github.com/nao1215/webspider/internal/transport"
)

// ErrNilResponse is returned when a Context is constructed without a
// fetched response.
var ErrNilResponse = errors.New("parse context requires a response")

// Context bundles the per-fetch state handed to every parser invocation.
// It is created by the worker that fetched the message, read-only to
// parsers, and discarded with the task. It is never shared across
// workers.
type Context struct {
	// cfg is the configuration snapshot for the run.
	cfg *config.Config

	// values resolves dynamic field values for forms.
	values ValueProvider

	// identity is the authentication context of the fetch.
	identity model.Identity

	// resp is the fetched message.
	resp *transport.Response

	// path is the URL path of the fetched message.
	path string

	// depth is the crawl depth of the fetched message.
	depth int

	// baseURL is the memoized parsed request URL.
	baseURL *url.URL

	// doc is the memoized parsed HTML document.
	doc *html.Node

	// docErr remembers a document parse failure so repeated Document
	// calls do not re-parse a broken body.
	docErr error
	docSet bool
}

// NewContext creates a Context for one fetched message.
// The value provider falls back to the deterministic default when nil.
func NewContext(cfg *config.Config, values ValueProvider, identity model.Identity, resp *transport.Response, depth int) (*Context, error) {
	if resp == nil {
		return nil, ErrNilResponse
	}
	if values == nil {
		values = DefaultValueProvider{}
	}

	path := ""
	if u, err := url.Parse(resp.URL); err == nil {
		path = u.Path
	}

	return &Context{
		cfg:      cfg,
		values:   values,
		identity: identity,
		resp:     resp,
		path:     path,
		depth:    depth,
	}, nil
}

// Config returns the configuration snapshot.
func (c *Context) Config() *config.Config {
	return c.cfg
}

// ValueProvider returns the form value provider. Never nil.
func (c *Context) ValueProvider() ValueProvider {
	return c.values
}

// Identity returns the authentication context of the fetch.
func (c *Context) Identity() model.Identity {
	return c.identity
}

// Response returns the fetched message.
func (c *Context) Response() *transport.Response {
	return c.resp
}

// Path returns the URL path of the fetched message.
func (c *Context) Path() string {
	return c.path
}

// Depth returns the crawl depth of the fetched message.
func (c *Context) Depth() int {
	return c.depth
}

// BaseURL returns the parsed URL of the fetched message.
// The result is computed on first access and memoized. No locking is
// needed: a Context belongs to exactly one worker.
func (c *Context) BaseURL() (*url.URL, error) {
	if c.baseURL != nil {
		return c.baseURL, nil
	}

	u, err := url.Parse(c.resp.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.resp.URL, err)
	}
	c.baseURL = u
	return u, nil
}

// Document returns the response body parsed as HTML.
// Parsing happens once on first access; the decoded document (including
// a parse failure) is memoized for subsequent parsers on the same
// message. The body is decoded to UTF-8 from the charset declared in the
// Content-Type header before parsing.
func (c *Context) Document() (*html.Node, error) {
	if c.docSet {
		return c.doc, c.docErr
	}
	c.docSet = true

	reader, err := charset.NewReader(bytes.NewReader(c.resp.Body), c.resp.ContentType)
	if err != nil {
		c.docErr = fmt.Errorf("failed to decode response body: %w", err)
		return nil, c.docErr
	}

	doc, err := html.Parse(reader)
	if err != nil {
		c.docErr = fmt.Errorf("failed to parse HTML: %w", err)
		return nil, c.docErr
	}

	c.doc = doc
	return doc, nil
}

// Title returns the page title for HTML responses, or empty string.
func (c *Context) Title() string {
	if !c.resp.IsHTML() {
		return ""
	}
	doc, err := c.Document()
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return title
}
