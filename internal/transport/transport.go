package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/webspider/internal/model"
)

// Request describes one fetch to perform.
type Request struct {
	// URL is the absolute URL to fetch.
	URL string

	// Method is the HTTP method. Defaults to GET when empty.
	Method string

	// Header contains additional request headers (cookies, auth headers
	// from the scope file). May be nil.
	Header http.Header

	// Form contains form field values. For POST they are sent as a
	// url-encoded body; for GET they are merged into the query string.
	Form map[string]string

	// Identity is the authentication context for the fetch. It is
	// carried through unchanged; the transport performs no
	// authentication logic itself.
	Identity model.Identity
}

// Response is the outcome of a successful fetch.
type Response struct {
	// URL is the fetched URL. Since redirects are not followed, it is
	// always the requested URL.
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// Header contains the response headers.
	Header http.Header

	// Body is the response body, truncated to the configured limit.
	Body []byte

	// ContentType is the MIME type from the Content-Type header.
	ContentType string
}

// IsHTML reports whether the response carries an HTML payload.
func (r *Response) IsHTML() bool {
	return strings.Contains(r.ContentType, "text/html") ||
		strings.Contains(r.ContentType, "application/xhtml+xml")
}

// IsRedirect reports whether the response is a 3xx redirect.
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// Location returns the redirect target, or empty string if none.
func (r *Response) Location() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Location")
}

// Fetcher is the fetch primitive the scheduler depends on.
// The production implementation is Client; tests substitute fakes.
type Fetcher interface {
	// Fetch performs a single HTTP request and returns the response.
	// Implementations must respect context cancellation and enforce
	// their own per-fetch timeout.
	Fetch(ctx context.Context, req *Request) (*Response, error)
}

// Client is the net/http-backed Fetcher.
//
// Design decision: Redirect following is disabled on the underlying
// http.Client because:
//  1. The redirect target must pass scope and dedup checks like any
//     other candidate
//  2. Auto-following would fetch out-of-scope hosts invisibly
//  3. The redirect parser owns 3xx handling
type Client struct {
	// hc is the underlying HTTP client, configured not to follow redirects.
	hc *http.Client

	// limiter spaces requests for politeness. Shared across all workers
	// so the configured delay bounds total request rate, not per-worker
	// rate. Nil disables rate limiting.
	limiter *rate.Limiter

	// timeout is the per-fetch timeout.
	timeout time.Duration

	// userAgent is the User-Agent header sent with every request.
	userAgent string

	// maxBodySize limits how many bytes of the response body are read.
	maxBodySize int64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size to read.
func WithMaxBodySize(size int64) ClientOption {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// WithCrawlDelay sets the minimum interval between requests.
// Zero disables the limiter.
func WithCrawlDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
// The replacement's CheckRedirect is overridden so redirects still
// surface as responses.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.hc = hc
	}
}

// NewClient creates a Client with the given options.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hc:          &http.Client{},
		timeout:     20 * time.Second,
		userAgent:   "webspider/1.0",
		maxBodySize: 5 * 1024 * 1024,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Surface redirects instead of following them.
	c.hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return c
}

// Fetch performs a single HTTP request.
// The response body is read up to the configured limit; larger bodies
// are truncated, not errored. Network errors and timeouts are returned
// as-is for the scheduler to count as task failures.
func (c *Client) Fetch(ctx context.Context, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Best-effort close on read path

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		URL:         req.URL,
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// buildRequest translates a Request into an *http.Request.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	var body io.Reader

	if len(req.Form) > 0 {
		values := url.Values{}
		for k, v := range req.Form {
			values.Set(k, v)
		}

		if method == http.MethodPost {
			body = strings.NewReader(values.Encode())
		} else {
			// Merge form values into the query string for GET forms.
			u, err := url.Parse(target)
			if err != nil {
				return nil, fmt.Errorf("invalid request URL %q: %w", target, err)
			}
			q := u.Query()
			for k, v := range values {
				q[k] = v
			}
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	return httpReq, nil
}
