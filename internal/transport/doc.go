// Package transport provides the HTTP fetch primitive used by the crawl
// workers. The crawler core treats it as an opaque collaborator: it does
// not manage connections, TLS, or redirects. Redirects deliberately
// surface as 3xx responses so the redirect parser can emit the Location
// target as a new candidate instead of the transport following it.
//
// Failed fetches are not retried here. Retry policy is intentionally
// absent from the crawler: a failed task is counted and the crawl moves
// on, which keeps the frontier's at-most-once dispatch guarantee simple.
package transport
