package model

import "net/http"

// Identity carries the authentication context attached to a fetch.
// The crawler performs no authentication itself; both fields pass through
// unchanged to the transport and to parsers. Either may be empty.
type Identity struct {
	// ContextID identifies the scan context the fetch belongs to.
	ContextID string

	// UserID identifies the user whose session is used for the fetch.
	UserID string
}

// IsZero reports whether the identity carries no context or user.
func (i Identity) IsZero() bool {
	return i.ContextID == "" && i.UserID == ""
}

// FetchTask is a unit of work dispatched to a crawl worker.
// Tasks are created by the frontier when a candidate is accepted,
// consumed exactly once, and discarded after the fetch/parse cycle.
type FetchTask struct {
	// URL is the absolute URL to fetch.
	URL string

	// Method is the HTTP method for the fetch.
	Method string

	// Form contains form field values for POST submissions.
	// Nil for plain GET tasks.
	Form map[string]string

	// Depth is the distance from the seed: seeds are depth 0 and every
	// accepted child is its parent's depth plus one.
	Depth int

	// Identity is the authentication context for the fetch.
	Identity Identity

	// Source identifies the parser that discovered the URL.
	// Empty for seed tasks.
	Source string
}

// NewSeedTask creates a depth-zero GET task for a seed URL.
func NewSeedTask(rawURL string, identity Identity) FetchTask {
	return FetchTask{
		URL:      rawURL,
		Method:   http.MethodGet,
		Depth:    0,
		Identity: identity,
	}
}
