package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Resource summarizes one completed fetch for persistence and reporting.
// Exactly one Resource is emitted per completed task, success or failure.
//
// Design decision: We store a summary rather than the full response body
// because:
//  1. The crawler's output is a site map, not an archive
//  2. The content hash is enough for change detection between runs
//  3. Parsers already consumed the body before the event is emitted
type Resource struct {
	// URL is the fetched URL.
	URL string `json:"url"`

	// Method is the HTTP method used for the fetch.
	Method string `json:"method"`

	// StatusCode is the HTTP response status, or 0 when the fetch failed
	// before a response arrived.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title for HTML responses.
	Title string `json:"title,omitempty"`

	// Depth is the task depth at which the resource was fetched.
	Depth int `json:"depth"`

	// Hash is the SHA-256 hash of the response body, in hex.
	// Empty when the fetch failed.
	Hash string `json:"hash,omitempty"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at"`

	// Failed indicates the fetch ended in a transport error or timeout.
	Failed bool `json:"failed,omitempty"`

	// Error holds the failure message when Failed is true.
	Error string `json:"error,omitempty"`

	// Candidates are the URIs extracted from the response.
	Candidates []Candidate `json:"-"`
}

// HashBody computes and stores the SHA-256 hash of the given body.
func (r *Resource) HashBody(body []byte) {
	sum := sha256.Sum256(body)
	r.Hash = hex.EncodeToString(sum[:])
}
