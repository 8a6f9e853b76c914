package model

import "net/http"

// Candidate is a URI extracted by a parser, pending scope and
// deduplication evaluation. Candidates carry the HTTP method inferred by
// the parser (GET unless the parser knows better, e.g. a POST form) and,
// for forms, the resolved field values.
//
// Design decision: Candidates hold plain strings rather than *url.URL
// because:
//  1. Parsers resolve relative references before emitting, so the value
//     is already absolute
//  2. The frontier re-parses during canonicalization anyway
//  3. Plain strings keep the type trivially copyable and comparable
type Candidate struct {
	// URL is the absolute URL of the candidate.
	URL string

	// Method is the HTTP method to use when fetching the candidate.
	// Defaults to GET; form parsers may infer POST.
	Method string

	// Form contains resolved form field name/value pairs.
	// Only populated for candidates extracted from forms.
	Form map[string]string

	// Source identifies the parser that produced the candidate
	// (e.g. "html", "robots", "sitemap"). Used for reporting.
	Source string
}

// NewCandidate creates a GET candidate for the given URL.
// This is the common case for link extraction.
func NewCandidate(rawURL, source string) Candidate {
	return Candidate{
		URL:    rawURL,
		Method: http.MethodGet,
		Source: source,
	}
}

// NewFormCandidate creates a candidate for a form submission with the
// given method and resolved field values.
func NewFormCandidate(rawURL, method, source string, form map[string]string) Candidate {
	if method == "" {
		method = http.MethodGet
	}
	return Candidate{
		URL:    rawURL,
		Method: method,
		Form:   form,
		Source: source,
	}
}
