package spider

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Canonicalize reduces a URL and method to the canonical key used for
// deduplication. Two references that canonicalize to the same key are
// the same crawl target and only the first is fetched.
//
// The transformation:
//   - lowercases the scheme and host
//   - drops the fragment
//   - drops the default port (:80 for http, :443 for https)
//   - normalizes an empty path to "/"
//   - sorts query parameters by key
//   - prefixes the method for non-GET targets, so a POST form and a GET
//     link to the same URL remain distinct tasks
//
// Canonicalize is a pure function of its inputs. It never consults
// crawl state, which keeps deduplication results reproducible across
// runs and workers.
func Canonicalize(rawURL, method string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("cannot canonicalize %q: %w", rawURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, rawURL)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q has no host", ErrInvalidSeed, rawURL)
	}

	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	u.Fragment = ""

	if u.Path == "" {
		u.Path = "/"
	}

	// url.Values.Encode sorts by key, so parameter order stops mattering.
	if u.RawQuery != "" {
		u.RawQuery = u.Query().Encode()
	}

	key := u.String()
	if method != "" && !strings.EqualFold(method, http.MethodGet) {
		key = strings.ToUpper(method) + " " + key
	}
	return key, nil
}
