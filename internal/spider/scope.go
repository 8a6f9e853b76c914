package spider

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nao1215/webspider/internal/config"
	"github.com/nao1215/webspider/internal/model"
)

// Scope decides which candidates stay inside the crawl.
// A candidate is in scope when its host matches a seed host and its path
// survives the include/exclude patterns for that host. Scope also
// enforces the depth limit and the per-parent child limit.
//
// Design decision: Scope is keyed by host rather than by URL prefix
// because:
//  1. The seed hosts define the authorization boundary of the crawl
//  2. Path-level control is already expressed by include/exclude globs
//  3. Host comparison is cheap on the frontier's hot path
type Scope struct {
	// hosts maps each allowed host to its merged target configuration.
	hosts map[string]config.TargetConfig

	// maxDepth is the global depth limit. A target entry may override it.
	maxDepth int

	// maxChildren caps how many accepted children one parent contributes.
	maxChildren int

	// mu protects children.
	mu sync.Mutex

	// children counts accepted children per parent canonical key.
	children map[string]int
}

// NewScope builds the scope from the configured seeds and scope file.
// Every seed host becomes an allowed host with its merged target rules.
func NewScope(cfg *config.Config) (*Scope, error) {
	s := &Scope{
		hosts:       make(map[string]config.TargetConfig, len(cfg.Seeds)),
		maxDepth:    cfg.MaxDepth,
		maxChildren: cfg.MaxChildren,
		children:    make(map[string]int),
	}

	for _, seed := range cfg.Seeds {
		u, err := url.Parse(seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSeed, seed, err)
		}
		host := strings.ToLower(u.Hostname())
		if host == "" {
			return nil, fmt.Errorf("%w: %q has no host", ErrInvalidSeed, seed)
		}

		var tc config.TargetConfig
		if cfg.Scope != nil {
			tc = cfg.Scope.TargetConfigFor(host)
		}
		s.hosts[host] = tc
	}

	return s, nil
}

// Contains reports whether the URL is inside the crawl scope.
// Exclusion patterns win over inclusion patterns on conflict.
func (s *Scope) Contains(u *url.URL) bool {
	tc, ok := s.hosts[strings.ToLower(u.Hostname())]
	if !ok {
		return false
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range tc.Exclude {
		if matchPattern(pattern, path) {
			return false
		}
	}

	if len(tc.Include) > 0 {
		for _, pattern := range tc.Include {
			if matchPattern(pattern, path) {
				return true
			}
		}
		return false
	}

	return true
}

// WithinDepth reports whether a task at the given depth may be crawled
// on the given host. A per-target depth override takes precedence over
// the global limit.
func (s *Scope) WithinDepth(depth int, host string) bool {
	limit := s.maxDepth
	if tc, ok := s.hosts[strings.ToLower(host)]; ok && tc.Depth > 0 {
		limit = tc.Depth
	}
	return depth <= limit
}

// AllowChild consumes one child slot of the given parent. It returns
// false once the parent has contributed maxChildren accepted children.
// Seeds have no parent and pass an empty key, which is never limited.
func (s *Scope) AllowChild(parentKey string) bool {
	if parentKey == "" {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.children[parentKey] >= s.maxChildren {
		return false
	}
	s.children[parentKey]++
	return true
}

// TargetFor returns the merged target configuration for the host.
// The zero value is returned for hosts outside the scope.
func (s *Scope) TargetFor(host string) config.TargetConfig {
	return s.hosts[strings.ToLower(host)]
}

// IdentityFor returns the authentication context configured for the host.
func (s *Scope) IdentityFor(host string) model.Identity {
	tc := s.TargetFor(host)
	return model.Identity{ContextID: tc.ContextID, UserID: tc.UserID}
}

// matchPattern checks if a URL path matches a glob pattern.
// Beyond filepath.Match semantics, a trailing "*" matches any suffix
// including path separators ("/admin/*" covers "/admin/a/b"), and
// "*.ext" matches by extension anywhere in the tree.
func matchPattern(pattern, path string) bool {
	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		if prefix != "" && strings.HasPrefix(path, prefix) {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		return strings.HasSuffix(path, pattern[1:])
	}

	return false
}
