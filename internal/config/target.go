package config

// TargetConfig holds scope rules and authentication context for a single
// target host. Include and Exclude patterns are glob expressions matched
// against the URL path; exclusion wins on conflict.
type TargetConfig struct {
	// Include are URL path patterns that stay in scope.
	// Empty means every path on the target host is in scope
	// (subject to Exclude).
	Include []string `yaml:"include,omitempty"`

	// Exclude are URL path patterns removed from scope.
	// Exclusion takes precedence over inclusion.
	Exclude []string `yaml:"exclude,omitempty"`

	// Depth overrides the global crawl depth for this target.
	// Zero means use the global MaxDepth.
	Depth int `yaml:"depth,omitempty"`

	// Cookie is an HTTP cookie sent with requests to this target.
	// Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with requests to this target.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ContextID names the scan context attached to fetches of this
	// target. Passed through unchanged to the transport and parsers.
	ContextID string `yaml:"contextId,omitempty"`

	// UserID names the user whose session is used for fetches of this
	// target. Passed through unchanged like ContextID.
	UserID string `yaml:"userId,omitempty"`
}

// File represents the structure of the .webspider scope file.
type File struct {
	// Targets maps host names to their scope configuration.
	// Keys are bare hosts without scheme (e.g. "app.example.com").
	Targets map[string]TargetConfig `yaml:"targets,omitempty"`

	// Defaults contains scope configuration applied to every target
	// unless overridden in the target-specific entry.
	Defaults TargetConfig `yaml:"defaults,omitempty"`
}

// TargetConfigFor returns the configuration for the given host,
// merging the target-specific entry over the defaults.
func (cf *File) TargetConfigFor(host string) TargetConfig {
	result := cf.Defaults

	tc, ok := cf.Targets[host]
	if !ok {
		return result
	}

	if len(tc.Include) > 0 {
		result.Include = tc.Include
	}
	if len(tc.Exclude) > 0 {
		result.Exclude = tc.Exclude
	}
	if tc.Depth != 0 {
		result.Depth = tc.Depth
	}
	if tc.Cookie != "" {
		result.Cookie = tc.Cookie
	}
	if len(tc.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range tc.Headers {
			result.Headers[k] = v
		}
	}
	if tc.ContextID != "" {
		result.ContextID = tc.ContextID
	}
	if tc.UserID != "" {
		result.UserID = tc.UserID
	}

	return result
}
