// Package config provides configuration structures and utilities for the
// crawler. It defines the run options (depth, concurrency, politeness),
// the YAML scope file with per-target allow/deny patterns, and validation
// that rejects invalid configurations before a crawl starts.
package config
