package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultScopeFile is the default scope file name.
const DefaultScopeFile = ".webspider"

// ErrScopeFileNotFound is returned when the scope file does not exist.
var ErrScopeFileNotFound = errors.New("scope file not found")

// LoadScopeFile loads target scope rules from a YAML file.
// If the file does not exist, it returns ErrScopeFileNotFound. Callers
// should treat the error as fatal only when the path was explicitly
// specified by the user.
func LoadScopeFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided scope path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrScopeFileNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Targets == nil {
		cf.Targets = make(map[string]TargetConfig)
	}

	return &cf, nil
}

// FindScopeFile searches for the scope file in the following order:
//  1. If scopePath is specified, use it directly
//  2. Look for .webspider in the current directory
//  3. Look for .webspider in the user's home directory
//
// Returns the path to the scope file if found, or empty string if not.
func FindScopeFile(scopePath string) string {
	if scopePath != "" {
		if _, err := os.Stat(scopePath); err == nil {
			return scopePath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdScope := filepath.Join(cwd, DefaultScopeFile)
		if _, err := os.Stat(cwdScope); err == nil {
			return cwdScope
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeScope := filepath.Join(home, DefaultScopeFile)
		if _, err := os.Stat(homeScope); err == nil {
			return homeScope
		}
	}

	return ""
}
