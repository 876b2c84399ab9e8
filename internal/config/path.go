// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration directory under the user's config root.
const AppName = "audithawk"

// ExpandPath expands a leading ~ and $VAR style environment variables.
// Paths that SQLite treats specially, such as ":memory:", pass through.
func ExpandPath(path string) string {
	if path == "" || strings.HasPrefix(path, ":") {
		return path
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}

	return os.ExpandEnv(path)
}

// Dir returns ~/.config/audithawk, or a relative fallback when the home
// directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", AppName)
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultCredentialsPath is where the auth commands store the bearer token.
func DefaultCredentialsPath() string {
	return filepath.Join(Dir(), "credentials.json")
}
