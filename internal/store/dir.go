// Package store persists the recency caches (registered projects, per-project
// file ranking, recent files) as JSON files in the cache directory.
package store

import (
	"os"
	"path/filepath"
)

// EnvCacheDir overrides the cache directory.
const EnvCacheDir = "CONSULT_CACHE_DIR"

// Cache file names inside the cache directory.
const (
	ProjectListFile  = "projects.json"
	ProjectFilesFile = "projectfiles.json"
	RecentFilesFile  = "recentf.json"
)

// Dir returns the cache directory path.
func Dir() string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".consult")
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
