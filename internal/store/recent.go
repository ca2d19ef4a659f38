package store

import (
	"encoding/json"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/sunhs/consult.code/internal/cache"
)

// RecentFiles ranks recently opened files across all projects.
type RecentFiles struct {
	w       *cache.Weighted[string]
	file    jsonFile
	exists  func(string) bool
	onPrune PruneFunc
	logger  *slog.Logger
}

func newRecentFiles(path string, capacity int, exists func(string) bool, onPrune PruneFunc, logger *slog.Logger) *RecentFiles {
	return &RecentFiles{
		w:       cache.NewWeighted[string](capacity),
		file:    jsonFile{path: path, empty: []byte("[]")},
		exists:  exists,
		onPrune: onPrune,
		logger:  logger,
	}
}

// Path returns the backing file.
func (r *RecentFiles) Path() string { return r.file.path }

// Put marks path as the most recently opened file.
func (r *RecentFiles) Put(path string) { r.w.Put(path) }

// Delete forgets path.
func (r *RecentFiles) Delete(path string) bool { return r.w.Delete(path) }

// Newest returns the recent files, newest first.
func (r *RecentFiles) Newest() []string { return r.w.Newest() }

// Weight returns the rank of path, or cache.NotFound.
func (r *RecentFiles) Weight(path string) int { return r.w.Weight(path) }

// Len returns the number of recent files.
func (r *RecentFiles) Len() int { return r.w.Len() }

// Load replaces the in-memory list with the file content, then revalidates.
func (r *RecentFiles) Load() error {
	data, err := r.file.read()
	if err != nil {
		return err
	}
	var paths []string
	if err := json.Unmarshal(data, &paths); err != nil {
		return r.file.malformed(err)
	}

	r.w.Reset()
	for _, path := range slices.Backward(paths) {
		r.w.Put(path)
	}
	r.Revalidate()
	return nil
}

// Save revalidates and writes the list, newest first.
func (r *RecentFiles) Save() error {
	r.Revalidate()
	data, err := stringList(r.w.Newest(), "")
	if err != nil {
		return err
	}
	_, err = r.file.write(data)
	return err
}

// Revalidate drops relative or missing paths and returns them.
func (r *RecentFiles) Revalidate() []string {
	var pruned []string
	for _, path := range r.w.Keys() {
		if !filepath.IsAbs(path) || !r.exists(path) {
			r.w.Delete(path)
			pruned = append(pruned, path)
		}
	}
	report(r.onPrune, r.logger, r.file.path, pruned)
	return pruned
}
