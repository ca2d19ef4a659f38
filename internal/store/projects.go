package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/sunhs/consult.code/internal/cache"
)

// ProjectList maps project names to absolute roots, most recently used
// first. It is persisted as a JSON object listed newest to oldest.
type ProjectList struct {
	lru     *cache.LRU[string, string]
	file    jsonFile
	exists  func(string) bool
	onPrune PruneFunc
	logger  *slog.Logger
}

func newProjectList(path string, capacity int, exists func(string) bool, onPrune PruneFunc, logger *slog.Logger) *ProjectList {
	return &ProjectList{
		lru:     cache.NewLRU[string, string](capacity),
		file:    jsonFile{path: path, empty: []byte("{}")},
		exists:  exists,
		onPrune: onPrune,
		logger:  logger,
	}
}

// Path returns the backing file.
func (p *ProjectList) Path() string { return p.file.path }

// Get returns the root registered under name and marks it most recent.
func (p *ProjectList) Get(name string) (string, bool) { return p.lru.Get(name) }

// Peek returns the root registered under name without reordering.
func (p *ProjectList) Peek(name string) (string, bool) { return p.lru.Peek(name) }

// Has reports whether name is registered.
func (p *ProjectList) Has(name string) bool { return p.lru.Has(name) }

// Set registers root under name as the most recent project, replacing any
// root previously registered under the same name.
func (p *ProjectList) Set(name, root string) { p.lru.Set(name, root) }

// Delete unregisters name.
func (p *ProjectList) Delete(name string) bool { return p.lru.Delete(name) }

// Names returns the registered names, newest first.
func (p *ProjectList) Names() []string { return p.lru.Keys() }

// Roots returns the registered roots, newest first.
func (p *ProjectList) Roots() []string { return p.lru.Values() }

// Entries returns name/root pairs, newest first.
func (p *ProjectList) Entries() []cache.Entry[string, string] { return p.lru.Entries() }

// Len returns the number of registered projects.
func (p *ProjectList) Len() int { return p.lru.Len() }

// Load replaces the in-memory list with the file content, then revalidates.
func (p *ProjectList) Load() error {
	data, err := p.file.read()
	if err != nil {
		return err
	}
	members, err := decodeObject(data)
	if err != nil {
		return p.file.malformed(err)
	}

	roots := make([]string, len(members))
	for i, m := range members {
		if err := json.Unmarshal(m.value, &roots[i]); err != nil {
			return p.file.malformed(fmt.Errorf("project %q: %w", m.key, err))
		}
	}

	p.lru.Clear()
	// Listed newest first: insert oldest first so the newest ends up most recent.
	for i := len(members) - 1; i >= 0; i-- {
		p.lru.Set(members[i].key, roots[i])
	}
	p.Revalidate()
	return nil
}

// ReloadIfNewer loads the file only if it changed on disk since the last
// load or save. It reports whether a reload happened.
func (p *ProjectList) ReloadIfNewer() (bool, error) {
	changed, err := p.file.changed()
	if err != nil || !changed {
		return false, err
	}
	return true, p.Load()
}

// Save revalidates and writes the list, skipping the write when the content
// is unchanged.
func (p *ProjectList) Save() error {
	p.Revalidate()

	entries := p.lru.Entries()
	members := make([]member, 0, len(entries))
	for _, e := range entries {
		v, err := marshal(e.Value, "")
		if err != nil {
			return err
		}
		members = append(members, member{key: e.Key, value: v})
	}
	data, err := encodeObject(members)
	if err != nil {
		return err
	}
	written, err := p.file.write(data)
	if err != nil {
		return err
	}
	if written {
		p.logger.Debug("saved project list", "path", p.file.path, "projects", len(members))
	}
	return nil
}

// Revalidate drops projects whose root is relative or missing. It returns
// the dropped roots.
func (p *ProjectList) Revalidate() []string {
	var pruned []string
	p.lru.DeleteFunc(func(name, root string) bool {
		if filepath.IsAbs(root) && p.exists(root) {
			return false
		}
		pruned = append(pruned, root)
		return true
	})
	report(p.onPrune, p.logger, p.file.path, pruned)
	return pruned
}

func report(onPrune PruneFunc, logger *slog.Logger, path string, pruned []string) {
	if len(pruned) == 0 {
		return
	}
	logger.Info("pruned stale cache entries", "file", path, "entries", pruned)
	if onPrune != nil {
		onPrune(path, pruned)
	}
}
