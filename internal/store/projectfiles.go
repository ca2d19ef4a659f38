package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"

	"github.com/sunhs/consult.code/internal/cache"
)

// ProjectFiles ranks the files opened under each project. Every project has
// its own Weighted cache keyed by absolute file path.
type ProjectFiles struct {
	caches   map[string]*cache.Weighted[string]
	capacity int
	file     jsonFile
	exists   func(string) bool
	// registered reports whether a project name is still in the project list.
	registered func(string) bool
	// order returns project names in the order they should be written.
	order   func() []string
	onPrune PruneFunc
	logger  *slog.Logger
}

func newProjectFiles(path string, capacity int, projects *ProjectList, exists func(string) bool, onPrune PruneFunc, logger *slog.Logger) *ProjectFiles {
	return &ProjectFiles{
		caches:     make(map[string]*cache.Weighted[string]),
		capacity:   capacity,
		file:       jsonFile{path: path, empty: []byte("{}")},
		exists:     exists,
		registered: projects.Has,
		order:      projects.Names,
		onPrune:    onPrune,
		logger:     logger,
	}
}

// Path returns the backing file.
func (p *ProjectFiles) Path() string { return p.file.path }

// Put marks path as the most recently opened file of project.
func (p *ProjectFiles) Put(project, path string) {
	w, ok := p.caches[project]
	if !ok {
		w = cache.NewWeighted[string](p.capacity)
		p.caches[project] = w
	}
	w.Put(path)
}

// Weight returns the rank of path within project, or cache.NotFound.
func (p *ProjectFiles) Weight(project, path string) int {
	w, ok := p.caches[project]
	if !ok {
		return cache.NotFound
	}
	return w.Weight(path)
}

// Files returns the ranked files of project, newest first.
func (p *ProjectFiles) Files(project string) []string {
	w, ok := p.caches[project]
	if !ok {
		return nil
	}
	return w.Newest()
}

// Projects returns the names of projects with ranked files, in file order.
func (p *ProjectFiles) Projects() []string {
	seen := make(map[string]bool, len(p.caches))
	var names []string
	for _, name := range p.order() {
		if _, ok := p.caches[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range p.caches {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Load replaces the in-memory ranking with the file content, then
// revalidates.
func (p *ProjectFiles) Load() error {
	data, err := p.file.read()
	if err != nil {
		return err
	}
	members, err := decodeObject(data)
	if err != nil {
		return p.file.malformed(err)
	}

	caches := make(map[string]*cache.Weighted[string], len(members))
	for _, m := range members {
		var paths []string
		if err := json.Unmarshal(m.value, &paths); err != nil {
			return p.file.malformed(fmt.Errorf("project %q: %w", m.key, err))
		}
		w := cache.NewWeighted[string](p.capacity)
		for _, path := range slices.Backward(paths) {
			w.Put(path)
		}
		caches[m.key] = w
	}
	p.caches = caches
	p.Revalidate()
	return nil
}

// Save revalidates and writes the ranking.
func (p *ProjectFiles) Save() error {
	p.Revalidate()

	names := p.Projects()
	members := make([]member, 0, len(names))
	for _, name := range names {
		v, err := stringList(p.caches[name].Newest(), indent)
		if err != nil {
			return err
		}
		members = append(members, member{key: name, value: v})
	}
	data, err := encodeObject(members)
	if err != nil {
		return err
	}
	_, err = p.file.write(data)
	return err
}

// Revalidate drops projects that are no longer registered and files that are
// relative or missing. Projects left without files are removed. It returns
// the dropped entries.
func (p *ProjectFiles) Revalidate() []string {
	var pruned []string
	for name, w := range p.caches {
		if !p.registered(name) {
			pruned = append(pruned, name)
			delete(p.caches, name)
			continue
		}
		for _, path := range w.Keys() {
			if !filepath.IsAbs(path) || !p.exists(path) {
				w.Delete(path)
				pruned = append(pruned, path)
			}
		}
		if w.Len() == 0 {
			delete(p.caches, name)
		}
	}
	sort.Strings(pruned)
	report(p.onPrune, p.logger, p.file.path, pruned)
	return pruned
}
