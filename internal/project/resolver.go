// Package project resolves which project a path belongs to, lists project
// files ranked by recent use, and provides the project manager pickers.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sunhs/consult.code/internal/cache"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
	"github.com/sunhs/consult.code/internal/store"
)

// DefaultFileItemLimit bounds the shared project file item map.
const DefaultFileItemLimit = 1000

// Config holds the resolver settings.
type Config struct {
	// MarkerFiles are names whose presence marks a directory as a project root.
	MarkerFiles []string
	// DotIgnoreFiles are read from a project root for extra exclusion globs.
	DotIgnoreFiles []string
	// FilterGlobs exclude files from every listing.
	FilterGlobs []string
	// ExcludeAsProject are directories never treated as project roots.
	ExcludeAsProject []string
	FileItemLimit    int
	Home             string
}

// Resolver maps paths to project roots.
type Resolver struct {
	store  *store.Store
	fs     host.FS
	ws     host.Workspace
	cfg    Config
	files  *cache.FixedMap[string, *item.ProjectFile]
	logger *slog.Logger
}

// NewResolver creates a resolver backed by the store's project list.
func NewResolver(st *store.Store, fsys host.FS, ws host.Workspace, cfg Config, logger *slog.Logger) *Resolver {
	if cfg.FileItemLimit <= 0 {
		cfg.FileItemLimit = DefaultFileItemLimit
	}
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if fsys == nil {
		fsys = host.LocalFS{}
	}
	if ws == nil {
		ws = host.NewMemoryWorkspace()
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ExcludeAsProject = absDirs(cfg.ExcludeAsProject, cfg.Home)
	return &Resolver{
		store:  st,
		fs:     fsys,
		ws:     ws,
		cfg:    cfg,
		files:  cache.NewFixedMap[string, *item.ProjectFile](cfg.FileItemLimit),
		logger: logger.With("component", "resolver"),
	}
}

// Resolve finds the project root of path. Sources are tried in order:
// previously listed project files, workspace folders, registered projects
// (newest first), then an upward search for marker files that stops at the
// filesystem root, the home directory or an excluded directory.
func (r *Resolver) Resolve(ctx context.Context, path string) (string, bool, error) {
	if f, ok := r.files.Get(path); ok {
		if root := f.FirstRoot(); root != "" {
			return root, true, nil
		}
	}

	if folder, ok := r.ws.FolderFor(path); ok {
		return folder, true, nil
	}

	for _, root := range r.store.Projects.Roots() {
		if within(root, path) {
			return root, true, nil
		}
	}

	return r.search(ctx, path)
}

func (r *Resolver) search(ctx context.Context, path string) (string, bool, error) {
	dir := path
	if !host.IsDir(ctx, r.fs, path) {
		dir = filepath.Dir(path)
	}

	for {
		if dir == string(filepath.Separator) || dir == r.cfg.Home || slices.Contains(r.cfg.ExcludeAsProject, dir) {
			break
		}
		entries, err := r.fs.ReadDir(ctx, dir)
		if err != nil {
			return "", false, fmt.Errorf("searching project root of %s: %w", path, err)
		}
		for _, e := range entries {
			if slices.Contains(r.cfg.MarkerFiles, e.Name) {
				return dir, true, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	r.logger.Debug("no project found", "path", path)
	return "", false, nil
}

// AddOrUpdate resolves path and registers the root under its base name,
// replacing whatever root held that name before. The project list is saved.
func (r *Resolver) AddOrUpdate(ctx context.Context, path string) (string, bool, error) {
	root, ok, err := r.Resolve(ctx, path)
	if err != nil || !ok {
		return "", false, err
	}
	if err := r.Register(root); err != nil {
		return root, true, err
	}
	return root, true, nil
}

// Register records root as the most recent project and saves the list.
func (r *Resolver) Register(root string) error {
	root = filepath.Clean(root)
	r.store.Projects.Set(Name(root), root)
	if err := r.store.Projects.Save(); err != nil {
		return fmt.Errorf("saving project list: %w", err)
	}
	return nil
}

// absDirs expands a leading ~ to home and cleans each dir. Relative
// entries can never equal a walked directory and are dropped.
func absDirs(dirs []string, home string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "~" || strings.HasPrefix(d, "~/") {
			if home == "" {
				continue
			}
			d = home + d[1:]
		}
		if !filepath.IsAbs(d) {
			continue
		}
		out = append(out, filepath.Clean(d))
	}
	return out
}

// Name returns the registry key of a project root.
func Name(root string) string {
	return filepath.Base(filepath.Clean(root))
}

// within reports whether path is root or lies below it. The separator check
// keeps /foo from claiming /foobar.
func within(root, path string) bool {
	root = filepath.Clean(root)
	if path == root {
		return true
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	return strings.HasPrefix(path, root)
}
