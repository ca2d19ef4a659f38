package project

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sunhs/consult.code/internal/filter"
	"github.com/sunhs/consult.code/internal/item"
)

// ListFiles walks the project root and returns its files, most recently
// opened first. Paths matching the filter globs or the project's dot-ignore
// files are skipped, as is activePath. Items are shared across projects: a
// file listed under a second root gains that root instead of a new item.
func (r *Resolver) ListFiles(ctx context.Context, p *item.Project, activePath string) ([]*item.ProjectFile, error) {
	patterns, err := filter.ProjectPatterns(p.Root, r.cfg.FilterGlobs, r.cfg.DotIgnoreFiles)
	if err != nil {
		return nil, fmt.Errorf("reading ignore files of %s: %w", p.Root, err)
	}
	matcher, err := filter.Compile(patterns)
	if err != nil {
		return nil, err
	}

	var files []*item.ProjectFile
	if err := r.walk(ctx, p.Root, "", matcher, func(path string) error {
		if path == activePath {
			return nil
		}
		f, ok := r.files.Get(path)
		if ok {
			f.AddRoot(p.Root)
		} else {
			f, err = item.NewProjectFile(p.Root, path)
			if err != nil {
				return err
			}
			r.files.Set(path, f)
		}
		files = append(files, f)
		return nil
	}); err != nil {
		return nil, err
	}

	name := p.Name()
	sort.SliceStable(files, func(i, j int) bool {
		return r.store.ProjectFiles.Weight(name, files[i].Path) > r.store.ProjectFiles.Weight(name, files[j].Path)
	})
	return files, nil
}

// walk visits regular files below dir. Symlinked directories are not
// followed.
func (r *Resolver) walk(ctx context.Context, dir, rel string, m *filter.Matcher, visit func(path string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := r.fs.ReadDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}

	for _, e := range entries {
		childRel := e.Name
		if rel != "" {
			childRel = rel + "/" + e.Name
		}
		if m.Match(childRel) {
			continue
		}
		path := filepath.Join(dir, e.Name)
		switch {
		case e.Kind.IsDir() && e.Kind.IsSymlink():
			continue
		case e.Kind.IsDir():
			if err := r.walk(ctx, path, childRel, m, visit); err != nil {
				return err
			}
		default:
			if err := visit(path); err != nil {
				return err
			}
		}
	}
	return nil
}
