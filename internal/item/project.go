package item

import (
	"path/filepath"
	"slices"
	"strings"
)

// Project is a registered or discovered project root.
type Project struct {
	Display
	Root string
}

// NewProject creates a project item for an absolute root directory.
func NewProject(root, home string) (*Project, error) {
	if err := requireAbs(root); err != nil {
		return nil, err
	}
	root = strings.TrimSuffix(root, string(filepath.Separator))
	if root == "" {
		root = string(filepath.Separator)
	}
	return &Project{
		Display: Display{
			label:       filepath.Base(root),
			description: Tildify(root, home),
			alwaysShow:  true,
		},
		Root: root,
	}, nil
}

// Name is the registry key of the project (its base name).
func (p *Project) Name() string { return p.label }

// ProjectFile is a file listed under one or more project roots. A single
// instance is shared by every root that lists the same path.
type ProjectFile struct {
	Display
	Path  string
	Roots []string
}

// NewProjectFile creates a project file item. The description is the path
// relative to root.
func NewProjectFile(root, path string) (*ProjectFile, error) {
	if err := requireAbs(path); err != nil {
		return nil, err
	}
	rel := strings.TrimPrefix(path, root)
	rel = strings.TrimPrefix(rel, string(filepath.Separator))
	return &ProjectFile{
		Display: Display{
			label:       filepath.Base(path),
			description: rel,
			alwaysShow:  true,
		},
		Path:  path,
		Roots: []string{root},
	}, nil
}

// AddRoot records another project root containing the file.
func (f *ProjectFile) AddRoot(root string) {
	if !slices.Contains(f.Roots, root) {
		f.Roots = append(f.Roots, root)
	}
}

// FirstRoot returns the root the file was first seen under.
func (f *ProjectFile) FirstRoot() string {
	if len(f.Roots) == 0 {
		return ""
	}
	return f.Roots[0]
}
