package host

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrNotInWorkspace is returned when removing a folder that is not open.
var ErrNotInWorkspace = errors.New("folder not in workspace")

// Workspace is the set of folders the host has open.
type Workspace interface {
	Folders() []string
	// FolderFor returns the workspace folder containing path.
	FolderFor(path string) (string, bool)
	Add(folder string) error
	Remove(folder string) error
	// OnFoldersAdded registers fn to be called with newly added folders.
	OnFoldersAdded(fn func(folders []string))
}

// MemoryWorkspace is an in-process Workspace. It is safe for concurrent use.
type MemoryWorkspace struct {
	mu        sync.Mutex
	folders   []string
	listeners []func([]string)
}

var _ Workspace = (*MemoryWorkspace)(nil)

// NewMemoryWorkspace creates a workspace with the given folders.
func NewMemoryWorkspace(folders ...string) *MemoryWorkspace {
	w := &MemoryWorkspace{}
	for _, f := range folders {
		f = filepath.Clean(f)
		if filepath.IsAbs(f) && !slices.Contains(w.folders, f) {
			w.folders = append(w.folders, f)
		}
	}
	return w
}

// Folders returns the open folders in the order they were added.
func (w *MemoryWorkspace) Folders() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.folders)
}

// FolderFor returns the innermost folder that contains path.
func (w *MemoryWorkspace) FolderFor(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	best := ""
	for _, f := range w.folders {
		if contains(f, path) && len(f) > len(best) {
			best = f
		}
	}
	return best, best != ""
}

// Add opens folder. Adding an open folder is a no-op.
func (w *MemoryWorkspace) Add(folder string) error {
	if !filepath.IsAbs(folder) {
		return fmt.Errorf("workspace folder must be absolute: %s", folder)
	}
	folder = filepath.Clean(folder)

	w.mu.Lock()
	if slices.Contains(w.folders, folder) {
		w.mu.Unlock()
		return nil
	}
	w.folders = append(w.folders, folder)
	listeners := slices.Clone(w.listeners)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn([]string{folder})
	}
	return nil
}

// Remove closes folder.
func (w *MemoryWorkspace) Remove(folder string) error {
	folder = filepath.Clean(folder)

	w.mu.Lock()
	defer w.mu.Unlock()
	idx := slices.Index(w.folders, folder)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotInWorkspace, folder)
	}
	w.folders = slices.Delete(w.folders, idx, idx+1)
	return nil
}

// OnFoldersAdded registers fn.
func (w *MemoryWorkspace) OnFoldersAdded(fn func(folders []string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// contains reports whether path is dir or lies below it.
func contains(dir, path string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}
