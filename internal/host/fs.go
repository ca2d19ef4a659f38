// Package host defines the collaborators consult consumes from its host
// (filesystem, workspace, editor) and local implementations of them used by
// the command line front end.
package host

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sunhs/consult.code/internal/item"
)

// DirEntry is one entry of a directory listing.
type DirEntry struct {
	Name string
	Kind item.Kind
}

// FS lists directories and stats paths.
type FS interface {
	ReadDir(ctx context.Context, dir string) ([]DirEntry, error)
	Stat(ctx context.Context, path string) (item.Kind, error)
}

// LocalFS implements FS on the local filesystem.
type LocalFS struct{}

var _ FS = LocalFS{}

// ReadDir lists dir in directory order. Symlinks carry the kind of their
// target in addition to KindSymlink; dangling links are reported as files.
func (LocalFS) ReadDir(ctx context.Context, dir string) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make([]DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirEntry{Name: e.Name(), Kind: kindOf(filepath.Join(dir, e.Name()), e.Type())})
	}
	return out, nil
}

// Stat returns the kind of path.
func (LocalFS) Stat(ctx context.Context, path string) (item.Kind, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return 0, err
	}
	return kindOf(path, info.Mode().Type()), nil
}

func kindOf(path string, mode fs.FileMode) item.Kind {
	if mode&fs.ModeSymlink == 0 {
		if mode.IsDir() {
			return item.KindDir
		}
		return item.KindFile
	}
	target, err := os.Stat(path)
	if err == nil && target.IsDir() {
		return item.KindDir | item.KindSymlink
	}
	return item.KindFile | item.KindSymlink
}

// Exists reports whether path exists on the local filesystem.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

// IsDir reports whether path (following links) is a directory.
func IsDir(ctx context.Context, fsys FS, path string) bool {
	kind, err := fsys.Stat(ctx, path)
	return err == nil && kind.IsDir()
}
