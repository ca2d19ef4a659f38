package host

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunhs/consult.code/internal/item"
)

func TestLocalFS_Kinds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(dir, "sub"), filepath.Join(dir, "link-dir")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "file.txt"), filepath.Join(dir, "link-file")))
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing"), filepath.Join(dir, "dangling")))

	entries, err := LocalFS{}.ReadDir(t.Context(), dir)
	require.NoError(t, err)

	got := make(map[string]item.Kind, len(entries))
	for _, e := range entries {
		got[e.Name] = e.Kind
	}
	assert.Equal(t, map[string]item.Kind{
		"file.txt":  item.KindFile,
		"sub":       item.KindDir,
		"link-dir":  item.KindDir | item.KindSymlink,
		"link-file": item.KindFile | item.KindSymlink,
		"dangling":  item.KindFile | item.KindSymlink,
	}, got)

	kind, err := LocalFS{}.Stat(t.Context(), filepath.Join(dir, "link-dir"))
	require.NoError(t, err)
	assert.Equal(t, item.KindDir|item.KindSymlink, kind)

	assert.True(t, IsDir(t.Context(), LocalFS{}, filepath.Join(dir, "link-dir")))
	assert.False(t, IsDir(t.Context(), LocalFS{}, filepath.Join(dir, "file.txt")))
	assert.False(t, IsDir(t.Context(), LocalFS{}, filepath.Join(dir, "missing")))
}

func TestLocalFS_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := LocalFS{}.ReadDir(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = LocalFS{}.Stat(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Exists(dir))
	assert.False(t, Exists(filepath.Join(dir, "missing")))
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewConsoleNotifier(&buf, nil)

	n.Info("project added")
	n.Warn("watch failed")
	n.Error("cannot infer current project")

	out := buf.String()
	assert.Contains(t, out, "project added")
	assert.Contains(t, out, "watch failed")
	assert.Contains(t, out, "cannot infer current project")
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte("\n")))
}
