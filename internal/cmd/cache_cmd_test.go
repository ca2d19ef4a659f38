package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunhs/consult.code/internal/store"
)

// seedCache writes a cache holding one project with one ranked file.
func seedCache(t *testing.T, e *testEnv) (root, file string) {
	t.Helper()
	root = filepath.Join(e.dir, "work", "app")
	require.NoError(t, os.MkdirAll(root, 0o755))
	file = filepath.Join(root, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main\n"), 0o644))

	st := store.New(store.Config{Dir: e.cacheDir})
	require.NoError(t, st.LoadAll())
	st.Projects.Set("app", root)
	st.ProjectFiles.Put("app", file)
	st.Recent.Put(file)
	require.NoError(t, st.SaveAll())
	return root, file
}

func TestCacheLoad(t *testing.T) {
	e := newTestEnv(t)
	seedCache(t, e)

	out, err := e.run(t, "cache", "load")
	require.NoError(t, err)
	assert.Contains(t, out, e.cacheDir)
	assert.Contains(t, out, "projects:      1")
	assert.Contains(t, out, "project files: 1 projects")
	assert.Contains(t, out, "recent files:  1")
}

func TestCacheShow(t *testing.T) {
	e := newTestEnv(t)
	root, file := seedCache(t, e)

	out, err := e.run(t, "cache", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "app "+root)
	assert.Contains(t, out, "    "+file)
	assert.Contains(t, out, filepath.Join(e.cacheDir, store.RecentFilesFile))
}

func TestCacheShow_Empty(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "cache", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Projects")
	assert.Contains(t, out, "Recent files")
}

func TestCacheRevalidate(t *testing.T) {
	e := newTestEnv(t)
	root, _ := seedCache(t, e)
	require.NoError(t, os.RemoveAll(root))

	// Loading already prunes; the notifications are reported on exit.
	out, err := e.run(t, "cache", "revalidate")
	require.NoError(t, err)
	assert.Contains(t, out, "missing entries")

	st := store.New(store.Config{Dir: e.cacheDir})
	require.NoError(t, st.LoadAll())
	assert.Equal(t, 0, st.Projects.Len())
	assert.Equal(t, 0, st.Recent.Len())
}

func TestCacheRevalidate_NothingToPrune(t *testing.T) {
	e := newTestEnv(t)
	seedCache(t, e)

	out, err := e.run(t, "cache", "revalidate")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to prune")
}

func TestCacheSave(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "cache", "save")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")
	for _, name := range []string{store.ProjectListFile, store.ProjectFilesFile, store.RecentFilesFile} {
		assert.FileExists(t, filepath.Join(e.cacheDir, name))
	}
}

func TestVersion(t *testing.T) {
	e := newTestEnv(t)

	out, err := e.run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "consult "+Version)
	assert.Contains(t, out, "commit: "+GitCommit)
}
