package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutosaver_StopSaves(t *testing.T) {
	s, _ := newTestStore(t)
	f := touch(t, filepath.Join(t.TempDir(), "note.txt"))

	a, err := NewAutosaver(s, time.Hour, nil, nil)
	require.NoError(t, err)
	a.Start()

	s.Do(func() { s.Recent.Put(f) })
	require.NoError(t, a.Stop())

	assert.Contains(t, readFile(t, s.Recent.Path()), f)
}

func TestAutosaver_UsesRunner(t *testing.T) {
	s, _ := newTestStore(t)
	f := touch(t, filepath.Join(t.TempDir(), "note.txt"))
	s.Recent.Put(f)

	ran := make(chan struct{}, 1)
	run := func(fn func()) {
		fn()
		select {
		case ran <- struct{}{}:
		default:
		}
	}
	a, err := NewAutosaver(s, time.Second, run, nil)
	require.NoError(t, err)
	a.Start()
	defer a.Stop()

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("autosave did not run")
	}
	assert.Contains(t, readFile(t, s.Recent.Path()), f)
}

func TestWatcher_ReloadsProjectList(t *testing.T) {
	s, _ := newTestStore(t)
	root := t.TempDir()

	reloaded := make(chan struct{}, 1)
	w, err := NewWatcher(s, nil, func() {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Ensure the new mtime is observable on filesystems with coarse timestamps.
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.WriteFile(s.Projects.Path(), []byte(`{"ext": "`+root+`"}`), 0o644))
	require.NoError(t, os.Chtimes(s.Projects.Path(), future, future))

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("project list was not reloaded")
	}
	s.Do(func() {
		got, ok := s.Projects.Peek("ext")
		assert.True(t, ok)
		assert.Equal(t, root, got)
	})
}
