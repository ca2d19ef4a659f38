package grep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/consult/consulttest"
	"github.com/sunhs/consult.code/internal/filebrowser"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
	"github.com/sunhs/consult.code/internal/project"
	"github.com/sunhs/consult.code/internal/store"
)

type fakeSearcher struct {
	requests []Request
	matches  []Match
	err      error
}

func (f *fakeSearcher) Search(_ context.Context, req Request) ([]Match, error) {
	f.requests = append(f.requests, req)
	return f.matches, f.err
}

func (f *fakeSearcher) queries() []string {
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Query
	}
	return out
}

type grepEnv struct {
	home     string
	root     string
	picker   *Picker
	browser  *filebrowser.Browser
	searcher *fakeSearcher
	factory  *consulttest.Factory
	editor   *consulttest.Editor
	notifier *consulttest.Notifier
	clock    *consulttest.Clock
	ws       *host.MemoryWorkspace
}

func newGrepEnv(t *testing.T) *grepEnv {
	t.Helper()
	home := t.TempDir()
	root := filepath.Join(home, "code", "app")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("dist\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), nil, 0o644))

	st := store.New(store.Config{Dir: filepath.Join(home, ".consult")})
	require.NoError(t, st.LoadAll())
	ws := host.NewMemoryWorkspace()
	resolver := project.NewResolver(st, host.LocalFS{}, ws, project.Config{
		MarkerFiles:    []string{".git"},
		DotIgnoreFiles: []string{".gitignore"},
		Home:           home,
	}, nil)

	f := consulttest.NewFactory()
	ed := &consulttest.Editor{}
	n := &consulttest.Notifier{}
	clock := consulttest.NewClock()
	b, err := filebrowser.New(f.New, filebrowser.Config{Editor: ed, Context: &consulttest.Context{}, Notifier: n, Home: home})
	require.NoError(t, err)

	s := &fakeSearcher{}
	p := New(f.New, Config{
		Searcher:       s,
		Resolver:       resolver,
		Browser:        b,
		Workspace:      ws,
		Editor:         ed,
		Notifier:       n,
		Loop:           f.Loop,
		FilterGlobs:    []string{"node_modules"},
		DotIgnoreFiles: []string{".gitignore"},
		Home:           home,
		Go:             func(fn func()) { fn() },
		Clock:          []DebounceOption{WithClock(clock.Now, clock.AfterFunc)},
	})
	return &grepEnv{
		home: home, root: root, picker: p, browser: b, searcher: s,
		factory: f, editor: ed, notifier: n, clock: clock, ws: ws,
	}
}

func (e *grepEnv) drain() { e.factory.Loop.Drain() }

func (e *grepEnv) advance(d time.Duration) {
	e.clock.Advance(d)
	e.drain()
}

func TestGrepProject_FromActiveDocument(t *testing.T) {
	e := newGrepEnv(t)
	e.editor.Active = filepath.Join(e.root, "main.go")

	require.NoError(t, e.picker.GrepProject(context.Background()))
	w := e.factory.Last()
	assert.True(t, w.Shown)
	assert.Equal(t, "app", w.Title)
	assert.Equal(t, e.root, e.picker.Session().Dir())
}

func TestGrepProject_SingleWorkspaceFolder(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)

	require.NoError(t, e.picker.GrepProject(context.Background()))
	assert.Equal(t, "app", e.factory.Last().Title)
}

func TestGrepProject_CannotInfer(t *testing.T) {
	e := newGrepEnv(t)

	require.NoError(t, e.picker.GrepProject(context.Background()))
	assert.Nil(t, e.factory.Last())
	assert.Equal(t, []string{MsgCannotInferProject}, e.notifier.Errors)
}

func TestGrep_DebouncedSearch(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	e.searcher.matches = []Match{{Path: filepath.Join(e.root, "main.go"), Line: 3, Column: 7, Text: "package main"}}

	require.NoError(t, e.picker.GrepProject(context.Background()))
	w := e.factory.Last()

	w.Type("abc")
	e.drain()
	e.advance(500 * time.Millisecond)
	w.Type("abcd")
	e.drain()
	assert.Empty(t, e.searcher.requests)

	e.advance(500 * time.Millisecond)
	assert.Equal(t, []string{"abcd"}, e.searcher.queries())

	req := e.searcher.requests[0]
	assert.Equal(t, e.root, req.Dir)
	assert.Equal(t, []string{"node_modules"}, req.Exclude)
	assert.Equal(t, []string{filepath.Join(e.root, ".gitignore")}, req.IgnoreFiles)

	require.Len(t, w.Items(), 1)
	g := w.Items()[0].(*item.Grep)
	assert.Equal(t, "package main", g.Label())
	assert.Equal(t, "main.go:3:7", g.Detail())
	assert.Equal(t, 2, g.Line)
	assert.Equal(t, 6, g.Column)
}

func TestGrep_ImmediateSearchAfterQuietPeriod(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)

	require.NoError(t, e.picker.GrepProject(context.Background()))
	e.advance(2 * time.Second)
	e.factory.Last().Type("needle")
	e.drain()
	assert.Equal(t, []string{"needle"}, e.searcher.queries())
}

func TestGrep_ShortQueryClearsResults(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	e.searcher.matches = []Match{{Path: filepath.Join(e.root, "main.go"), Line: 1, Column: 1, Text: "x"}}

	require.NoError(t, e.picker.GrepProject(context.Background()))
	e.advance(2 * time.Second)
	w := e.factory.Last()
	w.Type("needle")
	e.drain()
	require.Len(t, w.Items(), 1)

	w.Type("ne")
	e.drain()
	assert.Empty(t, w.Items())
	assert.Len(t, e.searcher.requests, 1)
}

func TestGrep_StaleResultsDropped(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	e.searcher.matches = []Match{{Path: filepath.Join(e.root, "main.go"), Line: 1, Column: 1, Text: "x"}}

	var deferred []func()
	e.picker.cfg.Go = func(fn func()) { deferred = append(deferred, fn) }

	require.NoError(t, e.picker.GrepProject(context.Background()))
	e.advance(2 * time.Second)
	w := e.factory.Last()
	w.Type("needle")
	e.drain()
	w.Type("ne")
	e.drain()

	require.Len(t, deferred, 1)
	deferred[0]()
	e.drain()
	assert.Empty(t, w.Items())
}

func TestGrep_SearchError(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	e.searcher.err = errors.New("rg: regex parse error")

	require.NoError(t, e.picker.GrepProject(context.Background()))
	e.advance(2 * time.Second)
	e.factory.Last().Type("a(b")
	e.drain()
	assert.Equal(t, []string{"rg: regex parse error"}, e.notifier.Errors)
}

func TestGrep_PreviewAndAccept(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	path := filepath.Join(e.root, "main.go")
	e.searcher.matches = []Match{{Path: path, Line: 10, Column: 2, Text: "needle"}}

	require.NoError(t, e.picker.GrepProject(context.Background()))
	e.advance(2 * time.Second)
	w := e.factory.Last()
	w.Type("needle")
	e.drain()

	w.Highlight(w.Items()[0])
	e.drain()
	require.Len(t, e.editor.Opened, 1)
	assert.Equal(t, host.OpenOptions{HasSelection: true, Line: 9, Column: 1, Preview: true}, e.editor.Opened[0].Opts)
	assert.True(t, e.picker.PreviewGroupCreated())

	w.Accept()
	e.drain()
	assert.Equal(t, []string{path}, e.editor.Paths())
	assert.Equal(t, host.OpenOptions{HasSelection: true, Line: 9, Column: 1}, e.editor.Opened[1].Opts)
	assert.True(t, w.Hidden)
	assert.Equal(t, []int{host.ColumnBeside}, e.editor.Closed)
	assert.False(t, e.picker.Session().Active())
}

func TestGrep_PreviewIntoExistingGroupKeepsIt(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	e.editor.Columns = []int{host.ColumnActive, host.ColumnBeside}
	e.searcher.matches = []Match{{Path: filepath.Join(e.root, "main.go"), Line: 1, Column: 1, Text: "needle"}}

	require.NoError(t, e.picker.GrepProject(context.Background()))
	e.advance(2 * time.Second)
	w := e.factory.Last()
	w.Type("needle")
	e.drain()
	w.Highlight(w.Items()[0])
	e.drain()
	assert.False(t, e.picker.PreviewGroupCreated())

	w.Hide()
	e.drain()
	assert.Empty(t, e.editor.Closed)
}

func TestGrepIn_FallsBackToDirectory(t *testing.T) {
	e := newGrepEnv(t)
	dir := filepath.Join(e.home, "notes")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, e.picker.GrepIn(context.Background(), dir))
	assert.Equal(t, dir, e.factory.Last().Title)
	assert.Equal(t, dir, e.picker.Session().Dir())
}

func TestGrepDir_AcceptedDirectoryStartsSearch(t *testing.T) {
	e := newGrepEnv(t)
	ctx := context.Background()

	require.NoError(t, e.picker.GrepDir(ctx))
	bw := e.factory.Last()

	dir, err := item.NewFile(e.root, item.KindDir)
	require.NoError(t, err)
	bw.Accept(dir)
	e.drain()

	assert.True(t, bw.Hidden)
	assert.False(t, e.browser.Session().Active())
	assert.True(t, e.picker.Session().Active())
	assert.Equal(t, "app", e.factory.Last().Title)
}

func TestGrep_AlreadyActive(t *testing.T) {
	e := newGrepEnv(t)
	e.ws.Add(e.root)
	ctx := context.Background()

	require.NoError(t, e.picker.GrepProject(ctx))
	assert.ErrorIs(t, e.picker.GrepProject(ctx), consult.ErrSessionActive)
}
