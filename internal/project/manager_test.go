package project

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/consult/consulttest"
	"github.com/sunhs/consult.code/internal/filebrowser"
	"github.com/sunhs/consult.code/internal/item"
)

type managerEnv struct {
	*env
	manager  *Manager
	browser  *filebrowser.Browser
	factory  *consulttest.Factory
	editor   *consulttest.Editor
	context  *consulttest.Context
	notifier *consulttest.Notifier
}

func newManagerEnv(t *testing.T) *managerEnv {
	t.Helper()
	e := newEnv(t, Config{})
	f := consulttest.NewFactory()
	ed := &consulttest.Editor{}
	cx := &consulttest.Context{}
	n := &consulttest.Notifier{}

	b, err := filebrowser.New(f.New, filebrowser.Config{Editor: ed, Context: cx, Notifier: n, Home: e.home})
	require.NoError(t, err)
	m := NewManager(f.New, ManagerConfig{
		Store:     e.store,
		Resolver:  e.resolver,
		Browser:   b,
		Workspace: e.ws,
		Editor:    ed,
		Context:   cx,
		Notifier:  n,
		Home:      e.home,
	})
	return &managerEnv{env: e, manager: m, browser: b, factory: f, editor: ed, context: cx, notifier: n}
}

func (me *managerEnv) drain() { me.factory.Loop.Drain() }

func itemByLabel(t *testing.T, items []item.Item, label string) item.Item {
	t.Helper()
	for _, it := range items {
		if it.Label() == label {
			return it
		}
	}
	t.Fatalf("no item labelled %q", label)
	return nil
}

func TestOpenProject(t *testing.T) {
	me := newManagerEnv(t)
	ctx := context.Background()
	alpha := me.mkdir(t, "alpha")
	beta := me.mkdir(t, "beta")
	me.store.Projects.Set("alpha", alpha)
	me.store.Projects.Set("beta", beta)

	require.NoError(t, me.manager.OpenProject(ctx))
	w := me.factory.Last()
	assert.Equal(t, TitleSelectProject, w.Title)
	assert.Equal(t, []string{"beta", "alpha"}, w.Labels())
	assert.Equal(t, "~/beta", w.Items()[0].Description())
	assert.True(t, me.context.Get(consult.FlagInProjectManager))

	w.Accept(itemByLabel(t, w.Items(), "alpha"))
	me.drain()

	assert.Equal(t, []string{alpha}, me.ws.Folders())
	assert.Equal(t, []string{"alpha", "beta"}, me.store.Projects.Names())
	assert.False(t, me.manager.Session().Active())
	assert.False(t, me.context.Get(consult.FlagInProjectManager))
}

func TestFindFileFromAllProjects(t *testing.T) {
	me := newManagerEnv(t)
	ctx := context.Background()
	root := me.mkdir(t, "app")
	main := me.write(t, "app/cmd/main.go")
	me.write(t, "app/README.md")
	me.store.Projects.Set("app", root)

	require.NoError(t, me.manager.FindFileFromAllProjects(ctx))
	w := me.factory.Last()

	w.Type("ap")
	me.drain()
	assert.Equal(t, []string{"app"}, w.Labels())

	w.Accept(w.Items()[0])
	me.drain()
	assert.Equal(t, "app", w.Title)
	assert.Equal(t, "", w.Value())
	assert.ElementsMatch(t, []string{"README.md", "main.go"}, w.Labels())

	// File lists filter on the project-relative path.
	w.Type("cmd")
	me.drain()
	assert.Equal(t, []string{"main.go"}, w.Labels())

	w.Accept(w.Items()[0])
	me.drain()
	assert.Equal(t, []string{main}, me.editor.Paths())
	assert.False(t, me.manager.Session().Active())
}

func TestFindFileFromWorkspaceProjects(t *testing.T) {
	me := newManagerEnv(t)
	root := me.mkdir(t, "ws")
	me.write(t, "ws/x.txt")
	require.NoError(t, me.ws.Add(root))

	require.NoError(t, me.manager.FindFileFromWorkspaceProjects(context.Background()))
	w := me.factory.Last()
	assert.Equal(t, TitleSelectWorkspaceProject, w.Title)
	assert.Equal(t, []string{"ws"}, w.Labels())

	w.Accept(w.Items()[0])
	me.drain()
	assert.Equal(t, []string{"x.txt"}, w.Labels())
	got, _ := me.store.Projects.Peek("ws")
	assert.Equal(t, root, got)
}

func TestFindFileFromCurrentProject(t *testing.T) {
	t.Run("active document", func(t *testing.T) {
		me := newManagerEnv(t)
		me.write(t, "app/go.mod")
		me.write(t, "app/lib.go")
		me.editor.Active = me.write(t, "app/main.go")

		require.NoError(t, me.manager.FindFileFromCurrentProject(context.Background()))
		w := me.factory.Last()
		assert.Equal(t, "app", w.Title)
		assert.Equal(t, []string{"go.mod", "lib.go"}, w.Labels())
	})

	t.Run("single workspace folder", func(t *testing.T) {
		me := newManagerEnv(t)
		root := me.mkdir(t, "only")
		me.write(t, "only/a.txt")
		require.NoError(t, me.ws.Add(root))

		require.NoError(t, me.manager.FindFileFromCurrentProject(context.Background()))
		assert.Equal(t, []string{"a.txt"}, me.factory.Last().Labels())
	})

	t.Run("falls back to all projects", func(t *testing.T) {
		me := newManagerEnv(t)
		me.editor.Active = me.write(t, "loose.txt")

		require.NoError(t, me.manager.FindFileFromCurrentProject(context.Background()))
		assert.Equal(t, []string{MsgCannotInferProject}, me.notifier.Errors)
		assert.Equal(t, TitleSelectProject, me.factory.Last().Title)
	})
}

func TestDeleteWorkspaceProject(t *testing.T) {
	me := newManagerEnv(t)
	ctx := context.Background()

	require.NoError(t, me.manager.DeleteWorkspaceProject(ctx))
	assert.Empty(t, me.factory.Widgets)

	a := me.mkdir(t, "a")
	b := me.mkdir(t, "b")
	require.NoError(t, me.ws.Add(a))
	require.NoError(t, me.ws.Add(b))

	require.NoError(t, me.manager.DeleteWorkspaceProject(ctx))
	w := me.factory.Last()
	w.Accept(itemByLabel(t, w.Items(), "a"))
	me.drain()
	assert.Equal(t, []string{b}, me.ws.Folders())
	assert.False(t, me.manager.Session().Active())
}

func TestAddProject(t *testing.T) {
	me := newManagerEnv(t)
	ctx := context.Background()
	dir := me.mkdir(t, "newproj")
	me.write(t, "file.txt")

	require.NoError(t, me.manager.AddProject(ctx))
	assert.True(t, me.context.Get(consult.FlagInProjectManager))
	assert.True(t, me.context.Get(consult.FlagInFileBrowser))

	// Nothing highlighted.
	require.NoError(t, me.manager.ConfirmAddProject(ctx))
	assert.Zero(t, me.store.Projects.Len())

	w := me.factory.Last()
	files := me.browser.Session().Items()
	var fileItem, dirItem *item.File
	for _, f := range files {
		switch f.Path {
		case dir:
			dirItem = f
		case filepath.Join(me.home, "file.txt"):
			fileItem = f
		}
	}
	require.NotNil(t, dirItem)
	require.NotNil(t, fileItem)

	w.Highlight(fileItem)
	me.drain()
	require.NoError(t, me.manager.ConfirmAddProject(ctx))
	assert.Len(t, me.notifier.Warns, 1)
	assert.Zero(t, me.store.Projects.Len())

	w.Highlight(dirItem)
	me.drain()
	require.NoError(t, me.manager.ConfirmAddProject(ctx))
	me.drain()

	got, ok := me.store.Projects.Peek("newproj")
	require.True(t, ok)
	assert.Equal(t, dir, got)
	assert.Equal(t, []string{MsgProjectAdded}, me.notifier.Infos)
	assert.False(t, me.browser.Session().Active())
	assert.False(t, me.context.Get(consult.FlagInProjectManager))
}

func TestProjectListFile(t *testing.T) {
	me := newManagerEnv(t)
	assert.Equal(t, filepath.Join(me.home, ".consult", "projects.json"), me.manager.ProjectListFile())
}
