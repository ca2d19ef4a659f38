package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile(t *testing.T) {
	t.Run("rejects relative path", func(t *testing.T) {
		f, err := NewFile("relative/path", KindFile)
		require.ErrorIs(t, err, ErrNotAbsolute)
		assert.Nil(t, f)
	})

	t.Run("absolute path uses base name as label", func(t *testing.T) {
		f, err := NewFile("/abs/path", KindFile)
		require.NoError(t, err)
		assert.Equal(t, "path", f.Label())
		assert.Equal(t, "", f.Description())
		assert.True(t, f.AlwaysShow())
		assert.True(t, f.Visible())
	})

	t.Run("path description is home relative", func(t *testing.T) {
		f, err := NewFile("/home/u/src/main.go", KindFile, WithPathDescription("/home/u"))
		require.NoError(t, err)
		assert.Equal(t, "~/src/main.go", f.Description())
	})
}

func TestDisplay_Visibility(t *testing.T) {
	f, err := NewFile("/tmp/x", KindFile)
	require.NoError(t, err)

	f.SetVisible(false)
	assert.False(t, f.Visible())
	f.SetVisible(true)
	assert.True(t, f.Visible())
}

func TestKind(t *testing.T) {
	tests := []struct {
		kind  Kind
		isDir bool
		str   string
	}{
		{KindFile, false, "file"},
		{KindDir, true, "dir"},
		{KindDir | KindSymlink, true, "symlink-dir"},
		{KindFile | KindSymlink, false, "symlink-file"},
		{0, false, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.str, func(t *testing.T) {
			assert.Equal(t, tt.isDir, tt.kind.IsDir())
			assert.Equal(t, tt.str, tt.kind.String())
		})
	}
}

func TestTildify(t *testing.T) {
	assert.Equal(t, "~/a/b", Tildify("/home/u/a/b", "/home/u"))
	assert.Equal(t, "~", Tildify("/home/u", "/home/u"))
	assert.Equal(t, "/home/user2/a", Tildify("/home/user2/a", "/home/u"))
	assert.Equal(t, "/etc/hosts", Tildify("/etc/hosts", ""))
}

func TestNewProject(t *testing.T) {
	p, err := NewProject("/home/u/code/consult/", "/home/u")
	require.NoError(t, err)
	assert.Equal(t, "consult", p.Label())
	assert.Equal(t, "consult", p.Name())
	assert.Equal(t, "~/code/consult", p.Description())
	assert.Equal(t, "/home/u/code/consult", p.Root)

	_, err = NewProject("code/consult", "/home/u")
	assert.ErrorIs(t, err, ErrNotAbsolute)
}

func TestProjectFile_SharedRoots(t *testing.T) {
	f, err := NewProjectFile("/src/proj", "/src/proj/pkg/a.go")
	require.NoError(t, err)
	assert.Equal(t, "a.go", f.Label())
	assert.Equal(t, "pkg/a.go", f.Description())

	f.AddRoot("/src")
	f.AddRoot("/src/proj")
	assert.Equal(t, []string{"/src/proj", "/src"}, f.Roots)
	assert.Equal(t, "/src/proj", f.FirstRoot())
}

func TestNewGrep_ConvertsToZeroBased(t *testing.T) {
	g := NewGrep("/home/u/p/main.go", "main.go", 12, 5, "func main() {", "/home/u")
	assert.Equal(t, 11, g.Line)
	assert.Equal(t, 4, g.Column)
	assert.Equal(t, "func main() {", g.Label())
	assert.Equal(t, "main.go:12:5", g.Detail())
}
