package host

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(t *testing.T, command, format string) *ExecEditor {
	t.Helper()
	e, err := NewExecEditor(ExecEditorConfig{Command: command, LineArgFormat: format, Active: "/src/app"})
	require.NoError(t, err)
	return e
}

func TestExecEditor_Command(t *testing.T) {
	tests := []struct {
		name    string
		command string
		format  string
		opts    OpenOptions
		want    []string
	}{
		{
			name:    "no position",
			command: "nvim",
			want:    []string{"nvim", "/src/app/main.go"},
		},
		{
			name:    "default line format is 1-based",
			command: "nvim",
			opts:    OpenOptions{HasSelection: true, Line: 9, Column: 2},
			want:    []string{"nvim", "+10", "/src/app/main.go"},
		},
		{
			name:    "custom format with quoted command",
			command: `code --wait`,
			format:  "--goto {path}:{line}:{column}",
			opts:    OpenOptions{HasSelection: true, Line: 9, Column: 2},
			want:    []string{"code", "--wait", "--goto", "/src/app/main.go:10:3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t, tt.command, tt.format)
			got := e.Command(OpenRequest{Path: "/src/app/main.go", Opts: tt.opts})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewExecEditor_InvalidCommand(t *testing.T) {
	_, err := NewExecEditor(ExecEditorConfig{Command: `vim "unterminated`})
	assert.Error(t, err)
}

func TestDefaultEditorCommand(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	assert.Equal(t, "vi", DefaultEditorCommand())

	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", DefaultEditorCommand())

	t.Setenv("VISUAL", "emacs")
	assert.Equal(t, "emacs", DefaultEditorCommand())
}

func TestExecEditor_OpenNotifiesListeners(t *testing.T) {
	e := newEditor(t, "vi", "")
	doc, ok := e.ActiveDocument()
	require.True(t, ok)
	assert.Equal(t, "/src/app", doc)

	var opened []string
	e.OnFileOpened(func(path string) { opened = append(opened, path) })

	col, err := e.Open(t.Context(), "/src/app/a.go", OpenOptions{})
	require.NoError(t, err)
	assert.Equal(t, ColumnActive, col)
	assert.Equal(t, []string{"/src/app/a.go"}, opened)

	doc, _ = e.ActiveDocument()
	assert.Equal(t, "/src/app/a.go", doc)
	assert.Equal(t, []OpenRequest{{Path: "/src/app/a.go"}}, e.Pending())
}

func TestExecEditor_PreviewColumn(t *testing.T) {
	e := newEditor(t, "vi", "")
	var opened []string
	e.OnFileOpened(func(path string) { opened = append(opened, path) })

	assert.Equal(t, []int{ColumnActive}, e.VisibleColumns())

	opts := OpenOptions{HasSelection: true, Line: 3, Preview: true}
	col, err := e.Open(t.Context(), "/src/app/b.go", opts)
	require.NoError(t, err)
	assert.Equal(t, ColumnBeside, col)
	assert.Equal(t, []int{ColumnActive, ColumnBeside}, e.VisibleColumns())

	preview, ok := e.Preview()
	require.True(t, ok)
	assert.Equal(t, OpenRequest{Path: "/src/app/b.go", Opts: opts}, preview)

	// Previews neither take focus nor queue a launch.
	assert.Empty(t, opened)
	assert.Empty(t, e.Pending())
	doc, _ := e.ActiveDocument()
	assert.Equal(t, "/src/app", doc)

	require.NoError(t, e.CloseGroup(t.Context(), ColumnActive))
	assert.Len(t, e.VisibleColumns(), 2)
	require.NoError(t, e.CloseGroup(t.Context(), ColumnBeside))
	_, ok = e.Preview()
	assert.False(t, ok)
	assert.Equal(t, []int{ColumnActive}, e.VisibleColumns())
}

func TestExecEditor_Flush(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	e := newEditor(t, "true", "")

	require.NoError(t, e.Flush(t.Context()))

	_, err := e.Open(t.Context(), "/src/app/a.go", OpenOptions{})
	require.NoError(t, err)
	require.NoError(t, e.Flush(t.Context()))
	assert.Empty(t, e.Pending())
}

func TestExecEditor_FlushFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	e := newEditor(t, "false", "")
	_, err := e.Open(t.Context(), "/src/app/a.go", OpenOptions{})
	require.NoError(t, err)

	err = e.Flush(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "running editor")
	assert.Empty(t, e.Pending())
}
