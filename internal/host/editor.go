package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/shlex"
	"golang.org/x/sys/execabs"
)

// View columns reported by Editor.Open.
const (
	ColumnActive = 1
	ColumnBeside = 2
)

// OpenOptions controls how a file is opened.
type OpenOptions struct {
	// HasSelection places the cursor at Line/Column (0-based).
	HasSelection bool
	Line         int
	Column       int
	// Preview opens the file without taking focus, beside the active column.
	Preview bool
}

// Editor opens documents.
type Editor interface {
	// Open shows path and returns the view column it was shown in.
	Open(ctx context.Context, path string, opts OpenOptions) (int, error)
	// ActiveDocument returns the path of the focused document, if any.
	ActiveDocument() (string, bool)
	// VisibleColumns returns the view columns currently showing editors.
	VisibleColumns() []int
	// CloseGroup closes the editor group in column.
	CloseGroup(ctx context.Context, column int) error
	// OnFileOpened registers fn to be called whenever a document gains focus.
	OnFileOpened(fn func(path string))
}

// OpenRequest is an Open call recorded by ExecEditor.
type OpenRequest struct {
	Path string
	Opts OpenOptions
}

// ExecEditorConfig configures ExecEditor.
type ExecEditorConfig struct {
	// Command is the editor command line, e.g. "nvim" or "code --wait".
	Command string
	// LineArgFormat is appended to Command when a position is known. The
	// placeholders {path}, {line} and {column} are 1-based.
	LineArgFormat string
	// Active is the initially focused document (or directory).
	Active string
	Logger *slog.Logger
}

// ExecEditor records open requests while a picker owns the terminal and
// launches an external editor for them afterwards with Flush. Previews are
// tracked as a virtual side column.
type ExecEditor struct {
	mu        sync.Mutex
	argv      []string
	lineArgs  []string
	active    string
	pending   []OpenRequest
	preview   *OpenRequest
	listeners []func(string)
	logger    *slog.Logger
}

var _ Editor = (*ExecEditor)(nil)

// NewExecEditor creates an editor launcher. The command line is split with
// POSIX shell rules.
func NewExecEditor(cfg ExecEditorConfig) (*ExecEditor, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	command := cfg.Command
	if command == "" {
		command = DefaultEditorCommand()
	}
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("splitting editor command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("editor command produced empty argv")
	}

	format := cfg.LineArgFormat
	if format == "" {
		format = "+{line} {path}"
	}
	lineArgs, err := shlex.Split(format)
	if err != nil {
		return nil, fmt.Errorf("splitting editor line format: %w", err)
	}

	return &ExecEditor{
		argv:     argv,
		lineArgs: lineArgs,
		active:   cfg.Active,
		logger:   cfg.Logger,
	}, nil
}

// DefaultEditorCommand returns $VISUAL, $EDITOR or "vi".
func DefaultEditorCommand() string {
	if v := os.Getenv("VISUAL"); v != "" {
		return v
	}
	if v := os.Getenv("EDITOR"); v != "" {
		return v
	}
	return "vi"
}

// Open records the request. Non-preview opens become the active document and
// are reported to OnFileOpened listeners.
func (e *ExecEditor) Open(_ context.Context, path string, opts OpenOptions) (int, error) {
	req := OpenRequest{Path: path, Opts: opts}

	e.mu.Lock()
	if opts.Preview {
		e.preview = &req
		e.mu.Unlock()
		e.logger.Debug("preview", "path", path, "line", opts.Line)
		return ColumnBeside, nil
	}
	e.pending = append(e.pending, req)
	e.active = path
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(path)
	}
	return ColumnActive, nil
}

// ActiveDocument returns the last opened path or the configured initial one.
func (e *ExecEditor) ActiveDocument() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.active != ""
}

// VisibleColumns reports the active column plus the preview column when a
// preview is open.
func (e *ExecEditor) VisibleColumns() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	cols := []int{ColumnActive}
	if e.preview != nil {
		cols = append(cols, ColumnBeside)
	}
	return cols
}

// CloseGroup drops the preview when column is the preview column.
func (e *ExecEditor) CloseGroup(_ context.Context, column int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if column == ColumnBeside {
		e.preview = nil
	}
	return nil
}

// Preview returns the currently previewed location.
func (e *ExecEditor) Preview() (OpenRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.preview == nil {
		return OpenRequest{}, false
	}
	return *e.preview, true
}

// OnFileOpened registers fn.
func (e *ExecEditor) OnFileOpened(fn func(path string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// Pending returns the recorded open requests.
func (e *ExecEditor) Pending() []OpenRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.pending)
}

// Command builds the argv used to open req.
func (e *ExecEditor) Command(req OpenRequest) []string {
	argv := slices.Clone(e.argv)
	if !req.Opts.HasSelection {
		return append(argv, req.Path)
	}
	r := strings.NewReplacer(
		"{path}", req.Path,
		"{line}", strconv.Itoa(req.Opts.Line+1),
		"{column}", strconv.Itoa(req.Opts.Column+1),
	)
	for _, a := range e.lineArgs {
		argv = append(argv, r.Replace(a))
	}
	return argv
}

// Flush launches the editor for the most recent pending request, attached to
// the process's terminal, and clears the queue.
func (e *ExecEditor) Flush(ctx context.Context) error {
	e.mu.Lock()
	pending := e.pending
	e.pending = nil
	e.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	argv := e.Command(pending[len(pending)-1])
	e.logger.Info("launching editor", "argv", argv)

	cmd := execabs.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running editor: %w", err)
	}
	return nil
}
