package grep

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/filebrowser"
	"github.com/sunhs/consult.code/internal/filter"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
	"github.com/sunhs/consult.code/internal/project"
)

// DefaultMinQueryLen is the shortest query that triggers a search.
const DefaultMinQueryLen = 3

// MsgCannotInferProject is reported when GrepProject finds no project.
const MsgCannotInferProject = "cannot infer current project"

// Config wires a Picker to its host.
type Config struct {
	Searcher  Searcher
	Resolver  *project.Resolver
	Browser   *filebrowser.Browser
	Workspace host.Workspace
	Editor    host.Editor
	Notifier  consult.Notifier
	Loop      consult.Loop

	// FilterGlobs are excluded from every search.
	FilterGlobs []string
	// DotIgnoreFiles found at a project root are passed to the searcher.
	DotIgnoreFiles []string

	Debounce    time.Duration
	MinQueryLen int
	Home        string

	// Go runs a search off the loop. Defaults to a new goroutine.
	Go func(func())
	// Clock overrides the debouncer's time source.
	Clock []DebounceOption

	Logger *slog.Logger
}

// target is the directory one grep activation searches.
type target struct {
	dir         string
	title       string
	ignoreFiles []string
}

// Picker is the live search picker.
type Picker struct {
	s         *consult.Session[*item.Grep]
	searcher  Searcher
	resolver  *project.Resolver
	browser   *filebrowser.Browser
	ws        host.Workspace
	editor    host.Editor
	notifier  consult.Notifier
	loop      consult.Loop
	debouncer *Debouncer
	cfg       Config
	logger    *slog.Logger

	cancel              context.CancelFunc
	previewGroupCreated bool
	previewColumn       int
}

// New creates an idle picker.
func New(factory consult.WidgetFactory, cfg Config) *Picker {
	if cfg.MinQueryLen <= 0 {
		cfg.MinQueryLen = DefaultMinQueryLen
	}
	if cfg.Notifier == nil {
		cfg.Notifier = consult.NopNotifier
	}
	if cfg.Workspace == nil {
		cfg.Workspace = host.NewMemoryWorkspace()
	}
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if cfg.Go == nil {
		cfg.Go = func(fn func()) { go fn() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	p := &Picker{
		s:         consult.New[*item.Grep]("grep", factory, consult.WithLogger(cfg.Logger), consult.WithNotifier(cfg.Notifier)),
		searcher:  cfg.Searcher,
		resolver:  cfg.Resolver,
		browser:   cfg.Browser,
		ws:        cfg.Workspace,
		editor:    cfg.Editor,
		notifier:  cfg.Notifier,
		loop:      cfg.Loop,
		debouncer: NewDebouncer(cfg.Debounce, cfg.Loop.Post, cfg.Clock...),
		cfg:       cfg,
		logger:    cfg.Logger.With("component", "grep"),
	}
	p.s.OnReset(func() {
		p.debouncer.Stop()
		p.previewGroupCreated = false
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	})
	return p
}

// Session exposes the underlying session.
func (p *Picker) Session() *consult.Session[*item.Grep] { return p.s }

// PreviewGroupCreated reports whether a preview opened a new editor group
// that hiding the picker will close.
func (p *Picker) PreviewGroupCreated() bool { return p.previewGroupCreated }

// GrepProject searches the project of the active document, or the only
// workspace folder.
func (p *Picker) GrepProject(ctx context.Context) error {
	var root string
	if doc, ok := p.editor.ActiveDocument(); ok {
		r, found, err := p.resolver.Resolve(ctx, doc)
		if err != nil {
			return err
		}
		if found {
			root = r
		}
	}
	if root == "" {
		if folders := p.ws.Folders(); len(folders) == 1 {
			root = folders[0]
		}
	}
	if root == "" {
		p.notifier.Error(MsgCannotInferProject)
		return nil
	}
	return p.start(ctx, p.projectTarget(root))
}

// GrepDir lets the user pick a directory in the file browser, then searches
// the project containing it, or the directory itself.
func (p *Picker) GrepDir(ctx context.Context) error {
	return p.browser.Show(ctx, filebrowser.ShowOptions{
		OnlyDirs: true,
		OnAcceptDir: func(ctx context.Context, dir string) error {
			p.browser.Session().Hide()
			return p.GrepIn(ctx, dir)
		},
	})
}

// GrepIn searches the project containing dir, or dir itself.
func (p *Picker) GrepIn(ctx context.Context, dir string) error {
	root, found, err := p.resolver.Resolve(ctx, dir)
	if err != nil {
		return err
	}
	if found {
		return p.start(ctx, p.projectTarget(root))
	}
	return p.start(ctx, target{dir: dir, title: dir})
}

func (p *Picker) projectTarget(root string) target {
	return target{
		dir:         root,
		title:       project.Name(root),
		ignoreFiles: filter.ExistingIgnoreFiles(root, p.cfg.DotIgnoreFiles),
	}
}

func (p *Picker) start(ctx context.Context, t target) error {
	if p.s.Active() {
		return fmt.Errorf("%w: %s", consult.ErrSessionActive, p.s.Name())
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.debouncer.Reset()

	return p.s.Create(ctx, consult.Options[*item.Grep]{
		ItemGenerator: func(_ context.Context, s *consult.Session[*item.Grep]) ([]*item.Grep, error) {
			s.SetTitle(t.title)
			s.SetDir(t.dir)
			return nil, nil
		},
		ItemSelectors:  consult.ShowAll[*item.Grep](),
		OnChangeValue:  []consult.ChangeFunc[*item.Grep]{p.onChangeValue(t)},
		OnChangeActive: []consult.ActiveFunc[*item.Grep]{p.onChangeActive},
		OnAcceptItems:  []consult.ActionFunc[*item.Grep]{p.onAccept},
		OnHide:         []consult.ActionFunc[*item.Grep]{p.onHide},
	})
}

func (p *Picker) onChangeValue(t target) consult.ChangeFunc[*item.Grep] {
	return func(ctx context.Context, s *consult.Session[*item.Grep], _, newValue string) error {
		if len([]rune(strings.TrimSpace(newValue))) < p.cfg.MinQueryLen {
			return p.show(ctx, s, nil)
		}
		p.debouncer.Trigger(newValue, s.Value, func(query string) {
			p.search(s, t, query)
		})
		return nil
	}
}

// search runs the query off the loop and posts the results back. Results
// for a query the input no longer holds are dropped.
func (p *Picker) search(s *consult.Session[*item.Grep], t target, query string) {
	id := s.ID()
	ctx := s.Context()
	req := Request{
		Query:       query,
		Dir:         t.dir,
		Exclude:     p.cfg.FilterGlobs,
		IgnoreFiles: t.ignoreFiles,
	}

	p.cfg.Go(func() {
		matches, err := p.searcher.Search(ctx, req)
		p.loop.Post(func() {
			if s.ID() != id || s.Value() != query {
				p.logger.Debug("dropping stale results", "query", query)
				return
			}
			if err != nil {
				p.notifier.Error(err.Error())
				matches = nil
			}
			if err := p.show(ctx, s, p.items(t.dir, matches)); err != nil {
				p.logger.Warn("showing results", "error", err)
			}
		})
	})
}

func (p *Picker) items(dir string, matches []Match) []*item.Grep {
	items := make([]*item.Grep, 0, len(matches))
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	for _, m := range matches {
		rel := strings.TrimPrefix(m.Path, prefix)
		items = append(items, item.NewGrep(m.Path, rel, m.Line, m.Column, m.Text, p.cfg.Home))
	}
	return items
}

func (p *Picker) show(ctx context.Context, s *consult.Session[*item.Grep], items []*item.Grep) error {
	return s.Update(ctx, consult.Options[*item.Grep]{
		ItemGenerator: func(context.Context, *consult.Session[*item.Grep]) ([]*item.Grep, error) {
			return items, nil
		},
		ItemSelectors: consult.ShowAll[*item.Grep](),
	})
}

// onChangeActive previews the top highlighted match beside the active
// editor without taking focus.
func (p *Picker) onChangeActive(ctx context.Context, _ *consult.Session[*item.Grep], active []*item.Grep) error {
	if len(active) == 0 {
		return nil
	}
	m := active[0]
	before := p.editor.VisibleColumns()
	col, err := p.editor.Open(ctx, m.Path, host.OpenOptions{
		HasSelection: true,
		Line:         m.Line,
		Column:       m.Column,
		Preview:      true,
	})
	if err != nil {
		return fmt.Errorf("previewing %s: %w", m.Path, err)
	}
	if !slices.Contains(before, col) {
		p.previewGroupCreated = true
		p.previewColumn = col
	}
	return nil
}

func (p *Picker) onAccept(ctx context.Context, s *consult.Session[*item.Grep]) error {
	selected := s.Selected()
	if len(selected) == 0 {
		return nil
	}
	m := selected[0]
	if _, err := p.editor.Open(ctx, m.Path, host.OpenOptions{
		HasSelection: true,
		Line:         m.Line,
		Column:       m.Column,
	}); err != nil {
		return fmt.Errorf("opening %s: %w", m.Path, err)
	}
	s.Hide()
	return nil
}

func (p *Picker) onHide(ctx context.Context, _ *consult.Session[*item.Grep]) error {
	if !p.previewGroupCreated {
		return nil
	}
	p.previewGroupCreated = false
	return p.editor.CloseGroup(ctx, p.previewColumn)
}
