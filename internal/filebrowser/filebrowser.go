// Package filebrowser implements the directory-navigating picker.
package filebrowser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/filter"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
)

// Config wires a Browser to its host.
type Config struct {
	FS       host.FS
	Editor   host.Editor
	Context  consult.ContextSetter
	Notifier consult.Notifier
	Filters  *consult.Filters
	// FilterGlobs hide matching names while Filters.FilterFiles is on.
	FilterGlobs []string
	Home        string
	Logger      *slog.Logger
}

// ShowOptions customises one activation.
type ShowOptions struct {
	// OnlyDirs hides files.
	OnlyDirs bool
	// OnAcceptDir, when set, is called with an accepted directory instead of
	// descending into it.
	OnAcceptDir func(ctx context.Context, dir string) error
	// Flags are raised on show and lowered on hide, in addition to the file
	// browser's own signals.
	Flags []consult.Flag
}

// Browser lists one directory at a time.
type Browser struct {
	s        *consult.Session[*item.File]
	fs       host.FS
	editor   host.Editor
	ctx      consult.ContextSetter
	notifier consult.Notifier
	filters  *consult.Filters
	matcher  *filter.Matcher
	home     string

	opts ShowOptions
}

// New creates an idle browser.
func New(factory consult.WidgetFactory, cfg Config) (*Browser, error) {
	matcher, err := filter.Compile(cfg.FilterGlobs)
	if err != nil {
		return nil, err
	}
	if cfg.FS == nil {
		cfg.FS = host.LocalFS{}
	}
	if cfg.Context == nil {
		cfg.Context = consult.NopContext
	}
	if cfg.Notifier == nil {
		cfg.Notifier = consult.NopNotifier
	}
	if cfg.Filters == nil {
		cfg.Filters = consult.DefaultFilters()
	}
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &Browser{
		s:        consult.New[*item.File]("filebrowser", factory, consult.WithLogger(cfg.Logger), consult.WithNotifier(cfg.Notifier)),
		fs:       cfg.FS,
		editor:   cfg.Editor,
		ctx:      cfg.Context,
		notifier: cfg.Notifier,
		filters:  cfg.Filters,
		matcher:  matcher,
		home:     cfg.Home,
	}
	return b, nil
}

// Session exposes the underlying session.
func (b *Browser) Session() *consult.Session[*item.File] { return b.s }

// Show opens the browser in the directory of the active document, or home.
func (b *Browser) Show(ctx context.Context, opts ShowOptions) error {
	if b.s.Active() {
		return fmt.Errorf("%w: %s", consult.ErrSessionActive, b.s.Name())
	}
	b.opts = opts
	flags := map[consult.Flag]bool{
		consult.FlagInFileBrowser:    true,
		consult.FlagFileBrowserEmpty: true,
	}
	for _, f := range opts.Flags {
		flags[f] = true
	}
	b.ctx.SetContext(flags)

	return b.s.Create(ctx, consult.Options[*item.File]{
		ItemGenerator: b.startDir,
		ItemModifiers: []consult.Op[*item.File]{b.setVisibility},
		ItemSelectors: []consult.Op[*item.File]{consult.SelectVisible[*item.File]},
		OnChangeValue: []consult.ChangeFunc[*item.File]{b.onChangeValue},
		OnAcceptItems: []consult.ActionFunc[*item.File]{b.onAccept},
		OnHide:        []consult.ActionFunc[*item.File]{b.onHide},
	})
}

// GoUp lists the parent directory.
func (b *Browser) GoUp(ctx context.Context) error {
	return b.navigate(ctx, filepath.Dir(b.s.Dir()))
}

// GoHome lists the home directory.
func (b *Browser) GoHome(ctx context.Context) error {
	return b.navigate(ctx, b.home)
}

// GoRoot lists the filesystem root.
func (b *Browser) GoRoot(ctx context.Context) error {
	return b.navigate(ctx, string(filepath.Separator))
}

// IntoDir lists the highlighted directory. Highlighted files are ignored.
func (b *Browser) IntoDir(ctx context.Context) error {
	active := b.s.ActiveItems()
	if len(active) == 0 || !active[0].Kind.IsDir() {
		return nil
	}
	return b.navigate(ctx, active[0].Path)
}

// ToggleHidden flips dot file visibility for every picker.
func (b *Browser) ToggleHidden(ctx context.Context) error {
	if !b.s.Active() {
		return nil
	}
	b.filters.HideDotFiles = !b.filters.HideDotFiles
	return b.refilter(ctx)
}

// ToggleFilter flips glob filtering for every picker.
func (b *Browser) ToggleFilter(ctx context.Context) error {
	if !b.s.Active() {
		return nil
	}
	b.filters.FilterFiles = !b.filters.FilterFiles
	return b.refilter(ctx)
}

func (b *Browser) navigate(ctx context.Context, dir string) error {
	if !b.s.Active() {
		return nil
	}
	b.s.SetDir(dir)
	if err := b.s.Update(ctx, consult.Options[*item.File]{
		ItemGenerator: b.listDir,
		ItemModifiers: []consult.Op[*item.File]{b.setVisibility},
		ItemSelectors: []consult.Op[*item.File]{consult.SelectVisible[*item.File]},
	}); err != nil {
		return err
	}
	if b.s.Value() != "" {
		b.s.SetValue("")
	}
	return nil
}

func (b *Browser) refilter(ctx context.Context) error {
	return b.s.Update(ctx, consult.Options[*item.File]{
		ItemModifiers: []consult.Op[*item.File]{b.setVisibility},
		ItemSelectors: b.selectors(b.s.Value()),
	})
}

// startDir picks the initial directory, then lists it.
func (b *Browser) startDir(ctx context.Context, s *consult.Session[*item.File]) ([]*item.File, error) {
	if s.Dir() == "" {
		dir := b.home
		if b.editor != nil {
			if doc, ok := b.editor.ActiveDocument(); ok {
				if host.IsDir(ctx, b.fs, doc) {
					dir = doc
				} else {
					dir = filepath.Dir(doc)
				}
			}
		}
		s.SetDir(dir)
	}
	return b.listDir(ctx, s)
}

// listDir lists the session's directory: directories first, dot entries
// first within each kind, then by name.
func (b *Browser) listDir(ctx context.Context, s *consult.Session[*item.File]) ([]*item.File, error) {
	dir := s.Dir()
	if !filepath.IsAbs(dir) || !host.IsDir(ctx, b.fs, dir) {
		b.notifier.Error(fmt.Sprintf("%s is not an absolute path to a directory", dir))
		s.Hide()
		return nil, nil
	}
	s.SetTitle(dir)

	entries, err := b.fs.ReadDir(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, c := entries[i], entries[j]
		if a.Kind.IsDir() != c.Kind.IsDir() {
			return a.Kind.IsDir()
		}
		aDot, cDot := strings.HasPrefix(a.Name, "."), strings.HasPrefix(c.Name, ".")
		if aDot != cDot {
			return aDot
		}
		return a.Name < c.Name
	})

	items := make([]*item.File, 0, len(entries))
	for _, e := range entries {
		f, err := item.NewFile(filepath.Join(dir, e.Name), e.Kind)
		if err != nil {
			return nil, err
		}
		items = append(items, f)
	}
	return items, nil
}

func (b *Browser) setVisibility(_ context.Context, s *consult.Session[*item.File]) ([]*item.File, error) {
	for _, f := range s.Items() {
		f.SetVisible(b.visible(f))
	}
	return s.Items(), nil
}

func (b *Browser) visible(f *item.File) bool {
	name := filepath.Base(f.Path)
	switch {
	case b.filters.HideDotFiles && strings.HasPrefix(name, "."):
		return false
	case b.filters.FilterFiles && b.matcher.Match(name):
		return false
	case b.opts.OnlyDirs && !f.Kind.IsDir():
		return false
	}
	return true
}

// selectors returns the selector chain for a query: visible items, narrowed
// by the query when it is not blank.
func (b *Browser) selectors(value string) []consult.Op[*item.File] {
	re := filter.Query(value)
	if re == nil {
		return []consult.Op[*item.File]{consult.SelectVisible[*item.File]}
	}
	return []consult.Op[*item.File]{
		consult.SelectVisible[*item.File],
		func(_ context.Context, s *consult.Session[*item.File]) ([]*item.File, error) {
			var out []*item.File
			for _, f := range s.Displayed() {
				if filter.MatchLabel(re, f.Label()) {
					out = append(out, f)
				}
			}
			return out, nil
		},
	}
}

func (b *Browser) onChangeValue(ctx context.Context, s *consult.Session[*item.File], oldValue, newValue string) error {
	b.ctx.SetContext(map[consult.Flag]bool{consult.FlagFileBrowserEmpty: newValue == ""})
	if filter.Normalize(oldValue) == filter.Normalize(newValue) {
		return nil
	}
	return s.Update(ctx, consult.Options[*item.File]{ItemSelectors: b.selectors(newValue)})
}

func (b *Browser) onAccept(ctx context.Context, s *consult.Session[*item.File]) error {
	selected := s.Selected()
	if len(selected) == 0 {
		return nil
	}
	path := selected[0].Path

	kind, err := b.fs.Stat(ctx, path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if kind.IsDir() {
		if b.opts.OnAcceptDir != nil {
			return b.opts.OnAcceptDir(ctx, path)
		}
		return b.navigate(ctx, path)
	}

	if b.opts.OnlyDirs {
		return nil
	}
	if b.editor != nil {
		if _, err := b.editor.Open(ctx, path, host.OpenOptions{}); err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
	}
	s.Hide()
	return nil
}

func (b *Browser) onHide(context.Context, *consult.Session[*item.File]) error {
	flags := map[consult.Flag]bool{
		consult.FlagInFileBrowser:    false,
		consult.FlagFileBrowserEmpty: true,
	}
	for _, f := range b.opts.Flags {
		flags[f] = false
	}
	b.ctx.SetContext(flags)
	b.opts = ShowOptions{}
	return nil
}
