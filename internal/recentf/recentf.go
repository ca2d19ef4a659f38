// Package recentf implements the recently opened files picker.
package recentf

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/filter"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
	"github.com/sunhs/consult.code/internal/store"
)

// Config wires a Picker to its host.
type Config struct {
	Store    *store.Store
	Editor   host.Editor
	Context  consult.ContextSetter
	Notifier consult.Notifier
	Home     string
	Logger   *slog.Logger
}

// Picker shows store.Recent newest first.
type Picker struct {
	s      *consult.Session[*item.File]
	store  *store.Store
	editor host.Editor
	ctx    consult.ContextSetter
	home   string
}

// New creates an idle picker.
func New(factory consult.WidgetFactory, cfg Config) *Picker {
	if cfg.Context == nil {
		cfg.Context = consult.NopContext
	}
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Picker{
		s:      consult.New[*item.File]("recentf", factory, consult.WithLogger(cfg.Logger), consult.WithNotifier(cfg.Notifier)),
		store:  cfg.Store,
		editor: cfg.Editor,
		ctx:    cfg.Context,
		home:   cfg.Home,
	}
}

// Session exposes the underlying session.
func (p *Picker) Session() *consult.Session[*item.File] { return p.s }

// Show opens the picker.
func (p *Picker) Show(ctx context.Context) error {
	return p.s.Create(ctx, consult.Options[*item.File]{
		ItemGenerator: p.generate,
		ItemSelectors: consult.ShowAll[*item.File](),
		OnChangeValue: []consult.ChangeFunc[*item.File]{p.onChangeValue},
		OnAcceptItems: []consult.ActionFunc[*item.File]{p.onAccept},
	})
}

func (p *Picker) generate(context.Context, *consult.Session[*item.File]) ([]*item.File, error) {
	paths := p.store.Recent.Newest()
	items := make([]*item.File, 0, len(paths))
	for _, path := range paths {
		f, err := item.NewFile(path, item.KindFile, item.WithPathDescription(p.home))
		if err != nil {
			continue
		}
		items = append(items, f)
	}
	return items, nil
}

func (p *Picker) onChangeValue(ctx context.Context, s *consult.Session[*item.File], oldValue, newValue string) error {
	p.ctx.SetContext(map[consult.Flag]bool{consult.FlagFileBrowserEmpty: newValue == ""})
	if filter.Normalize(oldValue) == filter.Normalize(newValue) {
		return nil
	}

	re := filter.Query(newValue)
	if re == nil {
		return s.Update(ctx, consult.Options[*item.File]{ItemSelectors: consult.ShowAll[*item.File]()})
	}
	return s.Update(ctx, consult.Options[*item.File]{
		ItemSelectors: []consult.Op[*item.File]{
			func(_ context.Context, s *consult.Session[*item.File]) ([]*item.File, error) {
				var out []*item.File
				for _, f := range s.Items() {
					if filter.MatchLabel(re, f.Label()) {
						out = append(out, f)
					}
				}
				return out, nil
			},
		},
	})
}

func (p *Picker) onAccept(ctx context.Context, s *consult.Session[*item.File]) error {
	selected := s.Selected()
	if len(selected) == 0 {
		return nil
	}
	path := selected[0].Path
	if _, err := p.editor.Open(ctx, path, host.OpenOptions{}); err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	s.Hide()
	return nil
}
