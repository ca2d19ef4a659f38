// Package consult implements the picker session engine: one interactive
// widget per session, driven through a generator, modifier and selector
// pipeline, with event callbacks and a guaranteed reset on hide.
package consult

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sunhs/consult.code/internal/item"
)

var (
	// ErrSessionActive is returned by Create while a widget is already open.
	ErrSessionActive = errors.New("consult: session already active")
	// ErrSessionInactive is returned by Update when no widget is open.
	ErrSessionInactive = errors.New("consult: session not active")
)

// Op produces an item list. Generators and modifiers replace the session's
// items with the result; selectors replace the displayed list.
type Op[T item.Item] func(ctx context.Context, s *Session[T]) ([]T, error)

// ChangeFunc is called on every raw input change.
type ChangeFunc[T item.Item] func(ctx context.Context, s *Session[T], oldValue, newValue string) error

// ActionFunc is called on accept and on hide.
type ActionFunc[T item.Item] func(ctx context.Context, s *Session[T]) error

// ActiveFunc is called when the highlighted items change.
type ActiveFunc[T item.Item] func(ctx context.Context, s *Session[T], active []T) error

// Options configures a Create or Update call. A nil callback slice keeps the
// previously registered listener; a non-nil slice replaces it.
type Options[T item.Item] struct {
	// ItemGenerator produces the full item set. Nil keeps the current items.
	ItemGenerator Op[T]
	// ItemModifiers run in order, each replacing the items.
	ItemModifiers []Op[T]
	// ItemSelectors choose what the widget displays. Nil leaves the displayed
	// list untouched, an empty non-nil slice displays the items verbatim,
	// otherwise the widget shows the result of the last selector.
	ItemSelectors []Op[T]

	OnChangeValue  []ChangeFunc[T]
	OnAcceptItems  []ActionFunc[T]
	OnChangeActive []ActiveFunc[T]
	OnHide         []ActionFunc[T]
}

// ShowAll returns a selector list that displays all items.
func ShowAll[T item.Item]() []Op[T] {
	return []Op[T]{}
}

// SelectVisible is a selector returning the items whose visibility flag is set.
func SelectVisible[T item.Item](_ context.Context, s *Session[T]) ([]T, error) {
	out := make([]T, 0, len(s.items))
	for _, it := range s.items {
		if it.Visible() {
			out = append(out, it)
		}
	}
	return out, nil
}

// Session owns the lifecycle of one picker kind. It is not safe for
// concurrent use: every call must happen on the session's Loop.
type Session[T item.Item] struct {
	name     string
	factory  WidgetFactory
	logger   *slog.Logger
	notifier Notifier

	ctx    context.Context
	id     string
	widget Widget

	items     []T
	lastValue string
	dir       string

	changeSubs []Disposable
	acceptSubs []Disposable
	activeSubs []Disposable
	hideSubs   []Disposable

	onReset []func()
}

// Option customises a Session.
type Option func(*sessionOpts)

type sessionOpts struct {
	logger   *slog.Logger
	notifier Notifier
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *sessionOpts) { o.logger = l }
}

// WithNotifier sets where callback failures are reported.
func WithNotifier(n Notifier) Option {
	return func(o *sessionOpts) { o.notifier = n }
}

// New creates an idle session. factory is called once per activation.
func New[T item.Item](name string, factory WidgetFactory, opts ...Option) *Session[T] {
	o := sessionOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.notifier == nil {
		o.notifier = NopNotifier
	}
	return &Session[T]{
		name:     name,
		factory:  factory,
		logger:   o.logger.With("session", name),
		notifier: o.notifier,
	}
}

// Name returns the session's picker kind.
func (s *Session[T]) Name() string { return s.name }

// Active reports whether a widget is open.
func (s *Session[T]) Active() bool { return s.widget != nil }

// Create opens a widget, applies opts and shows it.
func (s *Session[T]) Create(ctx context.Context, opts Options[T]) error {
	if s.widget != nil {
		return fmt.Errorf("%w: %s", ErrSessionActive, s.name)
	}

	s.ctx = ctx
	s.id = uuid.NewString()
	s.widget = s.factory()
	s.logger.Debug("session created", "id", s.id)

	if err := s.update(ctx, opts, true); err != nil {
		s.Reset()
		return err
	}
	if s.widget != nil {
		s.widget.Show()
	}
	return nil
}

// Update applies opts to the open widget. Stages run strictly in order:
// generator, then each modifier, then each selector.
func (s *Session[T]) Update(ctx context.Context, opts Options[T]) error {
	if s.widget == nil {
		return fmt.Errorf("%w: %s", ErrSessionInactive, s.name)
	}
	return s.update(ctx, opts, false)
}

func (s *Session[T]) update(ctx context.Context, opts Options[T], initial bool) error {
	w := s.widget

	if opts.OnChangeValue != nil {
		disposeAll(s.changeSubs)
		cbs := opts.OnChangeValue
		s.changeSubs = []Disposable{w.OnDidChangeValue(func(value string) {
			s.handleChange(w, cbs, value)
		})}
	}

	if opts.OnAcceptItems != nil {
		disposeAll(s.acceptSubs)
		cbs := opts.OnAcceptItems
		s.acceptSubs = []Disposable{w.OnDidAccept(func() {
			s.handleAction(w, "accept", cbs)
		})}
	}

	if opts.OnChangeActive != nil {
		disposeAll(s.activeSubs)
		cbs := opts.OnChangeActive
		s.activeSubs = []Disposable{w.OnDidChangeActive(func(active []item.Item) {
			s.handleActive(w, cbs, active)
		})}
	}

	if initial || opts.OnHide != nil {
		disposeAll(s.hideSubs)
		cbs := opts.OnHide
		s.hideSubs = []Disposable{w.OnDidHide(func() {
			s.handleHide(w, cbs)
		})}
	}

	if opts.ItemGenerator != nil {
		items, err := opts.ItemGenerator(ctx, s)
		if err != nil {
			return fmt.Errorf("%s: generate items: %w", s.name, err)
		}
		s.items = items
	}

	for i, mod := range opts.ItemModifiers {
		items, err := mod(ctx, s)
		if err != nil {
			return fmt.Errorf("%s: item modifier %d: %w", s.name, i, err)
		}
		s.items = items
	}

	if opts.ItemSelectors != nil {
		if len(opts.ItemSelectors) == 0 {
			s.setDisplayed(s.items)
		}
		for i, sel := range opts.ItemSelectors {
			items, err := sel(ctx, s)
			if err != nil {
				return fmt.Errorf("%s: item selector %d: %w", s.name, i, err)
			}
			s.setDisplayed(items)
		}
	}

	return nil
}

// Reset disposes the widget and every subscription and clears all state.
// It is safe to call more than once.
func (s *Session[T]) Reset() {
	disposeAll(s.changeSubs)
	disposeAll(s.acceptSubs)
	disposeAll(s.activeSubs)
	disposeAll(s.hideSubs)
	s.changeSubs, s.acceptSubs, s.activeSubs, s.hideSubs = nil, nil, nil, nil

	if s.widget != nil {
		s.widget.Dispose()
		s.widget = nil
		s.logger.Debug("session reset", "id", s.id)
	}

	s.items = nil
	s.lastValue = ""
	s.dir = ""
	s.id = ""

	for _, fn := range s.onReset {
		fn()
	}
}

// OnReset registers fn to run at the end of every Reset.
func (s *Session[T]) OnReset(fn func()) {
	s.onReset = append(s.onReset, fn)
}

func (s *Session[T]) handleChange(w Widget, cbs []ChangeFunc[T], value string) {
	if s.widget != w {
		return
	}
	oldValue := s.lastValue
	s.lastValue = value

	for _, cb := range cbs {
		if err := s.call("change", func() error { return cb(s.ctx, s, oldValue, value) }); err != nil {
			return
		}
		if s.widget != w {
			return
		}
	}
}

func (s *Session[T]) handleAction(w Widget, event string, cbs []ActionFunc[T]) {
	if s.widget != w {
		return
	}
	for _, cb := range cbs {
		if err := s.call(event, func() error { return cb(s.ctx, s) }); err != nil {
			return
		}
		if s.widget != w {
			return
		}
	}
}

func (s *Session[T]) handleActive(w Widget, cbs []ActiveFunc[T], active []item.Item) {
	if s.widget != w {
		return
	}
	typed := fromItems[T](active)
	for _, cb := range cbs {
		if err := s.call("active", func() error { return cb(s.ctx, s, typed) }); err != nil {
			return
		}
	}
}

// handleHide runs every hide callback best-effort, then resets.
func (s *Session[T]) handleHide(w Widget, cbs []ActionFunc[T]) {
	if s.widget != w {
		return
	}
	defer s.Reset()
	for _, cb := range cbs {
		_ = s.call("hide", func() error { return cb(s.ctx, s) })
	}
}

// call runs a user callback, converting panics to errors. Failures are
// logged and reported through the notifier.
func (s *Session[T]) call(event string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			s.logger.Error("callback failed", "event", event, "id", s.id, "error", err)
			s.notifier.Error(fmt.Sprintf("%s: %v", s.name, err))
		}
	}()
	return fn()
}

// Items returns the full, unfiltered item list.
func (s *Session[T]) Items() []T { return s.items }

// SetItems replaces the full item list without touching the widget.
func (s *Session[T]) SetItems(items []T) { s.items = items }

// Displayed returns the items currently shown by the widget.
func (s *Session[T]) Displayed() []T {
	if s.widget == nil {
		return nil
	}
	return fromItems[T](s.widget.Items())
}

// Selected returns the accepted items.
func (s *Session[T]) Selected() []T {
	if s.widget == nil {
		return nil
	}
	return fromItems[T](s.widget.SelectedItems())
}

// ActiveItems returns the highlighted items.
func (s *Session[T]) ActiveItems() []T {
	if s.widget == nil {
		return nil
	}
	return fromItems[T](s.widget.ActiveItems())
}

// Value returns the widget's current input text.
func (s *Session[T]) Value() string {
	if s.widget == nil {
		return ""
	}
	return s.widget.Value()
}

// SetValue replaces the widget's input text.
func (s *Session[T]) SetValue(value string) {
	if s.widget != nil {
		s.widget.SetValue(value)
	}
}

// LastValue returns the input value seen by the last change event.
func (s *Session[T]) LastValue() string { return s.lastValue }

// SetTitle sets the widget title.
func (s *Session[T]) SetTitle(title string) {
	if s.widget != nil {
		s.widget.SetTitle(title)
	}
}

// Hide dismisses the widget, which triggers the hide pipeline.
func (s *Session[T]) Hide() {
	if s.widget != nil {
		s.widget.Hide()
	}
}

// Widget returns the open widget, or nil.
func (s *Session[T]) Widget() Widget { return s.widget }

// Dir returns the directory context (file browser).
func (s *Session[T]) Dir() string { return s.dir }

// SetDir sets the directory context.
func (s *Session[T]) SetDir(dir string) { s.dir = dir }

// ID returns the activation ID, or "" when idle.
func (s *Session[T]) ID() string { return s.id }

// Context returns the context the session was created with.
func (s *Session[T]) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Session[T]) setDisplayed(items []T) {
	if s.widget != nil {
		s.widget.SetItems(toItems(items))
	}
}

func toItems[T item.Item](items []T) []item.Item {
	out := make([]item.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

func fromItems[T item.Item](items []item.Item) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if t, ok := it.(T); ok {
			out = append(out, t)
		}
	}
	return out
}

func disposeAll(ds []Disposable) {
	for _, d := range ds {
		d.Dispose()
	}
}
