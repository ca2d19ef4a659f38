// Package consulttest provides in-memory fakes of the host collaborators a
// consult session talks to: an inline event loop, a scriptable widget, a
// notifier and context recorder, a fake editor and a manual clock.
package consulttest

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
)

// Loop queues posted functions until Drain is called.
type Loop struct {
	mu    sync.Mutex
	queue []func()
}

var _ consult.Loop = (*Loop)(nil)

// Post queues fn.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.queue = append(l.queue, fn)
}

// Drain runs queued functions, including ones they post, until the queue is
// empty. It returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return n
		}
		fn := l.queue[0]
		l.queue = l.queue[1:]
		l.mu.Unlock()

		fn()
		n++
	}
}

// Pending returns the number of queued functions.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

type listeners[F any] struct {
	next int
	fns  map[int]F
}

func (ls *listeners[F]) add(fn F) consult.Disposable {
	if ls.fns == nil {
		ls.fns = make(map[int]F)
	}
	id := ls.next
	ls.next++
	ls.fns[id] = fn
	return consult.DisposeFunc(func() { delete(ls.fns, id) })
}

func (ls *listeners[F]) each(call func(F)) {
	ids := slices.Collect(maps.Keys(ls.fns))
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := ls.fns[id]; ok {
			call(fn)
		}
	}
}

func (ls *listeners[F]) len() int { return len(ls.fns) }

func (ls *listeners[F]) clear() { ls.fns = nil }

// Widget is a scriptable consult.Widget. Events raised by the test helpers
// (Type, Accept, Highlight, Hide) are posted to the Loop and delivered to the
// listeners registered at delivery time.
type Widget struct {
	loop *Loop

	Title    string
	value    string
	items    []item.Item
	active   []item.Item
	selected []item.Item

	Shown    bool
	Hidden   bool
	Disposed bool

	change    listeners[func(string)]
	accept    listeners[func()]
	highlight listeners[func([]item.Item)]
	hide      listeners[func()]
}

var _ consult.Widget = (*Widget)(nil)

// NewWidget creates a widget posting its events to loop.
func NewWidget(loop *Loop) *Widget {
	return &Widget{loop: loop}
}

func (w *Widget) SetTitle(title string) { w.Title = title }

func (w *Widget) Value() string { return w.value }

// SetValue replaces the value and raises a change event.
func (w *Widget) SetValue(value string) {
	w.value = value
	w.loop.Post(func() {
		w.change.each(func(fn func(string)) { fn(value) })
	})
}

func (w *Widget) SetItems(items []item.Item) { w.items = items }

func (w *Widget) Items() []item.Item { return w.items }

func (w *Widget) ActiveItems() []item.Item { return w.active }

func (w *Widget) SelectedItems() []item.Item { return w.selected }

func (w *Widget) Show() { w.Shown = true }

// Hide raises a hide event.
func (w *Widget) Hide() {
	w.Hidden = true
	w.loop.Post(func() {
		w.hide.each(func(fn func()) { fn() })
	})
}

// Dispose drops every listener.
func (w *Widget) Dispose() {
	w.Disposed = true
	w.change.clear()
	w.accept.clear()
	w.highlight.clear()
	w.hide.clear()
}

func (w *Widget) OnDidChangeValue(fn func(string)) consult.Disposable { return w.change.add(fn) }

func (w *Widget) OnDidAccept(fn func()) consult.Disposable { return w.accept.add(fn) }

func (w *Widget) OnDidChangeActive(fn func([]item.Item)) consult.Disposable {
	return w.highlight.add(fn)
}

func (w *Widget) OnDidHide(fn func()) consult.Disposable { return w.hide.add(fn) }

// Type simulates the user editing the input.
func (w *Widget) Type(value string) { w.SetValue(value) }

// Accept simulates accepting items (the highlighted ones when none are given).
func (w *Widget) Accept(items ...item.Item) {
	if len(items) == 0 {
		items = w.active
	}
	w.selected = items
	w.loop.Post(func() {
		w.accept.each(func(fn func()) { fn() })
	})
}

// Highlight simulates moving the cursor onto items.
func (w *Widget) Highlight(items ...item.Item) {
	w.active = items
	w.loop.Post(func() {
		w.highlight.each(func(fn func([]item.Item)) { fn(items) })
	})
}

// Labels returns the labels of the displayed items.
func (w *Widget) Labels() []string {
	out := make([]string, len(w.items))
	for i, it := range w.items {
		out[i] = it.Label()
	}
	return out
}

// Listeners reports how many listeners of each kind are registered, in the
// order change, accept, active, hide.
func (w *Widget) Listeners() [4]int {
	return [4]int{w.change.len(), w.accept.len(), w.highlight.len(), w.hide.len()}
}

// Factory creates Widgets on a shared Loop and remembers them.
type Factory struct {
	Loop    *Loop
	Widgets []*Widget
}

// NewFactory creates a factory with a fresh Loop.
func NewFactory() *Factory {
	return &Factory{Loop: &Loop{}}
}

// New implements consult.WidgetFactory.
func (f *Factory) New() consult.Widget {
	w := NewWidget(f.Loop)
	f.Widgets = append(f.Widgets, w)
	return w
}

// Last returns the most recently created widget, or nil.
func (f *Factory) Last() *Widget {
	if len(f.Widgets) == 0 {
		return nil
	}
	return f.Widgets[len(f.Widgets)-1]
}

// Notifier records messages.
type Notifier struct {
	mu     sync.Mutex
	Infos  []string
	Warns  []string
	Errors []string
}

var _ consult.Notifier = (*Notifier)(nil)

func (n *Notifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Infos = append(n.Infos, msg)
}

func (n *Notifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Warns = append(n.Warns, msg)
}

func (n *Notifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Errors = append(n.Errors, msg)
}

// Context records control signals.
type Context struct {
	flags map[consult.Flag]bool
}

var _ consult.ContextSetter = (*Context)(nil)

func (c *Context) SetContext(flags map[consult.Flag]bool) {
	if c.flags == nil {
		c.flags = make(map[consult.Flag]bool)
	}
	maps.Copy(c.flags, flags)
}

// Get returns the last value set for flag.
func (c *Context) Get(flag consult.Flag) bool { return c.flags[flag] }

// Editor is an in-memory host.Editor.
type Editor struct {
	Active    string
	Opened    []host.OpenRequest
	Columns   []int
	Closed    []int
	listeners []func(string)
}

var _ host.Editor = (*Editor)(nil)

// Open records the request. Previews go to column 2 and add it to the
// visible columns.
func (e *Editor) Open(_ context.Context, path string, opts host.OpenOptions) (int, error) {
	e.Opened = append(e.Opened, host.OpenRequest{Path: path, Opts: opts})
	if opts.Preview {
		if !slices.Contains(e.Columns, host.ColumnBeside) {
			e.Columns = append(e.Columns, host.ColumnBeside)
		}
		return host.ColumnBeside, nil
	}
	e.Active = path
	for _, fn := range e.listeners {
		fn(path)
	}
	return host.ColumnActive, nil
}

func (e *Editor) ActiveDocument() (string, bool) { return e.Active, e.Active != "" }

func (e *Editor) VisibleColumns() []int {
	if e.Columns == nil {
		return []int{host.ColumnActive}
	}
	return slices.Clone(e.Columns)
}

func (e *Editor) CloseGroup(_ context.Context, column int) error {
	e.Closed = append(e.Closed, column)
	e.Columns = slices.DeleteFunc(e.Columns, func(c int) bool { return c == column })
	return nil
}

func (e *Editor) OnFileOpened(fn func(string)) { e.listeners = append(e.listeners, fn) }

// Paths returns the paths of non-preview opens.
func (e *Editor) Paths() []string {
	var out []string
	for _, r := range e.Opened {
		if !r.Opts.Preview {
			out = append(out, r.Path)
		}
	}
	return out
}

// Clock is a manual clock. Timers fire synchronously from Advance.
type Clock struct {
	now    time.Time
	timers []*timer
}

type timer struct {
	at      time.Time
	fn      func()
	stopped bool
}

// NewClock creates a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current instant.
func (c *Clock) Now() time.Time { return c.now }

// AfterFunc schedules fn after d and returns a stop function.
func (c *Clock) AfterFunc(d time.Duration, fn func()) func() bool {
	t := &timer{at: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return func() bool {
		was := !t.stopped
		t.stopped = true
		return was
	}
}

// Advance moves the clock forward by d, firing due timers in order.
func (c *Clock) Advance(d time.Duration) {
	end := c.now.Add(d)
	for {
		sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].at.Before(c.timers[j].at) })
		if len(c.timers) == 0 || c.timers[0].at.After(end) {
			break
		}
		t := c.timers[0]
		c.timers = c.timers[1:]
		c.now = t.at
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
	c.now = end
}
