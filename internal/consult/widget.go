package consult

import "github.com/sunhs/consult.code/internal/item"

// Disposable releases an event subscription or a widget.
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a function to Disposable.
type DisposeFunc func()

// Dispose calls f.
func (f DisposeFunc) Dispose() { f() }

// Widget is the host picker a session drives. Implementations deliver every
// event through the Loop the session was created with, never synchronously
// from inside a Widget method call.
type Widget interface {
	SetTitle(title string)
	Value() string
	// SetValue replaces the input text. It raises a value-change event.
	SetValue(value string)
	// SetItems replaces the displayed list.
	SetItems(items []item.Item)
	Items() []item.Item
	ActiveItems() []item.Item
	SelectedItems() []item.Item
	Show()
	// Hide dismisses the widget. It raises a hide event.
	Hide()
	Dispose()

	OnDidChangeValue(fn func(value string)) Disposable
	OnDidAccept(fn func()) Disposable
	OnDidChangeActive(fn func(active []item.Item)) Disposable
	OnDidHide(fn func()) Disposable
}

// WidgetFactory creates a fresh widget for every session activation.
type WidgetFactory func() Widget

// Loop runs functions on the single logical thread that owns all sessions.
// Post is safe to call from any goroutine.
type Loop interface {
	Post(fn func())
}

// Flag is a named boolean context signal consumed by the host's
// command-enablement layer.
type Flag string

const (
	// FlagInFileBrowser enables file browser actions (go up, go home, ...).
	FlagInFileBrowser Flag = "inConsultFileBrowser"
	// FlagFileBrowserEmpty is true while the filter text is empty.
	FlagFileBrowserEmpty Flag = "consultFileBrowserEmpty"
	// FlagInProjectManager enables project manager actions (confirm add, ...).
	FlagInProjectManager Flag = "inConsultProjMgr"
)

// ContextSetter receives control signal updates.
type ContextSetter interface {
	SetContext(flags map[Flag]bool)
}

// Notifier shows user-visible messages.
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Info(string)  {}
func (nopNotifier) Warn(string)  {}
func (nopNotifier) Error(string) {}

// NopNotifier discards every message.
var NopNotifier Notifier = nopNotifier{}

type nopContext struct{}

func (nopContext) SetContext(map[Flag]bool) {}

// NopContext discards every control signal.
var NopContext ContextSetter = nopContext{}

// Filters are the filter toggles shared by every session. Only the file
// browser can flip them; other pickers read them.
type Filters struct {
	HideDotFiles bool
	FilterFiles  bool
}

// DefaultFilters hides dot files and applies filter globs.
func DefaultFilters() *Filters {
	return &Filters{HideDotFiles: true, FilterFiles: true}
}
