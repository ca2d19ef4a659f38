package picker

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/item"
)

// subscribers is an ordered listener list whose entries can be removed by
// the Disposable returned from add.
type subscribers[F any] struct {
	next    int
	entries []subscriber[F]
}

type subscriber[F any] struct {
	id int
	fn F
}

func (s *subscribers[F]) add(fn F) consult.Disposable {
	id := s.next
	s.next++
	s.entries = append(s.entries, subscriber[F]{id: id, fn: fn})
	return consult.DisposeFunc(func() {
		for i, e := range s.entries {
			if e.id == id {
				s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
				return
			}
		}
	})
}

func (s *subscribers[F]) each(call func(F)) {
	for _, e := range append([]subscriber[F](nil), s.entries...) {
		call(e.fn)
	}
}

func (s *subscribers[F]) clear() { s.entries = nil }

// Widget is one picker activation rendered by the Host. Its methods are only
// called on the Host's loop, inside the bubbletea Update.
type Widget struct {
	host  *Host
	title string
	input textinput.Model

	items    []item.Item
	cursor   int
	offset   int
	selected []item.Item

	visible  bool
	hidden   bool
	disposed bool

	change subscribers[func(string)]
	accept subscribers[func()]
	active subscribers[func([]item.Item)]
	hide   subscribers[func()]
}

var _ consult.Widget = (*Widget)(nil)

func newWidget(h *Host) *Widget {
	in := textinput.New()
	in.Prompt = "> "
	in.PromptStyle = promptStyle
	in.Focus()
	return &Widget{host: h, input: in}
}

func (w *Widget) SetTitle(title string) { w.title = title }

func (w *Widget) Value() string { return w.input.Value() }

// SetValue replaces the input text and raises a change event.
func (w *Widget) SetValue(value string) {
	w.input.SetValue(value)
	w.input.CursorEnd()
	w.emitChange(value)
}

// SetItems replaces the list. The cursor returns to the first row; an active
// event is raised when that changes the highlighted item.
func (w *Widget) SetItems(items []item.Item) {
	prev := w.activeItem()
	w.items = items
	w.cursor, w.offset = 0, 0
	if cur := w.activeItem(); cur != nil && cur != prev {
		w.emitActive()
	}
}

func (w *Widget) Items() []item.Item { return w.items }

func (w *Widget) ActiveItems() []item.Item {
	if it := w.activeItem(); it != nil {
		return []item.Item{it}
	}
	return nil
}

func (w *Widget) SelectedItems() []item.Item { return w.selected }

// Show makes the widget the visible one. A hidden widget stays hidden.
func (w *Widget) Show() {
	if w.hidden || w.disposed {
		return
	}
	w.visible = true
	w.host.show(w)
}

// Hide dismisses the widget and raises a hide event, once. Hiding before
// Show still raises the event, so a session can abort while it is created.
func (w *Widget) Hide() {
	if w.hidden || w.disposed {
		return
	}
	w.hidden = true
	w.visible = false
	w.host.unshow(w)
	w.host.Post(func() {
		w.hide.each(func(fn func()) { fn() })
	})
}

func (w *Widget) Dispose() {
	w.disposed = true
	w.visible = false
	w.host.unshow(w)
	w.change.clear()
	w.accept.clear()
	w.active.clear()
	w.hide.clear()
}

func (w *Widget) OnDidChangeValue(fn func(string)) consult.Disposable { return w.change.add(fn) }

func (w *Widget) OnDidAccept(fn func()) consult.Disposable { return w.accept.add(fn) }

func (w *Widget) OnDidChangeActive(fn func([]item.Item)) consult.Disposable {
	return w.active.add(fn)
}

func (w *Widget) OnDidHide(fn func()) consult.Disposable { return w.hide.add(fn) }

// Title returns the widget title.
func (w *Widget) Title() string { return w.title }

// Cursor returns the index of the highlighted row.
func (w *Widget) Cursor() int { return w.cursor }

func (w *Widget) activeItem() item.Item {
	if w.cursor >= 0 && w.cursor < len(w.items) {
		return w.items[w.cursor]
	}
	return nil
}

func (w *Widget) emitChange(value string) {
	w.host.Post(func() {
		w.change.each(func(fn func(string)) { fn(value) })
	})
}

func (w *Widget) emitActive() {
	active := w.ActiveItems()
	w.host.Post(func() {
		w.active.each(func(fn func([]item.Item)) { fn(active) })
	})
}

func (w *Widget) emitAccept() {
	w.selected = w.ActiveItems()
	w.host.Post(func() {
		w.accept.each(func(fn func()) { fn() })
	})
}

// move shifts the cursor by delta rows, clamped to the list.
func (w *Widget) move(delta int) {
	if len(w.items) == 0 {
		return
	}
	next := min(max(w.cursor+delta, 0), len(w.items)-1)
	if next == w.cursor {
		return
	}
	w.cursor = next
	w.emitActive()
}

// scroll keeps the cursor inside a window of height rows.
func (w *Widget) scroll(height int) {
	if height < 1 {
		height = 1
	}
	if w.cursor < w.offset {
		w.offset = w.cursor
	}
	if w.cursor >= w.offset+height {
		w.offset = w.cursor - height + 1
	}
}

// handleKey applies a key press that no host binding claimed.
func (w *Widget) handleKey(msg tea.KeyMsg, page int) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		w.Hide()
		return nil
	case tea.KeyEnter:
		w.emitAccept()
		return nil
	case tea.KeyUp, tea.KeyCtrlP:
		w.move(-1)
		return nil
	case tea.KeyDown, tea.KeyCtrlN:
		w.move(1)
		return nil
	case tea.KeyPgUp:
		w.move(-page)
		return nil
	case tea.KeyPgDown:
		w.move(page)
		return nil
	}

	prev := w.input.Value()
	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	if v := w.input.Value(); v != prev {
		w.emitChange(v)
	}
	return cmd
}
