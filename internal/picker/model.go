package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// wakeMsg tells the model that work was posted to the host queue.
type wakeMsg struct{}

// Model is the bubbletea model. Session code runs inside Update: every
// message drains the host queue, so widget events raised while handling a
// key are delivered before the next frame.
type Model struct {
	host *Host
	// started is set once the first queued work has run; from then on an
	// empty screen ends the program.
	started bool
}

// NewModel creates a model rendering h.
func NewModel(h *Host) Model {
	return Model{host: h}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return wakeMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.host.width = msg.Width
		m.host.height = msg.Height

	case tea.KeyMsg:
		cmd = m.handleKey(msg)

	case wakeMsg:
		m.started = true

	default:
		if w := m.host.current; w != nil {
			w.input, cmd = w.input.Update(msg)
		}
	}

	m.host.drain()
	w := m.host.current
	if w == nil {
		if m.started {
			return m, tea.Quit
		}
		return m, cmd
	}
	w.scroll(m.listHeight())
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	w := m.host.current
	if w == nil {
		if msg.Type == tea.KeyCtrlC {
			return tea.Quit
		}
		return nil
	}
	if b, ok := m.host.binding(msg.String()); ok {
		b.Run()
		return nil
	}
	return w.handleKey(msg, m.listHeight())
}

// listHeight returns the number of visible list rows (terminal height minus
// title, query and status rows).
func (m Model) listHeight() int {
	const chrome = 3
	h := m.host.height - chrome
	if h < 1 {
		h = 20 // before the first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62"))
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// View implements tea.Model.
func (m Model) View() string {
	w := m.host.current
	if w == nil {
		return ""
	}

	var b strings.Builder
	if w.title != "" {
		b.WriteString(titleStyle.Render(" " + Sanitize(w.title) + " "))
		b.WriteRune('\n')
	}
	b.WriteString(w.input.View())
	b.WriteRune('\n')
	b.WriteString(m.viewList(w))
	b.WriteRune('\n')
	b.WriteString(m.viewStatus(w))
	return b.String()
}

// viewList renders the visible window of items with a selection marker.
func (m Model) viewList(w *Widget) string {
	if len(w.items) == 0 {
		return dimStyle.Render("No matches")
	}

	end := min(w.offset+m.listHeight(), len(w.items))

	rows := make([]string, 0, end-w.offset)
	for i := w.offset; i < end; i++ {
		rows = append(rows, m.viewRow(w, i))
	}
	return strings.Join(rows, "\n")
}

func (m Model) viewRow(w *Widget, i int) string {
	// Room for the marker prefix.
	label, desc := rowText(w.items[i], m.host.width-2)

	marker, style := "  ", normalStyle
	if i == w.cursor {
		marker, style = "> ", selectedStyle
	}
	row := style.Render(marker + label)
	if desc != "" {
		row += "  " + dimStyle.Render(desc)
	}
	return row
}

// viewStatus renders the latest notification, or the item count.
func (m Model) viewStatus(w *Widget) string {
	if msg, ok := m.host.lastMessage(); ok {
		text := Sanitize(msg.Text)
		switch msg.Level {
		case LevelError:
			return errorStyle.Render(text)
		case LevelWarn:
			return warnStyle.Render(text)
		default:
			return dimStyle.Render(text)
		}
	}
	return dimStyle.Render(fmt.Sprintf("%d/%d", min(w.cursor+1, len(w.items)), len(w.items)))
}
