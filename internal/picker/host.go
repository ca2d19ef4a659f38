// Package picker is the terminal host for consult sessions. A bubbletea
// program renders the visible widget, and its message loop is the single
// thread every session callback runs on.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sunhs/consult.code/internal/consult"
)

// Level is the severity of a user-visible message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Message is one notification shown in the status line.
type Message struct {
	Level Level
	Text  string
}

// Binding maps a key to a command. It only fires while every flag in When
// is raised.
type Binding struct {
	// Key is a bubbletea key name, e.g. "ctrl+u" or "backspace".
	Key  string
	When []consult.Flag
	Run  func()
	Help string
}

// Config configures a Host.
type Config struct {
	Bindings []Binding
	Logger   *slog.Logger
}

// Host implements consult.Loop, consult.ContextSetter and consult.Notifier
// on top of a bubbletea program, and creates the widgets it renders.
type Host struct {
	mu      sync.Mutex
	queue   []func()
	program *tea.Program

	current  *Widget
	flags    map[consult.Flag]bool
	bindings []Binding
	messages []Message
	width    int
	height   int

	logger *slog.Logger
}

var (
	_ consult.Loop          = (*Host)(nil)
	_ consult.ContextSetter = (*Host)(nil)
	_ consult.Notifier      = (*Host)(nil)
)

// New creates a host. Nothing is drawn until Run.
func New(cfg Config) *Host {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Host{
		flags:    make(map[consult.Flag]bool),
		bindings: cfg.Bindings,
		logger:   cfg.Logger.With("component", "picker"),
	}
}

// NewWidget is a consult.WidgetFactory.
func (h *Host) NewWidget() consult.Widget { return newWidget(h) }

// Bind adds key bindings.
func (h *Host) Bind(b ...Binding) { h.bindings = append(h.bindings, b...) }

// Post queues fn for the loop. It is safe to call from any goroutine.
func (h *Host) Post(fn func()) {
	h.mu.Lock()
	h.queue = append(h.queue, fn)
	p := h.program
	h.mu.Unlock()
	if p != nil {
		go p.Send(wakeMsg{})
	}
}

// drain runs queued functions, including ones they queue, in order.
func (h *Host) drain() {
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return
		}
		fn := h.queue[0]
		h.queue = h.queue[1:]
		h.mu.Unlock()
		fn()
	}
}

// SetContext raises or lowers control signals.
func (h *Host) SetContext(flags map[consult.Flag]bool) {
	for f, v := range flags {
		h.flags[f] = v
	}
}

// Flag reports a control signal.
func (h *Host) Flag(f consult.Flag) bool { return h.flags[f] }

func (h *Host) Info(msg string) {
	h.notify(LevelInfo, msg)
	h.logger.Info(msg)
}

func (h *Host) Warn(msg string) {
	h.notify(LevelWarn, msg)
	h.logger.Warn(msg)
}

func (h *Host) Error(msg string) {
	h.notify(LevelError, msg)
	h.logger.Error(msg)
}

func (h *Host) notify(level Level, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, Message{Level: level, Text: text})
}

// Messages returns every notification so far.
func (h *Host) Messages() []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.messages)
}

func (h *Host) lastMessage() (Message, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Current returns the visible widget, or nil.
func (h *Host) Current() *Widget { return h.current }

func (h *Host) show(w *Widget) {
	h.current = w
}

func (h *Host) unshow(w *Widget) {
	if h.current == w {
		h.current = nil
	}
}

// binding returns the first binding for key whose flags are all raised.
func (h *Host) binding(key string) (Binding, bool) {
	for _, b := range h.bindings {
		if b.Key != key {
			continue
		}
		if slices.ContainsFunc(b.When, func(f consult.Flag) bool { return !h.flags[f] }) {
			continue
		}
		return b, true
	}
	return Binding{}, false
}

// Run starts the terminal program, posts start to the loop and blocks until
// no widget is left visible or ctx is cancelled.
func (h *Host) Run(ctx context.Context, start func()) error {
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}

	// stdout may be captured; draw on the controlling terminal instead.
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err == nil {
		defer tty.Close()
		lipgloss.SetColorProfile(termenv.NewOutput(tty).ColorProfile())
		opts = append(opts, tea.WithInput(tty), tea.WithOutput(tty))
		h.width, h.height = termSize(tty)
	} else {
		h.logger.Debug("no controlling terminal, using stdio", "error", err)
	}

	p := tea.NewProgram(NewModel(h), opts...)
	h.mu.Lock()
	h.program = p
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.program = nil
		h.mu.Unlock()
	}()

	h.Post(start)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("running picker: %w", err)
	}
	return nil
}
