package host

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/sunhs/consult.code/internal/consult"
)

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// ConsoleNotifier writes styled messages to a writer and mirrors them to the
// logger.
type ConsoleNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	logger *slog.Logger
}

var _ consult.Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier creates a notifier writing to out.
func NewConsoleNotifier(out io.Writer, logger *slog.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleNotifier{out: out, logger: logger}
}

func (n *ConsoleNotifier) Info(msg string) {
	n.logger.Info(msg)
	n.write(infoStyle.Render(msg))
}

func (n *ConsoleNotifier) Warn(msg string) {
	n.logger.Warn(msg)
	n.write(warnStyle.Render(msg))
}

func (n *ConsoleNotifier) Error(msg string) {
	n.logger.Error(msg)
	n.write(errorStyle.Render(msg))
}

func (n *ConsoleNotifier) write(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, s)
}
