//go:build !windows

package picker

import (
	"os"

	"golang.org/x/sys/unix"
)

// termSize returns the terminal size via ioctl, or zeros if unavailable.
func termSize(f *os.File) (width, height int) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return 0, 0
	}
	return int(ws.Col), int(ws.Row)
}
