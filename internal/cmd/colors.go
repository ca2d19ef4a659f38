package cmd

import (
	"os"
	"runtime"

	"github.com/muesli/termenv"
)

// ANSI color codes for terminal output.
// These are initialized in init() and may be disabled on certain platforms.
var (
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[0;33m"
	colorCyan   = "\033[0;36m"
	colorDim    = "\033[2m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

// colorMode is set by --color: auto, always or never.
var colorMode = "auto"

func init() {
	// Disable colors if not a terminal or on Windows without ANSI support
	if shouldDisableColors() {
		disableColors()
	}
}

func enableColors() {
	colorRed = "\033[0;31m"
	colorGreen = "\033[0;32m"
	colorYellow = "\033[0;33m"
	colorCyan = "\033[0;36m"
	colorDim = "\033[2m"
	colorBold = "\033[1m"
	colorReset = "\033[0m"
}

func disableColors() {
	colorRed = ""
	colorGreen = ""
	colorYellow = ""
	colorCyan = ""
	colorDim = ""
	colorBold = ""
	colorReset = ""
}

// applyColorMode enables or disables colors according to colorMode. In auto
// mode stdout must be a terminal with color support.
func applyColorMode() {
	switch colorMode {
	case "always":
		enableColors()
	case "never":
		disableColors()
	default:
		if shouldDisableColors() || termenv.NewOutput(os.Stdout).ColorProfile() == termenv.Ascii {
			disableColors()
		} else {
			enableColors()
		}
	}
}

func shouldDisableColors() bool {
	// Check NO_COLOR environment variable (https://no-color.org/)
	if os.Getenv("NO_COLOR") != "" {
		return true
	}

	// Check TERM=dumb
	if os.Getenv("TERM") == "dumb" {
		return true
	}

	// On Windows, check if ANSI is supported
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") != "" {
			return false
		}
		if os.Getenv("TERM_PROGRAM") != "" {
			return false
		}
		return os.Getenv("ANSICON") == "" && os.Getenv("ConEmuANSI") != "ON"
	}

	return false
}
