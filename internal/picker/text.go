package picker

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/sunhs/consult.code/internal/item"
)

const ellipsis = "…"

// Sanitize makes s safe to render on one terminal row. Invalid UTF-8 becomes
// U+FFFD, escape sequences are stripped, tabs become spaces and other
// control characters are dropped. Grep text and file names can carry any of
// these.
func Sanitize(s string) string {
	s = ansi.Strip(strings.ToValidUTF8(s, "�"))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// MiddleTruncate shortens s to maxWidth columns by replacing its middle with
// an ellipsis, so both the start of a path and its file name stay visible.
// Below three columns it keeps the prefix only.
func MiddleTruncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}
	if maxWidth < 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	rest := maxWidth - runewidth.StringWidth(ellipsis)
	head := runewidth.Truncate(s, (rest+1)/2, "")
	tail := runewidth.TruncateLeft(s, width-rest/2, "")
	return head + ellipsis + tail
}

// rowText returns the label and secondary text shown for it, sanitized and
// fitted to width columns. The description is preferred over the detail,
// and the label keeps its room first. A width of 4 or less disables fitting.
func rowText(it item.Item, width int) (label, secondary string) {
	label = Sanitize(it.Label())
	secondary = Sanitize(it.Description())
	if secondary == "" {
		secondary = Sanitize(it.Detail())
	}
	if width <= 4 {
		return label, secondary
	}
	label = MiddleTruncate(label, width)
	if secondary != "" {
		// Two spaces separate the columns.
		secondary = MiddleTruncate(secondary, max(width-runewidth.StringWidth(label)-2, 0))
	}
	return label, secondary
}
