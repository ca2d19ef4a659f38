package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunhs/consult.code/internal/item"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "func main() {", "func main() {"},
		{"tabs", "\treturn nil", " return nil"},
		{"colored grep text", "\x1b[1;31mneedle\x1b[0m here", "needle here"},
		{"osc hyperlink", "\x1b]8;;https://example.com\x07link\x1b]8;;\x07", "link"},
		{"charset designation", "\x1b(Bmain.go", "main.go"},
		{"carriage return", "line\r", "line"},
		{"bell and invalid byte", "a\x07b\x80", "ab�"},
		{"invalid run collapses", "\x80\x81ok", "�ok"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestMiddleTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits exactly", "abcde", 5, "abcde"},
		{"fits with room", "abc", 10, "abc"},
		{"keeps both ends", "abcdefghij", 7, "abc…hij"},
		{"path keeps file name", "/home/u/code/app/main.go", 15, "/home/u…main.go"},
		{"three columns", "abcdef", 3, "a…f"},
		{"two columns keep prefix", "abcdef", 2, "ab"},
		{"zero", "abcdef", 0, ""},
		{"empty", "", 5, ""},
		// Wide runes are 2 columns; a split rune in the tail is padded.
		{"wide runes", "你好世界", 7, "你… 界"},
		{"wide runes fit", "你好", 4, "你好"},
		{"emoji fits", "\U0001f600 hi", 10, "\U0001f600 hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MiddleTruncate(tt.input, tt.maxWidth))
		})
	}
}

func TestRowText(t *testing.T) {
	f, err := item.NewFile("/home/u/code/app/main.go", item.KindFile, item.WithPathDescription("/home/u"))
	require.NoError(t, err)

	label, desc := rowText(f, 80)
	assert.Equal(t, "main.go", label)
	assert.Equal(t, "~/code/app/main.go", desc)

	// The label keeps its room; the description gets what is left.
	label, desc = rowText(f, 20)
	assert.Equal(t, "main.go", label)
	assert.Equal(t, "~/cod…in.go", desc)

	label, desc = rowText(f, 4)
	assert.Equal(t, "main.go", label, "narrow widths are not fitted")
	assert.Equal(t, "~/code/app/main.go", desc)
}

func TestRowText_FallsBackToDetail(t *testing.T) {
	g := item.NewGrep("/p/main.go", "main.go", 3, 7, "\tx := \x1b[31mneedle\x1b[0m", "")

	label, detail := rowText(g, 80)
	assert.Equal(t, " x := needle", label)
	assert.Equal(t, "main.go:3:7", detail)
}
