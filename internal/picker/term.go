package picker

import (
	"os"
	"strconv"
)

// DefaultWidth is used when neither the terminal nor $COLUMNS give a width.
const DefaultWidth = 80

// TermWidth returns the column count of the terminal behind f, then
// $COLUMNS, then DefaultWidth.
func TermWidth(f *os.File) int {
	if w, _ := termSize(f); w > 0 {
		return w
	}
	if w, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && w > 0 {
		return w
	}
	return DefaultWidth
}
