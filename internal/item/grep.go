package item

import "fmt"

// Grep is a single match reported by the external search tool.
// Line and Column are 0-based.
type Grep struct {
	Display
	Path   string
	Line   int
	Column int
}

// NewGrep creates a grep item from 1-based line and column numbers as
// printed by the search tool.
func NewGrep(path, relPath string, line, column int, text, home string) *Grep {
	return &Grep{
		Display: Display{
			label:      text,
			detail:     Tildify(fmt.Sprintf("%s:%d:%d", relPath, line, column), home),
			alwaysShow: true,
		},
		Path:   path,
		Line:   line - 1,
		Column: column - 1,
	}
}
