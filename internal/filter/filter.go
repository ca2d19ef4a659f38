// Package filter matches file names against exclusion globs and picker input
// against item labels.
package filter

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher reports whether a file should be excluded. Patterns are shell
// globs; a pattern matches when it matches either the base name or the
// slash-separated path relative to the walk root.
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

// Compile builds a matcher from patterns. Duplicate and blank patterns are
// dropped. Gitignore-style leading and trailing slashes are ignored.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		p = normalize(p)
		if p == "" || slices.Contains(m.patterns, p) {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, g)
	}
	return m, nil
}

func normalize(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

// Patterns returns the compiled patterns in order.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.patterns)
}

// Match reports whether rel (a slash- or OS-separated relative path, or a
// bare name) is excluded. A nil matcher excludes nothing.
func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := path.Base(rel)
	for _, g := range m.globs {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}

// ReadIgnoreFile returns the patterns listed in an ignore file. Blank lines
// and lines starting with # are skipped. A missing file yields no patterns.
func ReadIgnoreFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return patterns, nil
}

// ProjectPatterns joins base with the patterns of every ignore file found
// directly under root, keeping first occurrences only.
func ProjectPatterns(root string, base, ignoreFiles []string) ([]string, error) {
	out := slices.Clone(base)
	for _, name := range ignoreFiles {
		patterns, err := ReadIgnoreFile(filepath.Join(root, name))
		if err != nil {
			return nil, err
		}
		for _, p := range patterns {
			if !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// ExistingIgnoreFiles returns the absolute paths of the ignore files present
// under root.
func ExistingIgnoreFiles(root string, names []string) []string {
	var out []string
	for _, name := range names {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			out = append(out, p)
		}
	}
	return out
}

var whitespace = regexp.MustCompile(`\s+`)

// Query turns picker input into a case-insensitive matcher: the trimmed,
// lowercased input is split on whitespace and the words must appear in
// order. It returns nil for blank input.
func Query(value string) *regexp.Regexp {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	words := whitespace.Split(value, -1)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(strings.Join(words, ".*"))
}

// Normalize returns the form of value Query compiles, for change detection.
func Normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// MatchLabel reports whether label matches re. A nil re matches everything.
func MatchLabel(re *regexp.Regexp, label string) bool {
	return re == nil || re.MatchString(strings.ToLower(label))
}
