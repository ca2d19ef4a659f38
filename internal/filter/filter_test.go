package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher(t *testing.T) {
	m, err := Compile([]string{"*.pyc", "node_modules/", "/.git", "docs/*.md", "", "*.pyc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"*.pyc", "node_modules", ".git", "docs/*.md"}, m.Patterns())

	tests := []struct {
		rel  string
		want bool
	}{
		{"main.pyc", true},
		{"pkg/sub/main.pyc", true},
		{"node_modules", true},
		{"web/node_modules", true},
		{".git", true},
		{"docs/readme.md", true},
		{"docs/api/readme.md", false},
		{"main.go", false},
		{".gitignore", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.rel))
		})
	}
}

func TestMatcher_Nil(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything"))
	assert.Nil(t, m.Patterns())
}

func TestReadIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, ".gitignore")
	require.NoError(t, os.WriteFile(name, []byte("# comment\n\n*.log\n  build/  \n"), 0o644))

	patterns, err := ReadIgnoreFile(name)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.log", "build/"}, patterns)

	patterns, err = ReadIgnoreFile(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Nil(t, patterns)
}

func TestProjectPatterns(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n.git\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".ignore"), []byte("tmp\n*.log\n"), 0o644))

	got, err := ProjectPatterns(root, []string{".git"}, []string{".gitignore", ".ignore", ".rgignore"})
	require.NoError(t, err)
	assert.Equal(t, []string{".git", "*.log", "tmp"}, got)

	files := ExistingIgnoreFiles(root, []string{".gitignore", ".rgignore"})
	assert.Equal(t, []string{filepath.Join(root, ".gitignore")}, files)
}

func TestQuery(t *testing.T) {
	assert.Nil(t, Query("   "))

	re := Query("  Main  GO ")
	require.NotNil(t, re)
	assert.True(t, MatchLabel(re, "main_test.go"))
	assert.True(t, MatchLabel(re, "MAIN.GO"))
	assert.False(t, MatchLabel(re, "go.main"))

	// Regexp metacharacters are literal.
	re = Query("a.b (")
	assert.True(t, MatchLabel(re, "a.b (1)"))
	assert.False(t, MatchLabel(re, "axb ("))

	assert.True(t, MatchLabel(nil, "anything"))
	assert.Equal(t, "foo bar", Normalize("  Foo bar "))
}
