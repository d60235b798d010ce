package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultFilter(t *testing.T) *Filter {
	t.Helper()

	f, err := New(Options{
		Patterns:          []string{"*.py", "*.txt", "*.ipynb", "*.md", "*.cpp", "*.h"},
		IgnorePatterns:    []string{"~*", "*.tmp", "*.temp", "*.bak", ".git/*", "__pycache__/*"},
		IgnoreDirectories: true,
	})
	require.NoError(t, err)
	return f
}

func TestFilter_Matches(t *testing.T) {
	f := defaultFilter(t)

	tests := []struct {
		name  string
		path  string
		isDir bool
		want  bool
	}{
		{name: "included extension", path: "/work/lab1/main.py", want: true},
		{name: "relative path", path: "notes.md", want: true},
		{name: "not included", path: "/work/image.png", want: false},
		{name: "excluded extension", path: "/work/draft.tmp", want: false},
		{name: "lock file prefix", path: "/work/~main.py", want: false},
		{name: "exclude wins over include", path: "/work/old.py.bak", want: false},
		{name: "case insensitive include", path: "/work/README.MD", want: true},
		{name: "case insensitive exclude", path: "/work/a.TMP", want: false},
		{name: "directory ignored", path: "/work/src.py", isDir: true, want: false},
		{name: "git internals", path: "/work/.git/hooks.py", want: false},
		{name: "pycache", path: "/work/pkg/__pycache__/mod.py", want: false},
		{name: "nested deeper than pattern", path: "/work/.git/objects/x.txt", want: true},
		{name: "git pattern on bare name", path: "/work/config.txt", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Matches(tt.path, tt.isDir))
		})
	}
}

func TestFilter_CaseSensitive(t *testing.T) {
	f, err := New(Options{
		Patterns:       []string{"*.py"},
		IgnorePatterns: []string{"*.TMP"},
		CaseSensitive:  true,
	})
	require.NoError(t, err)

	assert.True(t, f.Matches("a.py", false))
	assert.False(t, f.Matches("a.PY", false))
	assert.True(t, f.Matches("a.tmp.py", false))
	assert.False(t, f.Matches("a.TMP", false))
}

func TestFilter_Directories(t *testing.T) {
	f, err := New(Options{Patterns: []string{"*"}})
	require.NoError(t, err)

	assert.True(t, f.Matches("/work/sub", true))
}

func TestFilter_NoPatterns(t *testing.T) {
	f, err := New(Options{})
	require.NoError(t, err)

	assert.False(t, f.Matches("a.py", false))
}

func TestNew_BadPattern(t *testing.T) {
	_, err := New(Options{Patterns: []string{"[a-"}})
	assert.ErrorIs(t, err, ErrBadPattern)

	_, err = New(Options{Patterns: []string{"*.py"}, IgnorePatterns: []string{"\\"}})
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c", tail("a/b/c", 1))
	assert.Equal(t, "b/c", tail("a/b/c", 2))
	assert.Equal(t, "a/b/c", tail("a/b/c", 3))
	assert.Equal(t, "a/b/c", tail("a/b/c", 5))
	assert.Equal(t, "c", tail("c", 1))
}
