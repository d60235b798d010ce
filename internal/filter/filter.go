// Package filter decides which filesystem paths are worth archiving.
package filter

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var ErrBadPattern = errors.New("bad glob pattern")

type Options struct {
	Patterns          []string
	IgnorePatterns    []string
	CaseSensitive     bool
	IgnoreDirectories bool
}

// Filter matches paths against include and exclude globs. A pattern without a
// slash sees only the final path component; a pattern such as ".git/*" sees
// as many trailing components as it has itself.
type Filter struct {
	include       []pattern
	exclude       []pattern
	caseSensitive bool
	ignoreDirs    bool
}

type pattern struct {
	glob  string
	depth int
}

func New(opts Options) (*Filter, error) {
	include, err := compile(opts.Patterns, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}
	exclude, err := compile(opts.IgnorePatterns, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}

	return &Filter{
		include:       include,
		exclude:       exclude,
		caseSensitive: opts.CaseSensitive,
		ignoreDirs:    opts.IgnoreDirectories,
	}, nil
}

func (f *Filter) Matches(p string, isDir bool) bool {
	if isDir && f.ignoreDirs {
		return false
	}

	p = filepath.ToSlash(filepath.Clean(p))
	if !f.caseSensitive {
		p = strings.ToLower(p)
	}

	for _, pt := range f.exclude {
		if pt.match(p) {
			return false
		}
	}
	for _, pt := range f.include {
		if pt.match(p) {
			return true
		}
	}
	return false
}

func compile(globs []string, caseSensitive bool) ([]pattern, error) {
	patterns := make([]pattern, 0, len(globs))
	for _, g := range globs {
		if _, err := path.Match(g, ""); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadPattern, g)
		}
		if !caseSensitive {
			g = strings.ToLower(g)
		}
		g = strings.TrimSuffix(g, "/")
		patterns = append(patterns, pattern{
			glob:  g,
			depth: strings.Count(g, "/") + 1,
		})
	}
	return patterns, nil
}

func (pt pattern) match(p string) bool {
	ok, _ := path.Match(pt.glob, tail(p, pt.depth))
	return ok
}

// tail returns the last n slash separated components of p, or p itself when
// it has fewer.
func tail(p string, n int) string {
	end := len(p)
	for i := 0; i < n; i++ {
		j := strings.LastIndex(p[:end], "/")
		if j < 0 {
			return p
		}
		if i == n-1 {
			return p[j+1:]
		}
		end = j
	}
	return p
}
