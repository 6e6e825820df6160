package fs

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Filter decides whether a slash-separated relative path is selected by a
// set of include and exclude glob patterns. Exclusions are applied after
// inclusions; no inclusion patterns means everything is included.
type Filter struct {
	included []glob.Glob
	excluded []glob.Glob
}

func NewFilter(included, excluded []string) (*Filter, error) {
	var f Filter
	for _, p := range included {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("included file pattern %q: %w", p, err)
		}
		f.included = append(f.included, g)
	}
	for _, p := range excluded {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("excluded file pattern %q: %w", p, err)
		}
		f.excluded = append(f.excluded, g)
	}
	return &f, nil
}

func (f *Filter) Match(name string) bool {
	if f == nil {
		return true
	}
	name = path.Clean(filepath.ToSlash(name))

	if len(f.included) > 0 && !matchAny(f.included, name) {
		return false
	}
	return !matchAny(f.excluded, name)
}

func matchAny(gs []glob.Glob, name string) bool {
	for _, g := range gs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
