package layout

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Tree tells which of the input trees a file was found in.
type Tree int

const (
	Source Tree = iota
	Bin
	Genfiles
)

func (t Tree) String() string {
	switch t {
	case Source:
		return "source"
	case Bin:
		return "bin"
	case Genfiles:
		return "genfiles"
	}
	return fmt.Sprintf("tree(%d)", int(t))
}

// Roots are the literal roots of the three input trees.
type Roots struct {
	Source   string
	Bin      string
	Genfiles string
}

func (r Roots) root(t Tree) string {
	switch t {
	case Bin:
		return r.Bin
	case Genfiles:
		return r.Genfiles
	default:
		return r.Source
	}
}

// UnknownTreeError is returned for paths that are below none of the roots.
type UnknownTreeError struct {
	Path  string
	Roots Roots
}

func (err *UnknownTreeError) Error() string {
	return fmt.Sprintf("path %q is not below any input root (source %q, bin %q, genfiles %q)",
		err.Path, err.Roots.Source, err.Roots.Bin, err.Roots.Genfiles)
}

// Location is the result of classifying an input path.
type Location struct {
	Tree Tree

	// Prefix is the input path up to and including the matched root.
	Prefix string

	// Remainder is what follows the root, without a leading slash. It is
	// "" when the path is the root itself.
	Remainder string
}

// Layout maps input tree paths to the output tree.
type Layout struct {
	out   string
	roots Roots
}

func New(out string, roots Roots) *Layout {
	return &Layout{out: out, roots: roots}
}

func (l *Layout) Out() string {
	return l.out
}

func (l *Layout) Roots() Roots {
	return l.roots
}

// NB(sr): The order matters, it breaks ties between equally long roots.
var classifyOrder = []Tree{Bin, Genfiles, Source}

// Classify finds the input tree p belongs to. Every root occurring in p at
// a path segment boundary is a candidate and the longest one wins.
func (l *Layout) Classify(p string) (Location, error) {
	p = clean(p)

	best, found := Location{}, false
	bestLen := -1
	for _, t := range classifyOrder {
		root := clean(l.roots.root(t))
		start, ok := segmentIndex(p, root)
		if !ok || len(root) <= bestLen {
			continue
		}

		end := start + len(root)
		best = Location{
			Tree:      t,
			Prefix:    p[:end],
			Remainder: strings.TrimPrefix(p[end:], "/"),
		}
		bestLen, found = len(root), true
	}

	if !found {
		return Location{}, &UnknownTreeError{Path: p, Roots: l.roots}
	}
	return best, nil
}

// Relocate returns the output path of an input file: its remainder below
// its tree root, joined onto the output directory.
func (l *Layout) Relocate(p string) (string, error) {
	loc, err := l.Classify(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.out, filepath.FromSlash(loc.Remainder)), nil
}

// Rebase inserts dir between the tree root of p and its remainder, e.g.
// "bin/pkg/index.js" becomes "bin/esm2015/pkg/index.js" for dir "esm2015".
func (l *Layout) Rebase(p, dir string) (string, error) {
	loc, err := l.Classify(p)
	if err != nil {
		return "", err
	}
	return path.Join(loc.Prefix, dir, loc.Remainder), nil
}

// RelativeReference returns the reference a file at from must use to
// address to, as seen in the published package. Both are input paths;
// they're compared by their remainders since the output tree mirrors them.
// References that stay within the directory of from start with "./".
func (l *Layout) RelativeReference(from, to string) (string, error) {
	f, err := l.Classify(from)
	if err != nil {
		return "", err
	}
	t, err := l.Classify(to)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(filepath.FromSlash(path.Dir(f.Remainder)), filepath.FromSlash(orDot(t.Remainder)))
	if err != nil {
		return "", fmt.Errorf("reference from %q to %q: %w", from, to, err)
	}
	rel = filepath.ToSlash(rel)

	if escapes(rel) || strings.HasPrefix(rel, "./") {
		return rel, nil
	}
	return "./" + rel, nil
}

// RelocateFlatModule computes the output directory of a per-module file
// emitted below a directory whose name ends in marker, e.g. ".es6". The
// file's position relative to the source root inside that directory is
// kept below subdir of the output tree. ok is false if the file does not
// carry the marker or lies outside the source root.
func (l *Layout) RelocateFlatModule(file, marker, subdir string) (dir string, ok bool) {
	file = filepath.ToSlash(file)
	i := strings.LastIndex(file, marker+"/")
	if i < 0 {
		return "", false
	}
	root := file[:i+len(marker)+1]

	rel, err := filepath.Rel(filepath.FromSlash(path.Join(root, l.roots.Source)), filepath.FromSlash(file))
	if err != nil {
		return "", false
	}
	rel = path.Dir(filepath.ToSlash(rel))
	if escapes(rel) {
		return "", false
	}
	return filepath.Join(l.out, subdir, filepath.FromSlash(rel)), true
}

// BundleName returns the reference from the manifest of the named package
// to its bundle of the given kind, e.g. "../bundles/common-http.umd.js" for
// "@angular/common/http" and "bundles".
func BundleName(pkg, kind string) string {
	parts := strings.Split(pkg, "/")
	if len(parts) > 0 && strings.HasPrefix(parts[0], "@") {
		parts = parts[1:]
	}

	up := "."
	if n := len(parts) - 1; n > 0 {
		up = strings.Repeat("../", n)
		up = up[:len(up)-1]
	}

	var base string
	switch {
	case kind == "bundles":
		base = strings.Join(parts, "-") + ".umd"
	case len(parts) == 1:
		base = parts[0]
	default:
		base = strings.Join(parts[1:], "/")
	}

	return up + "/" + kind + "/" + base + ".js"
}

// segmentIndex reports the first position where root occurs in p such
// that it starts and ends on a segment boundary. The empty root matches
// at 0.
func segmentIndex(p, root string) (int, bool) {
	if root == "" {
		return 0, true
	}
	for off := 0; off <= len(p)-len(root); {
		i := strings.Index(p[off:], root)
		if i < 0 {
			return 0, false
		}
		i += off
		end := i + len(root)
		if (i == 0 || p[i-1] == '/') && (end == len(p) || p[end] == '/') {
			return i, true
		}
		off = i + 1
	}
	return 0, false
}

func clean(p string) string {
	if p == "" {
		return ""
	}
	p = path.Clean(filepath.ToSlash(p))
	if p == "." {
		return ""
	}
	return p
}

func orDot(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, "../")
}
