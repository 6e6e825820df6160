package artifact

import (
	"bytes"
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
)

// escapedSeparator stands in for "/" in the names of files that a bundler
// emitted flat into one directory, e.g. "http__testing.js".
const escapedSeparator = "__"

// Place copies file below baseDir/relative and returns the path it ended
// up at. ".mjs" files become ".js" files, and names carrying the escaped
// separator are moved into the subdirectory they stand for; their source
// map reference is updated accordingly.
func Place(file, baseDir, relative string) (string, error) {
	relative = cmp.Or(relative, ".")
	base := filepath.Base(file)
	name := base
	if ext := filepath.Ext(name); ext == ".mjs" {
		name = strings.TrimSuffix(name, ext) + ".js"
	}

	dir := filepath.Join(baseDir, relative)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}

	out := filepath.Join(dir, name)
	if err := ngfs.CopyFile(file, out); err != nil {
		return "", fmt.Errorf("copy %s: %w", file, err)
	}

	if !strings.Contains(name, escapedSeparator) {
		return out, nil
	}

	moved := filepath.Join(dir, filepath.Join(strings.Split(name, escapedSeparator)...))
	if err := ngfs.Move(out, moved); err != nil {
		return "", fmt.Errorf("move %s: %w", out, err)
	}

	if filepath.Ext(moved) == ".js" {
		if err := rewriteMapReference(moved, base, filepath.Base(moved)); err != nil {
			return "", err
		}
	}
	return moved, nil
}

// rewriteMapReference points the source map comment of a moved file at
// the source map of its new name.
func rewriteMapReference(file, from, to string) error {
	fi, err := os.Stat(file)
	if err != nil {
		return err
	}
	// Inputs are often read-only.
	if err := os.Chmod(file, fi.Mode().Perm()|0o200); err != nil {
		return fmt.Errorf("make %s writable: %w", file, err)
	}

	bs, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	bs = bytes.ReplaceAll(bs, []byte(from+".map"), []byte(to+".map"))
	return os.WriteFile(file, bs, fi.Mode().Perm()|0o200)
}
