package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing/fstest"
)

func MapFS(m map[string]string) fs.FS {
	m0 := make(map[string]*fstest.MapFile, len(m))
	for p, f := range m {
		m0[p] = &fstest.MapFile{Data: []byte(f)}
	}
	return fstest.MapFS(m0)
}

// Materialize writes the files of fsys below dir. It's used to lay out
// build trees on disk.
func Materialize(fsys fs.FS, dir string) error {
	return fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		bs, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, bs, 0o644)
	})
}
