package fs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var errStopWalk = errors.New("stop walk")

// FSContainsFiles tells if fsys holds at least one file. A missing root
// holds none.
func FSContainsFiles(fsys fs.FS) (bool, error) {
	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		switch {
		case err != nil:
			return err
		case d.IsDir():
			return nil
		}
		return errStopWalk
	})
	switch {
	case errors.Is(err, errStopWalk):
		return true, nil
	case errors.Is(err, fs.ErrNotExist), err == nil:
		return false, nil
	}
	return false, err
}

// WriteFile writes data to name, creating parent directories as needed. An
// existing file is replaced, even if it was read-only.
func WriteFile(name string, data []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	if err := remove(name); err != nil {
		return err
	}
	return os.WriteFile(name, data, perm)
}

// CopyFile duplicates src at dst, keeping the permission bits of src.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := remove(dst); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Move renames src to dst, creating the parent directories of dst.
func Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := remove(dst); err != nil {
		return err
	}
	return os.Rename(src, dst)
}

func remove(name string) error {
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
