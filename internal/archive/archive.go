// Package archive packs a package output directory into an npm-style
// tarball: a gzip-compressed tar with every entry below "package/".
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Prefix is the directory every entry of the tarball is placed under.
const Prefix = "package"

// mtime is the timestamp npm pins for reproducible tarballs.
var mtime = time.Date(1985, time.October, 26, 8, 15, 0, 0, time.UTC)

// Pack writes the files below dir as a tarball to w. Entries are sorted and
// carry fixed timestamps and ownership so identical trees yield identical
// archives. It returns the number of files written.
func Pack(dir string, w io.Writer) (int, error) {
	var files []string
	if err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	}); err != nil {
		return 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	slices.Sort(files)

	gw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	tw := tar.NewWriter(gw)

	for _, name := range files {
		if err := addFile(tw, filepath.Join(dir, filepath.FromSlash(name)), name); err != nil {
			return 0, err
		}
	}

	if err := tw.Close(); err != nil {
		return 0, err
	}
	if err := gw.Close(); err != nil {
		return 0, err
	}
	return len(files), nil
}

func addFile(tw *tar.Writer, src, name string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	mode := int64(0o644)
	if fi.Mode()&0o111 != 0 {
		mode = 0o755
	}

	if err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     path.Join(Prefix, name),
		Size:     fi.Size(),
		Mode:     mode,
		ModTime:  mtime,
		Format:   tar.FormatPAX,
	}); err != nil {
		return fmt.Errorf("failed to write header for %s: %w", name, err)
	}

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to archive %s: %w", name, err)
	}
	return nil
}

// List returns the entry names and contents of a tarball written by Pack.
func List(r io.Reader) (map[string]string, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	entries := map[string]string{}
	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		} else if err != nil {
			return nil, err
		}
		bs, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		entries[hdr.Name] = string(bs)
	}
}
