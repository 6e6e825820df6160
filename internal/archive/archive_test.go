package archive_test

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"

	"github.com/lhenriquegomescamilo/angular-1/internal/archive"
	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
)

func TestPack(t *testing.T) {
	dir := t.TempDir()
	if err := ngfs.Materialize(ngfs.MapFS(map[string]string{
		"package.json":          `{"name":"@angular/common"}`,
		"bundles/common.umd.js": "umd",
		"http/package.json":     `{"name":"@angular/common/http"}`,
		"fesm2015/common.js":    "fesm",
	}), dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(dir, "bundles", "common.umd.js"), 0o700); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	n, err := archive.Pack(dir, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if exp, act := 4, n; exp != act {
		t.Fatalf("expected %d files, got %d", exp, act)
	}

	gr, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	tr := tar.NewReader(gr)

	var names []string
	modes := map[string]int64{}
	for {
		hdr, err := tr.Next()
		if err != nil {
			break
		}
		names = append(names, hdr.Name)
		modes[hdr.Name] = hdr.Mode
		if hdr.ModTime.Year() != 1985 {
			t.Errorf("expected pinned mtime for %s, got %v", hdr.Name, hdr.ModTime)
		}
	}

	exp := []string{
		"package/bundles/common.umd.js",
		"package/fesm2015/common.js",
		"package/http/package.json",
		"package/package.json",
	}
	if diff := cmp.Diff(exp, names); diff != "" {
		t.Fatalf("unexpected entries (-want, +got):\n%s", diff)
	}
	if exp, act := int64(0o755), modes["package/bundles/common.umd.js"]; exp != act {
		t.Errorf("expected mode %o, got %o", exp, act)
	}
	if exp, act := int64(0o644), modes["package/package.json"]; exp != act {
		t.Errorf("expected mode %o, got %o", exp, act)
	}
}

func TestPackReproducible(t *testing.T) {
	dir := t.TempDir()
	if err := ngfs.Materialize(ngfs.MapFS(map[string]string{
		"a.js":   "a",
		"b/c.js": "c",
	}), dir); err != nil {
		t.Fatal(err)
	}

	var first, second bytes.Buffer
	if _, err := archive.Pack(dir, &first); err != nil {
		t.Fatal(err)
	}
	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "a.js"), later, later); err != nil {
		t.Fatal(err)
	}
	if _, err := archive.Pack(dir, &second); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatal("expected identical archives")
	}

	entries, err := archive.List(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]string{"package/a.js": "a", "package/b/c.js": "c"}, entries); diff != "" {
		t.Fatalf("unexpected contents (-want, +got):\n%s", diff)
	}
}

func TestPackMissingDir(t *testing.T) {
	if _, err := archive.Pack(filepath.Join(t.TempDir(), "nope"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error")
	}
}
