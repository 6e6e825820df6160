package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
)

func TestFSContainsFiles(t *testing.T) {
	cases := []struct {
		note string
		fsys fstest.MapFS
		exp  bool
	}{
		{
			note: "empty",
			fsys: fstest.MapFS{},
		},
		{
			note: "only directories",
			fsys: fstest.MapFS{"a/b": &fstest.MapFile{Mode: os.ModeDir | 0o755}},
		},
		{
			note: "nested file",
			fsys: fstest.MapFS{"a/b/c.js": &fstest.MapFile{Data: []byte("x")}},
			exp:  true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			act, err := ngfs.FSContainsFiles(tc.fsys)
			if err != nil {
				t.Fatal(err)
			}
			if act != tc.exp {
				t.Fatalf("expected %v, got %v", tc.exp, act)
			}
		})
	}
}

func TestFSContainsFilesMissingDir(t *testing.T) {
	act, err := ngfs.FSContainsFiles(os.DirFS(filepath.Join(t.TempDir(), "missing")))
	if err != nil {
		t.Fatal(err)
	}
	if act {
		t.Fatal("expected no files")
	}
}

func TestFilter(t *testing.T) {
	cases := []struct {
		note     string
		included []string
		excluded []string
		path     string
		exp      bool
	}{
		{note: "no patterns", path: "a/b.js", exp: true},
		{note: "excluded exact", excluded: []string{"a/b.js"}, path: "a/b.js"},
		{note: "excluded single star stays in segment", excluded: []string{"*.md"}, path: "docs/x.md", exp: true},
		{note: "excluded double star", excluded: []string{"**.md"}, path: "docs/x.md"},
		{note: "included miss", included: []string{"*.json"}, path: "a.js"},
		{note: "included hit", included: []string{"*.json"}, path: "a.json", exp: true},
		{note: "include then exclude", included: []string{"**.json"}, excluded: []string{"testing/**"}, path: "testing/a.json"},
		{note: "cleaned", excluded: []string{"a/b.js"}, path: "./a/b.js"},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			f, err := ngfs.NewFilter(tc.included, tc.excluded)
			if err != nil {
				t.Fatal(err)
			}
			if act := f.Match(tc.path); act != tc.exp {
				t.Fatalf("expected %v, got %v", tc.exp, act)
			}
		})
	}
}

func TestFilterInvalidPattern(t *testing.T) {
	if _, err := ngfs.NewFilter(nil, []string{"[a-"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestNilFilterMatchesEverything(t *testing.T) {
	var f *ngfs.Filter
	if !f.Match("anything") {
		t.Fatal("expected match")
	}
}

func TestWriteFileReplacesReadOnly(t *testing.T) {
	name := filepath.Join(t.TempDir(), "a", "b", "c.txt")
	if err := ngfs.WriteFile(name, []byte("one"), 0o444); err != nil {
		t.Fatal(err)
	}
	if err := ngfs.WriteFile(name, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if exp, act := "two", string(bs); exp != act {
		t.Fatalf("expected %q, got %q", exp, act)
	}
}

func TestCopyFileKeepsMode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.js")
	if err := os.WriteFile(src, []byte("content"), 0o444); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "out", "dst.js")
	if err := ngfs.CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if exp, act := os.FileMode(0o444), fi.Mode().Perm(); exp != act {
		t.Fatalf("expected mode %v, got %v", exp, act)
	}

	// copying again onto the read-only destination overwrites it
	if err := ngfs.CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
}

func TestMaterialize(t *testing.T) {
	dir := t.TempDir()
	if err := ngfs.Materialize(ngfs.MapFS(map[string]string{
		"x/y/z.txt": "z",
		"a.txt":     "a",
	}), dir); err != nil {
		t.Fatal(err)
	}
	bs, err := os.ReadFile(filepath.Join(dir, "x", "y", "z.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(bs) != "z" {
		t.Fatalf("unexpected content %q", bs)
	}
}
