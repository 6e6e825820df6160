package packager_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/lhenriquegomescamilo/angular-1/internal/archive"
	"github.com/lhenriquegomescamilo/angular-1/internal/config"
	"github.com/lhenriquegomescamilo/angular-1/internal/packager"
	"github.com/lhenriquegomescamilo/angular-1/internal/s3"
)

func TestExecutePackAndPublish(t *testing.T) {
	cases := []struct {
		note     string
		revision string
		exp      string
	}{
		{note: "plain revision", revision: "v1.2.3-alpha", exp: "v1.2.3-alpha"},
		{note: "single word revision", revision: "release", exp: "release"},
		{note: "environment revision", revision: "${NGPACKAGE_TEST_REVISION}", exp: "env-rev"},
		{note: "rego revision", revision: `$"{input.name}@{input.output}"`, exp: "@angular/common@dist"},
		{note: "no revision, no git"},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			commonTree(t)
			t.Setenv("NGPACKAGE_TEST_REVISION", "env-rev")

			published := filepath.Join("published", "common.tgz")
			storage, err := s3.New(t.Context(), config.ObjectStorage{
				FileSystemStorage: &config.FileSystemStorage{Path: published},
			})
			if err != nil {
				t.Fatal(err)
			}

			p := packager.New(commonPackage()).
				WithPack("common.tgz").
				WithStorage(storage).
				WithRevision(tc.revision)

			res, err := p.Execute(t.Context())
			if err != nil {
				t.Fatal(err)
			}

			if exp, act := packager.BuildStateSuccess, p.Status().State; exp != act {
				t.Fatalf("expected state %v, got %v", exp, act)
			}
			if !res.Published || res.Archive != "common.tgz" {
				t.Fatalf("expected package to be packed and published, got %+v", res)
			}
			if exp, act := tc.exp, res.Revision; exp != act {
				t.Fatalf("expected revision %q, got %q", exp, act)
			}

			for _, f := range []string{"common.tgz", published} {
				r, err := os.Open(f)
				if err != nil {
					t.Fatal(err)
				}
				entries, err := archive.List(r)
				r.Close()
				if err != nil {
					t.Fatal(err)
				}
				if _, ok := entries["package/http/testing/package.json"]; !ok {
					t.Fatalf("expected synthesized manifest in %s, got %d entries", f, len(entries))
				}
				if exp, act := "umd", entries["package/bundles/common.umd.js"]; exp != act {
					t.Fatalf("expected bundle content %q, got %q", exp, act)
				}
			}
		})
	}
}

func TestExecuteRevisionFromGit(t *testing.T) {
	commonTree(t)

	repository, err := git.PlainInit(".", false)
	if err != nil {
		t.Fatal(err)
	}
	worktree, err := repository.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := worktree.Commit("initial", &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		note     string
		revision string
		exp      string
	}{
		{note: "head commit", exp: hash.String()},
		{note: "template", revision: `$"{input.name}@{input.branch}-{input.commit}"`, exp: "@angular/common@master-" + hash.String()},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			storage, err := s3.New(t.Context(), config.ObjectStorage{
				FileSystemStorage: &config.FileSystemStorage{Path: filepath.Join("published", "common.tgz")},
			})
			if err != nil {
				t.Fatal(err)
			}

			res, err := packager.New(commonPackage()).
				WithStorage(storage).
				WithRevision(tc.revision).
				Execute(t.Context())
			if err != nil {
				t.Fatal(err)
			}
			if exp, act := tc.exp, res.Revision; exp != act {
				t.Fatalf("expected revision %q, got %q", exp, act)
			}
		})
	}
}

func TestExecuteBadRevision(t *testing.T) {
	commonTree(t)

	storage, err := s3.New(t.Context(), config.ObjectStorage{
		FileSystemStorage: &config.FileSystemStorage{Path: "common.tgz"},
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = packager.New(commonPackage()).
		WithStorage(storage).
		WithRevision(`input.nope.missing`).
		Execute(t.Context())

	var berr *packager.BuildError
	if !errors.As(err, &berr) || berr.State != packager.BuildStateRevisionFailed {
		t.Fatalf("expected revision failure, got %v", err)
	}
	if _, err := os.Stat("common.tgz"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected nothing to be published, got %v", err)
	}
}

func TestExecuteBuildFailed(t *testing.T) {
	commonTree(t)
	pkg := commonPackage()
	pkg.Output = ""

	p := packager.New(pkg)
	res, err := p.Execute(t.Context())

	var berr *packager.BuildError
	if !errors.As(err, &berr) || berr.State != packager.BuildStateBuildFailed {
		t.Fatalf("expected build failure, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no result, got %+v", res)
	}
	if p.Status().Message == "" {
		t.Fatal("expected status message")
	}
}

func TestBuildStateString(t *testing.T) {
	for state, exp := range map[packager.BuildState]string{
		packager.BuildStateSuccess:            "success",
		packager.BuildStateSourceViolation:    "source_violation",
		packager.BuildStateDanglingReferences: "dangling_references",
		packager.BuildStatePushFailed:         "push_failed",
		packager.BuildState(42):               "state(42)",
	} {
		if act := state.String(); exp != act {
			t.Errorf("expected %q, got %q", exp, act)
		}
	}
}
