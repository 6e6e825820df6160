package packager

import (
	"github.com/lhenriquegomescamilo/angular-1/internal/entrypoint"
	"github.com/lhenriquegomescamilo/angular-1/internal/manifest"
)

// Kind names the artifact list a placed file came from.
type Kind string

const (
	KindReadme    Kind = "readme"
	KindSource    Kind = "source"
	KindManifest  Kind = "manifest"
	KindData      Kind = "data"
	KindTypings   Kind = "typings"
	KindDtsBundle Kind = "dts_bundle"
	KindFESM2015  Kind = "fesm2015"
	KindFESM5     Kind = "fesm5"
	KindBundle    Kind = "bundles"
	KindESM2015   Kind = "esm2015"
	KindESM5      Kind = "esm5"
)

// Placement records one file written to the output tree.
type Placement struct {
	Kind   Kind
	Input  string
	Output string
}

// DanglingReference is a format field of a written manifest whose target
// is missing from the output tree.
type DanglingReference struct {
	Manifest string
	Field    string
	Target   string
}

// Result accumulates everything a build did.
type Result struct {
	// Package is the root package name: the shortest name among the
	// manifests found in the sources.
	Package string
	Output  string

	Files       []Placement
	Amendments  []*manifest.Amendment
	EntryPoints []entrypoint.EntryPoint

	// SourceViolations lists source files that were taken from the bin or
	// genfiles tree. They're still written, but fail the build.
	SourceViolations []string

	DanglingReferences []DanglingReference
	StrictReferences   bool

	// Revision, Archive and Published are filled in by Execute.
	Revision  string
	Archive   string
	Published bool
}

// Counts returns the number of placed files per kind.
func (r *Result) Counts() map[Kind]int {
	counts := map[Kind]int{}
	for _, f := range r.Files {
		counts[f.Kind]++
	}
	return counts
}

// Failed tells if the build wrote everything but must not be considered
// successful.
func (r *Result) Failed() bool {
	return len(r.SourceViolations) > 0 || (r.StrictReferences && len(r.DanglingReferences) > 0)
}

func (r *Result) add(kind Kind, input, output string) {
	r.Files = append(r.Files, Placement{Kind: kind, Input: input, Output: output})
}
