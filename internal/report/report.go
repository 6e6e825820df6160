// Package report renders the outcome of a package build for humans.
package report

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/lhenriquegomescamilo/angular-1/internal/packager"
)

// Write renders a summary of res to w: files placed by kind, the manifests
// written and the problems found.
func Write(w io.Writer, res *packager.Result) error {
	name := res.Package
	if name == "" {
		name = "(no root package)"
	}
	if _, err := fmt.Fprintf(w, "Package %s assembled in %s\n", name, res.Output); err != nil {
		return err
	}

	counts := res.Counts()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	slices.Sort(kinds)

	files := tablewriter.NewWriter(w)
	files.Header("Kind", "Files")
	for _, k := range kinds {
		if err := files.Append([]string{k, strconv.Itoa(counts[packager.Kind(k)])}); err != nil {
			return err
		}
	}
	if err := files.Render(); err != nil {
		return err
	}

	if len(res.Amendments) > 0 {
		manifests := tablewriter.NewWriter(w)
		manifests.Header("Package", "Manifest", "Outcome", "Synthesized")
		for _, a := range res.Amendments {
			if err := manifests.Append([]string{a.Package, a.Path, a.Outcome.String(), strconv.FormatBool(a.Synthesized)}); err != nil {
				return err
			}
		}
		if err := manifests.Render(); err != nil {
			return err
		}
	}

	if len(res.SourceViolations) > 0 || len(res.DanglingReferences) > 0 {
		problems := tablewriter.NewWriter(w)
		problems.Header("Problem", "File", "Detail")
		for _, v := range res.SourceViolations {
			if err := problems.Append([]string{"source from build output", v, ""}); err != nil {
				return err
			}
		}
		for _, d := range res.DanglingReferences {
			if err := problems.Append([]string{"dangling reference", d.Manifest, d.Field + " -> " + d.Target}); err != nil {
				return err
			}
		}
		if err := problems.Render(); err != nil {
			return err
		}
	}

	if res.Archive != "" {
		if _, err := fmt.Fprintf(w, "Packed to %s\n", res.Archive); err != nil {
			return err
		}
	}
	if res.Published {
		if _, err := fmt.Fprintf(w, "Published with revision %q\n", res.Revision); err != nil {
			return err
		}
	}
	return nil
}
