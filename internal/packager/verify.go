package packager

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lhenriquegomescamilo/angular-1/internal/manifest"
	"github.com/lhenriquegomescamilo/angular-1/internal/metrics"
)

// verify resolves the format fields of every amended manifest against the
// output tree and records those pointing nowhere.
func (p *Packager) verify(res *Result) error {
	for _, a := range res.Amendments {
		if a.Outcome != manifest.Amended {
			continue
		}

		out, err := p.layout.Relocate(a.Path)
		if err != nil {
			return err
		}
		dir := filepath.Dir(out)

		for _, field := range manifest.FormatFields {
			value, ok := a.Manifest.Get(field)
			if !ok || value == "" {
				continue
			}

			target := filepath.Join(dir, filepath.FromSlash(value))
			if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
				p.log.Warnf("Field %q of %s refers to %s, which is not part of the package.", field, out, value)
				res.DanglingReferences = append(res.DanglingReferences, DanglingReference{
					Manifest: out,
					Field:    field,
					Target:   value,
				})
				metrics.DanglingReferences.Inc()
			} else if err != nil {
				return err
			}
		}
	}
	return nil
}
