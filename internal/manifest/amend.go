package manifest

import (
	"fmt"

	"github.com/akedrou/textdiff"

	"github.com/lhenriquegomescamilo/angular-1/internal/jsonpatch"
	"github.com/lhenriquegomescamilo/angular-1/internal/layout"
	"github.com/lhenriquegomescamilo/angular-1/internal/logging"
	"github.com/lhenriquegomescamilo/angular-1/internal/modules"
)

type Outcome int

const (
	// Amended means the format fields were (re)written.
	Amended Outcome = iota
	// MissingModule means there's no module entry for the package name.
	MissingModule
	// ExplicitFields means the manifest already declares format fields
	// and the module entry's paths were guessed, so they were kept.
	ExplicitFields
)

func (o Outcome) String() string {
	switch o {
	case Amended:
		return "amended"
	case MissingModule:
		return "missing_module"
	case ExplicitFields:
		return "explicit_fields"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Amendment records what happened to one manifest.
type Amendment struct {
	Path        string
	Package     string
	Outcome     Outcome
	Synthesized bool

	// Manifest is the resulting manifest and Content its serialization.
	Manifest *Manifest
	Content  []byte

	// Patch is the merge patch from the input manifest to the result.
	Patch []byte
}

// Changed tells if the manifest differs from its input.
func (a *Amendment) Changed() bool {
	return !jsonpatch.Empty(a.Patch)
}

// Amender rewrites the format fields of manifests so that they point at
// the files the package actually ships.
type Amender struct {
	layout  *layout.Layout
	modules *modules.Map
	log     *logging.Logger
}

func NewAmender(l *layout.Layout, m *modules.Map) *Amender {
	return &Amender{layout: l, modules: m, log: logging.NewNop()}
}

func (a *Amender) WithLogger(log *logging.Logger) *Amender {
	a.log = log
	return a
}

// Amend computes the published form of the manifest found at
// manifestPath, an input tree path. synthesized is set for manifests that
// don't exist in the input but are generated for secondary entry points.
// The given manifest is not modified.
func (a *Amender) Amend(manifestPath string, m *Manifest, synthesized bool) (*Amendment, error) {
	original, err := m.Marshal()
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}

	name := m.Name()
	res := &Amendment{
		Path:        manifestPath,
		Package:     name,
		Synthesized: synthesized,
		Manifest:    m.Clone(),
	}

	entry, ok := a.modules.Get(name)
	switch {
	case !ok:
		a.log.Warnf("No module metadata found for %q in %s. This is likely a module name misconfiguration in the upstream build.", name, manifestPath)
		res.Outcome = MissingModule
	case entry.GuessedPaths && !synthesized && m.HasFormatFields():
		a.log.Warnf("Package %q in %s declares format fields of its own and its module paths were guessed; leaving them as they are.", name, manifestPath)
		res.Outcome = ExplicitFields
	default:
		if err := a.setFormatFields(res.Manifest, manifestPath, entry); err != nil {
			return nil, err
		}
		res.Outcome = Amended
	}

	res.Content, err = res.Manifest.Marshal()
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}
	res.Patch, err = jsonpatch.Diff(original, res.Content)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", manifestPath, err)
	}

	if diff := textdiff.Unified("a/"+manifestPath, "b/"+manifestPath, string(original), string(res.Content)); diff != "" {
		a.log.Debugf("%s %s:\n%s", res.Outcome, manifestPath, diff)
	}
	return res, nil
}

func (a *Amender) setFormatFields(m *Manifest, manifestPath string, entry *modules.Entry) error {
	m.Set("main", layout.BundleName(entry.Name, "bundles"))
	fesm2015 := layout.BundleName(entry.Name, "fesm2015")
	m.Set("fesm2015", fesm2015)

	if entry.ESM2015Index != "" {
		ref, err := a.layout.RelativeReference(manifestPath, entry.ESM2015Index)
		if err != nil {
			return fmt.Errorf("manifest %s esm2015: %w", manifestPath, err)
		}
		m.Set("esm2015", ref)
	}
	if entry.Typings != "" {
		ref, err := a.layout.RelativeReference(manifestPath, entry.Typings)
		if err != nil {
			return fmt.Errorf("manifest %s typings: %w", manifestPath, err)
		}
		m.Set("typings", ref)
	}

	m.Set("module", fesm2015)
	m.Set("es2015", fesm2015)
	return nil
}
