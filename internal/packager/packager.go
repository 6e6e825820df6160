// Package packager assembles a publishable package directory out of the
// artifacts an upstream build produced. It runs the stages in a fixed
// order: README, sources and manifests, data files, typings, bundles,
// per-module files, entry point synthesis and reference verification.
package packager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/lhenriquegomescamilo/angular-1/internal/artifact"
	"github.com/lhenriquegomescamilo/angular-1/internal/config"
	"github.com/lhenriquegomescamilo/angular-1/internal/entrypoint"
	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
	"github.com/lhenriquegomescamilo/angular-1/internal/layout"
	"github.com/lhenriquegomescamilo/angular-1/internal/logging"
	"github.com/lhenriquegomescamilo/angular-1/internal/manifest"
	"github.com/lhenriquegomescamilo/angular-1/internal/metrics"
	"github.com/lhenriquegomescamilo/angular-1/internal/modules"
	"github.com/lhenriquegomescamilo/angular-1/internal/progress"
	"github.com/lhenriquegomescamilo/angular-1/internal/s3"
)

const manifestName = "package.json"

// amdModuleName matches the module name directives the compiler leaves in
// type definitions. Consumers resolve typings by path, so they're dropped.
var amdModuleName = regexp.MustCompile(`(?m)^/// <amd-module name=.*/>[\r\n]+`)

// Packager builds one package. It is not safe for concurrent use.
type Packager struct {
	pkg      *config.Package
	log      *logging.Logger
	bar      *progress.Bar
	storage  s3.ObjectStorage
	pack     string
	revision string
	status   Status

	layout  *layout.Layout
	modules *modules.Map
	filter  *ngfs.Filter
	amender *manifest.Amender
	license string
}

func New(pkg *config.Package) *Packager {
	return &Packager{pkg: pkg, log: logging.NewNop()}
}

// WithLogger sets the logger. Events are annotated with the output
// directory.
func (p *Packager) WithLogger(log *logging.Logger) *Packager {
	p.log = log.With("output", p.pkg.Output)
	return p
}

func (p *Packager) WithProgress(bar *progress.Bar) *Packager {
	p.bar = bar
	return p
}

// WithStorage makes Execute publish the packed package.
func (p *Packager) WithStorage(storage s3.ObjectStorage) *Packager {
	p.storage = storage
	return p
}

// WithPack makes Execute write the packed package to path.
func (p *Packager) WithPack(path string) *Packager {
	p.pack = path
	return p
}

// WithRevision sets the revision expression recorded with published
// packages. It takes precedence over the configured one.
func (p *Packager) WithRevision(revision string) *Packager {
	p.revision = revision
	return p
}

// Build writes the package to its output directory. Problems that don't
// stop the build are recorded in the result; see Result.Failed.
func (p *Packager) Build(ctx context.Context) (*Result, error) {
	if err := p.init(); err != nil {
		return nil, err
	}

	res := &Result{Output: p.pkg.Output, StrictReferences: p.pkg.StrictReferences}
	arts := p.pkg.Artifacts
	if p.pkg.Readme != "" {
		p.bar.AddMax(1)
	}
	p.bar.AddMax(arts.Len())

	if nonEmpty, err := ngfs.FSContainsFiles(os.DirFS(p.pkg.Output)); err != nil {
		return nil, err
	} else if nonEmpty {
		p.log.Infof("Output directory %s is not empty, existing files are overwritten.", p.pkg.Output)
	}

	if p.pkg.Readme != "" {
		out := filepath.Join(p.pkg.Output, "README.md")
		if err := ngfs.CopyFile(p.pkg.Readme, out); err != nil {
			return nil, fmt.Errorf("readme: %w", err)
		}
		p.placed(res, KindReadme, p.pkg.Readme, out)
	}

	existing := map[string]bool{}
	if err := p.sources(ctx, res, existing); err != nil {
		return nil, err
	}

	for _, file := range arts.Data {
		if err := p.copyRelocated(ctx, res, KindData, file); err != nil {
			return nil, err
		}
	}

	for _, file := range arts.TypeDefinitions {
		if err := p.typings(ctx, res, KindTypings, file, ""); err != nil {
			return nil, err
		}
	}

	// Combined type bundles come last, they replace the typings of the
	// same name.
	if len(arts.DtsBundles) > 0 && p.pkg.DtsBundleSuffix == "" {
		p.log.Warnf("No type bundle suffix configured, copying %d type bundles as they are.", len(arts.DtsBundles))
	}
	for _, file := range arts.DtsBundles {
		if err := p.typings(ctx, res, KindDtsBundle, file, p.pkg.DtsBundleSuffix); err != nil {
			return nil, err
		}
	}

	for _, set := range []struct {
		kind  Kind
		files []string
	}{
		{KindFESM2015, arts.FESM2015},
		{KindFESM5, arts.FESM5},
		{KindBundle, arts.Bundles},
	} {
		dir := filepath.Join(p.pkg.Output, string(set.kind))
		for _, file := range set.files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out, err := artifact.Place(file, dir, "")
			if err != nil {
				return nil, fmt.Errorf("%s: %w", set.kind, err)
			}
			p.placed(res, set.kind, file, out)
		}
	}

	for _, set := range []struct {
		kind   Kind
		marker string
		files  []string
	}{
		{KindESM2015, p.pkg.Markers.ESM2015OrDefault(), arts.ESM2015},
		{KindESM5, p.pkg.Markers.ESM5OrDefault(), arts.ESM5},
	} {
		for _, file := range set.files {
			if err := p.perModule(ctx, res, set.kind, set.marker, file); err != nil {
				return nil, err
			}
		}
	}

	eps, err := entrypoint.New(p.layout, p.modules, p.amender).
		WithLicense(p.license).
		WithLogger(p.log).
		Synthesize(res.Package, existing)
	if err != nil {
		return nil, err
	}
	for _, ep := range eps {
		if ep.Manifest != nil {
			res.Amendments = append(res.Amendments, ep.Manifest)
			metrics.Manifests.WithLabelValues(ep.Manifest.Outcome.String()).Inc()
		}
		metrics.EntryPointsSynthesized.Inc()
	}
	res.EntryPoints = eps

	if err := p.verify(res); err != nil {
		return nil, err
	}

	p.bar.Finish()
	return res, nil
}

func (p *Packager) init() error {
	if err := p.pkg.Validate(); err != nil {
		return err
	}

	roots := p.pkg.Roots
	p.layout = layout.New(p.pkg.Output, layout.Roots{Source: roots.Source, Bin: roots.Bin, Genfiles: roots.Genfiles})

	raw, err := p.pkg.ModuleMapping()
	if err != nil {
		return err
	}
	if p.modules, err = modules.Decode(raw, p.layout); err != nil {
		return err
	}
	if p.filter, err = p.pkg.Filter(); err != nil {
		return err
	}

	p.license = ""
	if p.pkg.License != "" {
		bs, err := os.ReadFile(p.pkg.License)
		if err != nil {
			return fmt.Errorf("license: %w", err)
		}
		p.license = string(bs)
	}

	p.amender = manifest.NewAmender(p.layout, p.modules).WithLogger(p.log)
	return nil
}

// sources copies the source files. Manifests among them are amended on the
// way, and their names are recorded in existing.
func (p *Packager) sources(ctx context.Context, res *Result, existing map[string]bool) error {
	for _, file := range p.pkg.Artifacts.Srcs {
		if err := ctx.Err(); err != nil {
			return err
		}

		loc, err := p.layout.Classify(file)
		if err != nil {
			return err
		}
		if loc.Tree != layout.Source {
			p.log.Errorf("The package output should only contain source files, but %s is from the %s tree.", file, loc.Tree)
			res.SourceViolations = append(res.SourceViolations, file)
			metrics.SourceViolations.Inc()
		}
		if !p.filter.Match(loc.Remainder) {
			p.log.Debugf("Skipping excluded source %s.", file)
			p.bar.Add(1)
			continue
		}

		out, err := p.layout.Relocate(file)
		if err != nil {
			return err
		}

		if filepath.Base(file) != manifestName {
			if err := ngfs.CopyFile(file, out); err != nil {
				return fmt.Errorf("source: %w", err)
			}
			p.placed(res, KindSource, file, out)
			continue
		}

		bs, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		m, err := manifest.Parse(bs)
		if err != nil {
			return fmt.Errorf("manifest %s: %w", file, err)
		}

		amendment, err := p.amender.Amend(file, m, false)
		if err != nil {
			return err
		}
		if err := ngfs.WriteFile(out, amendment.Content, 0o644); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
		res.Amendments = append(res.Amendments, amendment)
		metrics.Manifests.WithLabelValues(amendment.Outcome.String()).Inc()
		p.placed(res, KindManifest, file, out)

		// NB(sr): The shortest name is taken as the root package. Nested
		// packages always have longer names than the package they're in.
		if name := m.Name(); name != "" {
			existing[name] = true
			if res.Package == "" || len(name) < len(res.Package) {
				res.Package = name
			}
		}
	}
	return nil
}

func (p *Packager) copyRelocated(ctx context.Context, res *Result, kind Kind, file string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	loc, err := p.layout.Classify(file)
	if err != nil {
		return err
	}
	if !p.filter.Match(loc.Remainder) {
		p.log.Debugf("Skipping excluded %s file %s.", kind, file)
		p.bar.Add(1)
		return nil
	}

	out, err := p.layout.Relocate(file)
	if err != nil {
		return err
	}
	if err := ngfs.CopyFile(file, out); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	p.placed(res, kind, file, out)
	return nil
}

// typings copies a type definition file. If suffix is set and the file
// name ends in it, the suffix is replaced by ".d.ts".
func (p *Packager) typings(ctx context.Context, res *Result, kind Kind, file, suffix string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := p.layout.Relocate(file)
	if err != nil {
		return err
	}
	if suffix != "" {
		if trimmed, ok := strings.CutSuffix(out, suffix); ok {
			out = trimmed + ".d.ts"
		}
	}

	bs, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	if err := ngfs.WriteFile(out, amdModuleName.ReplaceAll(bs, nil), 0o644); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	p.placed(res, kind, file, out)
	return nil
}

func (p *Packager) perModule(ctx context.Context, res *Result, kind Kind, marker, file string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir, ok := p.layout.RelocateFlatModule(file, marker, string(kind))
	if !ok {
		p.log.Warnf("Skipping %s file %s: it is not below a %q directory inside the source root.", kind, file, marker)
		p.bar.Add(1)
		return nil
	}

	out, err := artifact.Place(file, dir, "")
	if err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	p.placed(res, kind, file, out)
	return nil
}

func (p *Packager) placed(res *Result, kind Kind, input, output string) {
	res.add(kind, input, output)
	metrics.FilesPlaced.WithLabelValues(string(kind)).Inc()
	p.bar.Add(1)
}
