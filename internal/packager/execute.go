package packager

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/lhenriquegomescamilo/angular-1/internal/archive"
	"github.com/lhenriquegomescamilo/angular-1/internal/config"
	ngfs "github.com/lhenriquegomescamilo/angular-1/internal/fs"
	"github.com/lhenriquegomescamilo/angular-1/internal/metrics"
	"github.com/lhenriquegomescamilo/angular-1/internal/revision"
)

type BuildState int

const (
	BuildStateSuccess BuildState = iota
	BuildStateBuildFailed
	BuildStateSourceViolation
	BuildStateDanglingReferences
	BuildStateRevisionFailed
	BuildStatePackFailed
	BuildStatePushFailed
)

func (s BuildState) String() string {
	switch s {
	case BuildStateSuccess:
		return "success"
	case BuildStateBuildFailed:
		return "build_failed"
	case BuildStateSourceViolation:
		return "source_violation"
	case BuildStateDanglingReferences:
		return "dangling_references"
	case BuildStateRevisionFailed:
		return "revision_failed"
	case BuildStatePackFailed:
		return "pack_failed"
	case BuildStatePushFailed:
		return "push_failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Status struct {
	State   BuildState
	Message string
}

// BuildError is returned by Execute for every state but success.
type BuildError struct {
	State BuildState
	Err   error
}

func (err *BuildError) Error() string {
	return fmt.Sprintf("%s: %v", err.State, err.Err)
}

func (err *BuildError) Unwrap() error {
	return err.Err
}

var (
	errSourceViolations   = errors.New("source files must not come from the bin or genfiles tree")
	errDanglingReferences = errors.New("manifests refer to files missing from the package")
)

func (p *Packager) Status() Status {
	return p.status
}

// Execute runs a full package build: the output tree is assembled, then
// packed and published if requested. The result is returned whenever the
// build itself got to the end, also alongside an error.
func (p *Packager) Execute(ctx context.Context) (*Result, error) {
	startTime := time.Now() // Used for timing metric
	metrics.PackageBuildStarted(p.pkg.Output, startTime)

	res, err := p.Build(ctx)
	if err != nil {
		p.log.Warnf("failed to build package in %s: %v", p.pkg.Output, err)
		return nil, p.report(BuildStateBuildFailed, startTime, err)
	}

	switch {
	case len(res.SourceViolations) > 0:
		return res, p.report(BuildStateSourceViolation, startTime,
			fmt.Errorf("%w: %d found", errSourceViolations, len(res.SourceViolations)))
	case res.Failed():
		return res, p.report(BuildStateDanglingReferences, startTime,
			fmt.Errorf("%w: %d found", errDanglingReferences, len(res.DanglingReferences)))
	}

	if p.pack == "" && p.storage == nil {
		p.log.Debugf("Package %q built.", res.Package)
		return res, p.report(BuildStateSuccess, startTime, nil)
	}

	buffer := bytes.NewBuffer(nil)
	n, err := archive.Pack(p.pkg.Output, buffer)
	if err != nil {
		p.log.Warnf("failed to pack package %q: %v", res.Package, err)
		return res, p.report(BuildStatePackFailed, startTime, err)
	}
	p.log.Debugf("Packed %d files of package %q (%d bytes).", n, res.Package, buffer.Len())

	if p.pack != "" {
		if err := ngfs.WriteFile(p.pack, buffer.Bytes(), 0o644); err != nil {
			p.log.Warnf("failed to write package %q to %s: %v", res.Package, p.pack, err)
			return res, p.report(BuildStatePackFailed, startTime, err)
		}
		res.Archive = p.pack
	}

	if p.storage != nil {
		rev, err := p.resolveRevision(ctx, res)
		if err != nil {
			p.log.Warnf("failed to resolve revision of package %q: %v", res.Package, err)
			return res, p.report(BuildStateRevisionFailed, startTime, err)
		}
		res.Revision = rev

		if err := p.storage.Upload(ctx, bytes.NewReader(buffer.Bytes()), rev); err != nil {
			p.log.Warnf("failed to upload package %q: %v", res.Package, err)
			return res, p.report(BuildStatePushFailed, startTime, err)
		}
		res.Published = true

		p.log.Debugf("Package %q built and uploaded.", res.Package)
		return res, p.report(BuildStateSuccess, startTime, nil)
	}

	p.log.Debugf("Package %q built and packed.", res.Package)
	return res, p.report(BuildStateSuccess, startTime, nil)
}

// resolveRevision evaluates the revision expression with the package name
// and output as input. The git HEAD is only looked up when the expression
// refers to it, or when there is no expression: then the HEAD commit is
// the revision.
func (p *Packager) resolveRevision(ctx context.Context, res *Result) (string, error) {
	rev := config.ParseRevision(cmp.Or(p.revision, p.pkg.Revision))

	input := map[string]any{"name": res.Package, "output": res.Output}
	if rev.String() == "" || slices.ContainsFunc(rev.Inputs(), revision.IsInput) {
		info, err := revision.Lookup(cmp.Or(p.pkg.Roots.Source, "."))
		if err != nil {
			return "", err
		}
		if rev.String() == "" {
			return info.Commit, nil
		}
		maps.Copy(input, info.Input())
	}

	return rev.Resolve(ctx, input)
}

func (p *Packager) report(state BuildState, startTime time.Time, err error) error {
	p.status = Status{State: state}
	if err != nil {
		p.status.Message = err.Error()
	}

	if state == BuildStateSuccess {
		metrics.PackageBuildSucceeded(p.pkg.Output, startTime)
		return nil
	}

	metrics.PackageBuildFailed(p.pkg.Output, state.String())
	return &BuildError{State: state, Err: err}
}
