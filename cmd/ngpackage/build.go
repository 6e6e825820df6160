package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lhenriquegomescamilo/angular-1/internal/config"
	"github.com/lhenriquegomescamilo/angular-1/internal/metrics"
	"github.com/lhenriquegomescamilo/angular-1/internal/packager"
	"github.com/lhenriquegomescamilo/angular-1/internal/progress"
	"github.com/lhenriquegomescamilo/angular-1/internal/report"
	"github.com/lhenriquegomescamilo/angular-1/internal/s3"
)

type buildOptions struct {
	*globalOptions

	configFiles []string
	pack        string
	publish     bool
	revision    string
	summary     bool
	metricsFile string
	progress    bool
}

func newBuildCommand(global *globalOptions) *cobra.Command {
	opts := &buildOptions{globalOptions: global}

	cmd := &cobra.Command{
		Use:   "build [PARAMS_FILE]",
		Short: "Assemble a package",
		Long: `Assemble a package into its output directory.

The package is described either by a parameter file, one value per line
as written by the upstream build rule, or by one or more configuration
files given with --config. Configuration files and directories of them
are merged; conflicting values are an error.

Examples:
  ngpackage build bazel-out/bin/packages/common/npm_package.params
  ngpackage build --config ngpackage.yaml --pack common.tgz
  ngpackage build --config ngpackage.yaml --config publish.yaml --publish`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.configFiles, "config", "c", nil, "configuration file or directory (repeatable)")
	flags.StringVar(&opts.pack, "pack", "", "write the package as npm tarball to `FILE`")
	flags.BoolVar(&opts.publish, "publish", false, "upload the packed package to the configured object storage")
	flags.StringVar(&opts.revision, "revision", "", "revision recorded with the published package, overrides the configured one")
	flags.BoolVar(&opts.summary, "summary", false, "print a summary of the build")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to `FILE` when done")
	flags.BoolVar(&opts.progress, "progress", false, "show a progress bar")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, opts *buildOptions) error {
	ctx := cmd.Context()

	log, err := opts.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	pkg, err := loadPackage(args, opts.configFiles)
	if err != nil {
		return err
	}

	p := packager.New(pkg).
		WithLogger(log).
		WithPack(opts.pack).
		WithRevision(opts.revision)

	if opts.progress {
		p.WithProgress(progress.New(cmd.ErrOrStderr(), "Packaging "+pkg.Output))
	}

	if opts.publish {
		if pkg.ObjectStorage == nil {
			return errors.New("--publish requires object_storage to be configured")
		}
		storage, err := s3.New(ctx, *pkg.ObjectStorage)
		if err != nil {
			return err
		}
		p.WithStorage(storage)
	}

	res, execErr := p.Execute(ctx)

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			log.Warnf("failed to write metrics to %s: %v", opts.metricsFile, err)
		}
	}

	if res != nil && opts.summary {
		if err := report.Write(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	}

	if execErr != nil {
		return &exitError{code: 1, err: execErr}
	}
	return nil
}

func loadPackage(args, configFiles []string) (*config.Package, error) {
	switch {
	case len(args) == 1 && len(configFiles) > 0:
		return nil, errors.New("either a parameter file or --config can be given, not both")
	case len(args) == 1:
		return config.ParseParamsFile(args[0])
	case len(configFiles) > 0:
		root, err := config.Load(configFiles)
		if err != nil {
			return nil, err
		}
		if root.Package == nil {
			return nil, errors.New("configuration has no package section")
		}
		return root.Package, nil
	}
	return nil, errors.New("a parameter file or --config is required")
}
