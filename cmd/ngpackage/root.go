package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/lhenriquegomescamilo/angular-1/internal/logging"
)

type globalOptions struct {
	logLevel  logging.Level
	logFormat string
}

func (o *globalOptions) logger(w io.Writer) (*logging.Logger, error) {
	format := logging.Format(o.logFormat)
	switch format {
	case logging.FormatText, logging.FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q, expected %q or %q", o.logFormat, logging.FormatText, logging.FormatJSON)
	}
	return logging.NewLogger(logging.Config{Level: o.logLevel, Format: format, Output: w}), nil
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{logLevel: logging.Info, logFormat: string(logging.FormatText)}

	cmd := &cobra.Command{
		Use:   "ngpackage",
		Short: "Assemble publishable npm packages from build outputs",
		Long: `ngpackage lays out the outputs of an upstream build as an npm package:
bundles, flat and per-module ES files, type definitions and sources are
copied into place, package.json files are rewritten to point at them, and
secondary entry points get the files they need to be importable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.Var(enumflag.New(&opts.logLevel, "level", logging.LevelIds, enumflag.EnumCaseInsensitive),
		"log-level", "log level: error, warn, info or debug")
	flags.StringVar(&opts.logFormat, "log-format", opts.logFormat, "log format: text or json")

	cmd.AddCommand(newBuildCommand(opts), newSchemaCommand())
	return cmd
}
