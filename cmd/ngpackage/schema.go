package main

import (
	"github.com/spf13/cobra"

	"github.com/lhenriquegomescamilo/angular-1/internal/config"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bs, err := config.ReflectSchema()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(bs, '\n'))
			return err
		},
	}
}
