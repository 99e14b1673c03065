package main

import (
	"github.com/spf13/cobra"
)

func newMetadataCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "metadata FILE",
		Short: "Print producer, version and description of a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(args[0])
			if err != nil {
				return err
			}

			return encode(cmd.OutOrStdout(), format, model.Metadata)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatYAML, "output format (json|yaml)")
	return cmd
}
