package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/onnxscope/core/internal/graph"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newGraphCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "graph FILE",
		Short: "Print the renderable graph of a model",
		Long: `Print the renderable graph of a model.

Every node gets a unique id; repeated names are suffixed _2, _3, ...
Edges that reference a repeated name bind to its first occurrence and
the name is listed under "ambiguous".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(args[0])
			if err != nil {
				return err
			}

			rendered, err := graph.Build(model, graph.DefaultOptions())
			if err != nil {
				return err
			}

			return encode(cmd.OutOrStdout(), format, rendered)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json|yaml)")
	return cmd
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (use json or yaml)", format)
	}
}
