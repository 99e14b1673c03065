// Package main is the onnxscope command line tool. It prints the graph,
// metadata and weight slices of an ONNX model without starting the server.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/onnxscope/core/internal/models"
	"github.com/onnxscope/core/internal/parser"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "onnxscope",
		Short: "Inspect ONNX models from the terminal",
		Long: `Inspect ONNX models from the terminal.

FILE may be an .onnx model or a .json payload as returned by the
/parse-onnx endpoint.

Examples:
  onnxscope graph model.onnx
  onnxscope graph model.onnx --format yaml
  onnxscope metadata model.onnx
  onnxscope weights model.onnx conv1 --slice 3`,
		SilenceUsage: true,
	}

	root.AddCommand(newGraphCmd(), newMetadataCmd(), newWeightsCmd())
	return root
}

// loadModel reads FILE as JSON when it ends in .json and as ONNX otherwise.
func loadModel(path string) (*models.ParsedModel, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the user
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		return parser.ParseModel(data)
	}
	return parser.ParseONNXFile(path)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
