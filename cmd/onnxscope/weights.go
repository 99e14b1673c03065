package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/onnxscope/core/internal/graph"
	"github.com/onnxscope/core/internal/inspector"
	"github.com/onnxscope/core/internal/models"
	"github.com/onnxscope/core/internal/selection"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	panelStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

func newWeightsCmd() *cobra.Command {
	var slice int

	cmd := &cobra.Command{
		Use:   "weights FILE NODE_ID",
		Short: "Print the weight slices of one node",
		Long: `Print the weight slices of one node.

NODE_ID is the unique id shown by "onnxscope graph". Convolution
kernels are printed as an in_channels x (kh*kw) matrix for the chosen
output channel, fully connected weights as one row. --slice is clamped
to the output dimension of each tensor.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := loadModel(args[0])
			if err != nil {
				return err
			}

			node, err := findNode(model, args[1])
			if err != nil {
				return err
			}

			index := selection.Clamp(slice, inspector.SliceBound(model, node))
			renderInspection(cmd.OutOrStdout(), inspector.Inspect(model, args[1], node, index))
			return nil
		},
	}

	cmd.Flags().IntVarP(&slice, "slice", "s", 0, "output channel / row to show")
	return cmd
}

func findNode(model *models.ParsedModel, id string) (*models.GraphNode, error) {
	rendered, err := graph.Build(model, graph.DefaultOptions())
	if err != nil {
		return nil, err
	}

	for _, el := range rendered.Nodes {
		if el.ID == id {
			return el.Source, nil
		}
	}
	return nil, fmt.Errorf("node %q not found", id)
}

func renderInspection(w io.Writer, ins *inspector.Inspection) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s  (%d weights)", ins.Node, ins.WeightCount)))

	if ins.WeightCount == 0 {
		fmt.Fprintln(w, dimStyle.Render("no weights"))
		return
	}

	for _, tv := range ins.MainTensors {
		var body string
		switch {
		case tv.Unavailable != "":
			body = dimStyle.Render("unavailable: " + tv.Unavailable)
		case tv.Matrix == nil:
			body = dimStyle.Render("not sliceable")
		default:
			body = renderMatrix(tv.Matrix)
		}

		header := fmt.Sprintf("%s %v %s", tv.Name, tv.Shape, tv.DType)
		if tv.OutDim > 0 {
			header += fmt.Sprintf("  slice %d/%d", tv.SliceIndex, tv.OutDim-1)
		}
		fmt.Fprintln(w, panelStyle.Render(titleStyle.Render(header)+"\n"+body))
	}

	if b := ins.Bias; b != nil {
		body := dimStyle.Render("unavailable: " + b.Unavailable)
		if b.Unavailable == "" {
			body = renderMatrix([][]float64{b.Vector})
		}
		header := fmt.Sprintf("%s %v %s", b.Name, b.Shape, b.DType)
		fmt.Fprintln(w, panelStyle.Render(titleStyle.Render(header)+"\n"+body))
	}
}

func renderMatrix(rows [][]float64) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, v := range row {
			style := positiveStyle
			if v < 0 {
				style = negativeStyle
			}
			cells[j] = style.Render(fmt.Sprintf("%9.4f", v))
		}
		lines[i] = strings.Join(cells, " ")
	}
	return strings.Join(lines, "\n")
}
