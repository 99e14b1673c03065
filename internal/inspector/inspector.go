// Package inspector resolves the learned tensors feeding a graph node and
// projects them into displayable matrices at a shared slice index.
package inspector

import (
	"log"
	"strings"

	"github.com/onnxscope/core/internal/models"
	"github.com/onnxscope/core/internal/selection"
	"github.com/onnxscope/core/internal/tensor"
)

const (
	KindConv  = "conv"
	KindFC    = "fc"
	KindOther = "other"
)

// Inspection is everything the weights panel shows for one node.
type Inspection struct {
	Node        string       `json:"node"`
	SliceIndex  int          `json:"slice_index"`
	MainTensors []TensorView `json:"main_tensors"`
	Bias        *BiasView    `json:"bias,omitempty"`
	WeightCount int          `json:"weight_count"`
}

// TensorView is a main tensor sliced at its own clamped index. Unavailable is
// set instead of Matrix when the tensor cannot be projected.
type TensorView struct {
	Name        string      `json:"name"`
	Shape       []int       `json:"shape"`
	DType       string      `json:"dtype"`
	NumValues   int         `json:"num_values"`
	Kind        string      `json:"kind"`
	OutDim      int         `json:"out_dim"`
	SliceIndex  int         `json:"slice_index"`
	Matrix      [][]float64 `json:"matrix,omitempty"`
	Unavailable string      `json:"unavailable,omitempty"`
}

type BiasView struct {
	Name        string    `json:"name"`
	Shape       []int     `json:"shape"`
	DType       string    `json:"dtype"`
	Vector      []float64 `json:"vector,omitempty"`
	Unavailable string    `json:"unavailable,omitempty"`
}

type namedTensor struct {
	name   string
	tensor models.WeightTensor
}

// Inspect builds the weights view for node at sliceIndex. nodeID is the
// node's unique graph id. Calculator errors never escape: each one becomes
// the Unavailable marker of its tensor.
func Inspect(model *models.ParsedModel, nodeID string, node *models.GraphNode, sliceIndex int) *Inspection {
	out := &Inspection{Node: nodeID, SliceIndex: sliceIndex, MainTensors: []TensorView{}}
	if node == nil {
		return out
	}

	main, bias := split(lookup(model, node))
	out.WeightCount = len(main)

	for _, nt := range main {
		out.MainTensors = append(out.MainTensors, project(nt, sliceIndex))
	}

	if bias != nil {
		out.WeightCount++
		out.Bias = projectBias(*bias)
	}

	return out
}

// SliceBound returns the output dimension of the node's first projectable
// main tensor, or 0 when it has none.
func SliceBound(model *models.ParsedModel, node *models.GraphNode) int {
	if node == nil {
		return 0
	}

	main, _ := split(lookup(model, node))
	for _, nt := range main {
		if d, err := tensor.OutDim(nt.tensor); err == nil {
			return d
		}
	}
	return 0
}

// lookup returns the node inputs that name a weight, in input order. Inputs
// without a weight are activations and are skipped.
func lookup(model *models.ParsedModel, node *models.GraphNode) []namedTensor {
	if model == nil {
		return nil
	}

	var found []namedTensor
	for _, input := range node.Inputs {
		if w, ok := model.Weights[input]; ok {
			found = append(found, namedTensor{name: input, tensor: w})
		}
	}
	return found
}

// split picks the first tensor whose name mentions "bias" as the bias.
func split(all []namedTensor) ([]namedTensor, *namedTensor) {
	for i := range all {
		if strings.Contains(strings.ToLower(all[i].name), "bias") {
			bias := all[i]
			main := make([]namedTensor, 0, len(all)-1)
			main = append(main, all[:i]...)
			main = append(main, all[i+1:]...)
			return main, &bias
		}
	}
	return all, nil
}

func project(nt namedTensor, sliceIndex int) TensorView {
	w := nt.tensor
	view := TensorView{
		Name:      nt.name,
		Shape:     w.Shape,
		DType:     w.DType,
		NumValues: len(w.Values),
		Kind:      kindOf(w),
	}

	outDim, err := tensor.OutDim(w)
	if err != nil {
		view.Unavailable = err.Error()
		return view
	}

	view.OutDim = outDim
	view.SliceIndex = selection.Clamp(sliceIndex, outDim)

	switch w.Rank() {
	case tensor.RankConv:
		view.Matrix, err = tensor.SliceConv(w, view.SliceIndex)
	case tensor.RankFC:
		var row []float64
		row, err = tensor.SliceFC(w, view.SliceIndex)
		if err == nil {
			view.Matrix = [][]float64{row}
		}
	}

	if err != nil {
		log.Printf("inspector: tensor %s: %v", nt.name, err)
		view.Matrix = nil
		view.Unavailable = err.Error()
	}

	return view
}

func projectBias(nt namedTensor) *BiasView {
	view := &BiasView{
		Name:  nt.name,
		Shape: nt.tensor.Shape,
		DType: nt.tensor.DType,
	}

	vector, err := tensor.BiasVector(nt.tensor)
	if err != nil {
		view.Unavailable = err.Error()
		return view
	}

	view.Vector = vector
	return view
}

func kindOf(w models.WeightTensor) string {
	switch w.Rank() {
	case tensor.RankConv:
		return KindConv
	case tensor.RankFC:
		return KindFC
	default:
		return KindOther
	}
}
