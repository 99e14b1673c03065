// Package models defines the core data structures shared by the parser, the
// graph builder, the inspector and the HTTP layer.
package models

import (
	"fmt"
	"math"
)

// ParsedModel is the structured form of a neural-network model as produced by
// the upstream decoder. A session owns exactly one and replaces it wholesale.
type ParsedModel struct {
	Nodes    []GraphNode             `json:"nodes"`
	Edges    []GraphEdge             `json:"edges"`
	Weights  map[string]WeightTensor `json:"weights"`
	Metadata map[string]any          `json:"model_metadata"`
}

// GraphNode is one operation of the source graph. Name is the logical
// identifier from the source model and is not guaranteed to be unique.
type GraphNode struct {
	Name       string         `json:"name"`
	OpType     string         `json:"op_type"`
	Inputs     []string       `json:"inputs"`
	Outputs    []string       `json:"outputs"`
	Attributes map[string]any `json:"attributes"`
}

// GraphEdge connects two logical node names through a named tensor.
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// WeightTensor is a learned tensor stored as a flat row-major buffer.
type WeightTensor struct {
	Shape  []int     `json:"shape"`
	DType  string    `json:"dtype"`
	Values []float64 `json:"values"`
}

// Rank returns the number of dimensions.
func (w WeightTensor) Rank() int {
	return len(w.Shape)
}

// NumElements returns the product of the shape. A rank-0 tensor holds one
// element. ok is false when a dimension is negative or the product does not
// fit in an int.
func (w WeightTensor) NumElements() (n int, ok bool) {
	n = 1
	for _, d := range w.Shape {
		if d < 0 || (d > 0 && n > math.MaxInt/d) {
			return 0, false
		}
		n *= d
	}
	return n, true
}

// Validate checks that every dimension is positive and that the value buffer
// holds exactly NumElements values.
func (w WeightTensor) Validate() error {
	for i, d := range w.Shape {
		if d <= 0 {
			return fmt.Errorf("dimension %d is %d, want > 0", i, d)
		}
	}

	want, ok := w.NumElements()
	if !ok {
		return fmt.Errorf("shape %v has too many elements", w.Shape)
	}
	if len(w.Values) != want {
		return fmt.Errorf("shape %v needs %d values, got %d", w.Shape, want, len(w.Values))
	}

	return nil
}

// NodeByIndex returns a pointer into Nodes, or nil when i is out of range.
func (m *ParsedModel) NodeByIndex(i int) *GraphNode {
	if m == nil || i < 0 || i >= len(m.Nodes) {
		return nil
	}
	return &m.Nodes[i]
}

// ParameterCount sums the element counts of all weights.
func (m *ParsedModel) ParameterCount() int {
	if m == nil {
		return 0
	}

	total := 0
	for _, w := range m.Weights {
		total += len(w.Values)
	}
	return total
}
