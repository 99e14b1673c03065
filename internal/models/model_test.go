// Package models defines the core data structures shared by the parser, the
// graph builder, the inspector and the HTTP layer.
package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightTensor(t *testing.T) {
	t.Run("element count is the product of the shape", func(t *testing.T) {
		w := WeightTensor{Shape: []int{2, 3, 4}}

		n, ok := w.NumElements()

		assert.Equal(t, 3, w.Rank())
		assert.True(t, ok)
		assert.Equal(t, 24, n)
	})

	t.Run("scalar holds one element", func(t *testing.T) {
		w := WeightTensor{Shape: []int{}, Values: []float64{3}}

		n, ok := w.NumElements()

		assert.Equal(t, 0, w.Rank())
		assert.True(t, ok)
		assert.Equal(t, 1, n)
		assert.NoError(t, w.Validate())
	})

	t.Run("validate rejects short buffers", func(t *testing.T) {
		w := WeightTensor{Shape: []int{2, 2}, Values: []float64{1, 2, 3}}

		err := w.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "needs 4 values")
	})

	t.Run("validate rejects non-positive dimensions", func(t *testing.T) {
		w := WeightTensor{Shape: []int{2, 0}, Values: []float64{}}

		err := w.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "dimension 1")
	})

	t.Run("element count reports overflow instead of wrapping", func(t *testing.T) {
		w := WeightTensor{Shape: []int{4, 1 << 62}}

		_, ok := w.NumElements()

		assert.False(t, ok)
	})

	t.Run("element count rejects negative dimensions", func(t *testing.T) {
		_, ok := WeightTensor{Shape: []int{3, -1}}.NumElements()

		assert.False(t, ok)
	})

	t.Run("validate rejects shapes whose product overflows", func(t *testing.T) {
		for _, shape := range [][]int{
			{4, 1 << 62},
			{1 << 32, 1 << 32},
			{2, 2, 1 << 61, 2},
		} {
			w := WeightTensor{Shape: shape, Values: []float64{}}

			err := w.Validate()

			require.Error(t, err, "shape %v", shape)
			assert.Contains(t, err.Error(), "too many elements")
		}
	})
}

func TestParsedModel(t *testing.T) {
	model := &ParsedModel{
		Nodes: []GraphNode{{Name: "a"}, {Name: "b"}},
		Weights: map[string]WeightTensor{
			"w": {Shape: []int{2, 2}, Values: []float64{1, 2, 3, 4}},
			"b": {Shape: []int{2}, Values: []float64{0, 0}},
		},
	}

	t.Run("node by index", func(t *testing.T) {
		assert.Equal(t, "b", model.NodeByIndex(1).Name)
		assert.Nil(t, model.NodeByIndex(2))
		assert.Nil(t, model.NodeByIndex(-1))
	})

	t.Run("node by index points into the model", func(t *testing.T) {
		model.NodeByIndex(0).OpType = "Relu"
		assert.Equal(t, "Relu", model.Nodes[0].OpType)
	})

	t.Run("parameter count", func(t *testing.T) {
		assert.Equal(t, 6, model.ParameterCount())

		var empty *ParsedModel
		assert.Equal(t, 0, empty.ParameterCount())
	})

	t.Run("metadata travels as model_metadata", func(t *testing.T) {
		data, err := json.Marshal(ParsedModel{Metadata: map[string]any{"producer_name": "x"}})
		require.NoError(t, err)

		assert.Contains(t, string(data), `"model_metadata":{"producer_name":"x"}`)
	})

	t.Run("node unmarshal uses op_type", func(t *testing.T) {
		var node GraphNode
		err := json.Unmarshal([]byte(`{"name": "n", "op_type": "Conv", "attributes": {"group": 2}}`), &node)

		require.NoError(t, err)
		assert.Equal(t, "Conv", node.OpType)
		assert.Equal(t, float64(2), node.Attributes["group"])
	})
}
