package inspector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnxscope/core/internal/models"
)

func weight(shape ...int) models.WeightTensor {
	w := models.WeightTensor{Shape: shape, DType: "float32"}
	n, _ := w.NumElements()
	w.Values = make([]float64, n)
	for i := range w.Values {
		w.Values[i] = float64(i)
	}
	return w
}

func convModel() *models.ParsedModel {
	return &models.ParsedModel{
		Nodes: []models.GraphNode{
			{Name: "conv1", OpType: "Conv", Inputs: []string{"input", "conv1.weight", "conv1.bias"}, Outputs: []string{"c1"}},
			{Name: "relu", OpType: "Relu", Inputs: []string{"c1"}, Outputs: []string{"r1"}},
			{Name: "fc", OpType: "Gemm", Inputs: []string{"r1", "fc.weight", "fc.Bias"}, Outputs: []string{"out"}},
		},
		Weights: map[string]models.WeightTensor{
			"conv1.weight": weight(2, 3, 2, 2),
			"conv1.bias":   weight(2),
			"fc.weight":    weight(4, 3),
			"fc.Bias":      weight(4),
		},
	}
}

func TestInspect(t *testing.T) {
	t.Run("conv node yields main tensor and bias", func(t *testing.T) {
		model := convModel()

		got := Inspect(model, model.Nodes[0].Name, &model.Nodes[0], 1)

		assert.Equal(t, "conv1", got.Node)
		assert.Equal(t, 2, got.WeightCount)
		require.Len(t, got.MainTensors, 1)

		view := got.MainTensors[0]
		assert.Equal(t, "conv1.weight", view.Name)
		assert.Equal(t, KindConv, view.Kind)
		assert.Equal(t, 2, view.OutDim)
		assert.Equal(t, 1, view.SliceIndex)
		assert.Equal(t, 24, view.NumValues)
		assert.Equal(t, [][]float64{
			{12, 13, 14, 15},
			{16, 17, 18, 19},
			{20, 21, 22, 23},
		}, view.Matrix)
		assert.Empty(t, view.Unavailable)

		require.NotNil(t, got.Bias)
		assert.Equal(t, "conv1.bias", got.Bias.Name)
		assert.Equal(t, []float64{0, 1}, got.Bias.Vector)
	})

	t.Run("bias match is case insensitive", func(t *testing.T) {
		model := convModel()

		got := Inspect(model, model.Nodes[2].Name, &model.Nodes[2], 0)

		require.NotNil(t, got.Bias)
		assert.Equal(t, "fc.Bias", got.Bias.Name)
		require.Len(t, got.MainTensors, 1)
		assert.Equal(t, KindFC, got.MainTensors[0].Kind)
		assert.Equal(t, [][]float64{{0, 1, 2}}, got.MainTensors[0].Matrix)
	})

	t.Run("node without weights has nothing to show", func(t *testing.T) {
		model := convModel()

		got := Inspect(model, model.Nodes[1].Name, &model.Nodes[1], 0)

		assert.Empty(t, got.MainTensors)
		assert.Nil(t, got.Bias)
		assert.Equal(t, 0, got.WeightCount)
	})

	t.Run("slice index is clamped per tensor", func(t *testing.T) {
		model := &models.ParsedModel{
			Nodes: []models.GraphNode{{Name: "mix", Inputs: []string{"a", "b"}}},
			Weights: map[string]models.WeightTensor{
				"a": weight(8, 2),
				"b": weight(3, 1, 1, 2),
			},
		}

		got := Inspect(model, model.Nodes[0].Name, &model.Nodes[0], 5)

		require.Len(t, got.MainTensors, 2)
		assert.Equal(t, 5, got.MainTensors[0].SliceIndex)
		assert.Equal(t, [][]float64{{10, 11}}, got.MainTensors[0].Matrix)
		assert.Equal(t, 2, got.MainTensors[1].SliceIndex)
		assert.Equal(t, [][]float64{{4, 5}}, got.MainTensors[1].Matrix)
	})

	t.Run("negative slice index clamps to zero", func(t *testing.T) {
		model := convModel()

		got := Inspect(model, model.Nodes[2].Name, &model.Nodes[2], -3)

		assert.Equal(t, 0, got.MainTensors[0].SliceIndex)
	})

	t.Run("unprojectable tensor is marked and others still render", func(t *testing.T) {
		model := &models.ParsedModel{
			Nodes: []models.GraphNode{{Name: "odd", Inputs: []string{"scale", "w"}}},
			Weights: map[string]models.WeightTensor{
				"scale": weight(5),
				"w":     weight(2, 2),
			},
		}

		got := Inspect(model, model.Nodes[0].Name, &model.Nodes[0], 0)

		require.Len(t, got.MainTensors, 2)
		assert.Equal(t, KindOther, got.MainTensors[0].Kind)
		assert.NotEmpty(t, got.MainTensors[0].Unavailable)
		assert.Nil(t, got.MainTensors[0].Matrix)
		assert.Equal(t, []int{5}, got.MainTensors[0].Shape)

		assert.Empty(t, got.MainTensors[1].Unavailable)
		assert.Equal(t, [][]float64{{0, 1}}, got.MainTensors[1].Matrix)
	})

	t.Run("corrupt buffer is unavailable instead of panicking", func(t *testing.T) {
		broken := weight(2, 3, 2, 2)
		broken.Values = broken.Values[:10]
		model := &models.ParsedModel{
			Nodes:   []models.GraphNode{{Name: "c", Inputs: []string{"w"}}},
			Weights: map[string]models.WeightTensor{"w": broken},
		}

		got := Inspect(model, model.Nodes[0].Name, &model.Nodes[0], 1)

		require.Len(t, got.MainTensors, 1)
		assert.Contains(t, got.MainTensors[0].Unavailable, "shape mismatch")
		assert.Nil(t, got.MainTensors[0].Matrix)
	})

	t.Run("overflowing shape is unavailable instead of panicking", func(t *testing.T) {
		model := &models.ParsedModel{
			Nodes: []models.GraphNode{{Name: "fc", Inputs: []string{"w", "b"}}},
			Weights: map[string]models.WeightTensor{
				"w": {Shape: []int{4, 1 << 62}, Values: []float64{}},
				"b": {Shape: []int{1 << 62}, Values: []float64{}},
			},
		}

		require.NotPanics(t, func() {
			got := Inspect(model, "fc", &model.Nodes[0], 1)

			require.Len(t, got.MainTensors, 1)
			assert.Contains(t, got.MainTensors[0].Unavailable, "too many elements")
			assert.Nil(t, got.MainTensors[0].Matrix)
			assert.Equal(t, 0, got.MainTensors[0].NumValues)

			require.NotNil(t, got.Bias)
			assert.NotEmpty(t, got.Bias.Unavailable)
			assert.Nil(t, got.Bias.Vector)
		})
	})

	t.Run("reports the node id it was given, not the node name", func(t *testing.T) {
		model := &models.ParsedModel{
			Nodes: []models.GraphNode{
				{Name: "dup", Inputs: []string{"a"}},
				{Name: "dup", Inputs: []string{"b"}},
			},
			Weights: map[string]models.WeightTensor{
				"a": weight(2, 2),
				"b": weight(3, 2),
			},
		}

		first := Inspect(model, "dup", &model.Nodes[0], 0)
		second := Inspect(model, "dup_2", &model.Nodes[1], 0)

		assert.Equal(t, "dup", first.Node)
		assert.Equal(t, "dup_2", second.Node)
		assert.Equal(t, "b", second.MainTensors[0].Name)
	})

	t.Run("bias with wrong rank is unavailable", func(t *testing.T) {
		model := &models.ParsedModel{
			Nodes:   []models.GraphNode{{Name: "n", Inputs: []string{"bias2d"}}},
			Weights: map[string]models.WeightTensor{"bias2d": weight(1, 4)},
		}

		got := Inspect(model, model.Nodes[0].Name, &model.Nodes[0], 0)

		require.NotNil(t, got.Bias)
		assert.NotEmpty(t, got.Bias.Unavailable)
		assert.Nil(t, got.Bias.Vector)
		assert.Empty(t, got.MainTensors)
	})

	t.Run("only the first bias-like tensor is the bias", func(t *testing.T) {
		model := &models.ParsedModel{
			Nodes: []models.GraphNode{{Name: "n", Inputs: []string{"w", "bias_a", "bias_b"}}},
			Weights: map[string]models.WeightTensor{
				"w":      weight(2, 2),
				"bias_a": weight(2),
				"bias_b": weight(2),
			},
		}

		got := Inspect(model, model.Nodes[0].Name, &model.Nodes[0], 0)

		assert.Equal(t, "bias_a", got.Bias.Name)
		require.Len(t, got.MainTensors, 2)
		assert.Equal(t, "w", got.MainTensors[0].Name)
		assert.Equal(t, "bias_b", got.MainTensors[1].Name)
		assert.Equal(t, 3, got.WeightCount)
	})

	t.Run("nil node", func(t *testing.T) {
		got := Inspect(convModel(), "gone", nil, 0)

		assert.Equal(t, "gone", got.Node)
		assert.Empty(t, got.MainTensors)
		assert.Nil(t, got.Bias)
	})
}

func TestSliceBound(t *testing.T) {
	model := convModel()

	assert.Equal(t, 2, SliceBound(model, &model.Nodes[0]))
	assert.Equal(t, 0, SliceBound(model, &model.Nodes[1]))
	assert.Equal(t, 4, SliceBound(model, &model.Nodes[2]))
	assert.Equal(t, 0, SliceBound(model, nil))

	t.Run("skips tensors without an output dimension", func(t *testing.T) {
		m := &models.ParsedModel{
			Nodes: []models.GraphNode{{Name: "n", Inputs: []string{"s", "w"}}},
			Weights: map[string]models.WeightTensor{
				"s": weight(7),
				"w": weight(6, 1),
			},
		}

		assert.Equal(t, 6, SliceBound(m, &m.Nodes[0]))
	})
}
