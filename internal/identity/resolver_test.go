package identity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnxscope/core/internal/models"
)

func named(names ...string) []models.GraphNode {
	nodes := make([]models.GraphNode, len(names))
	for i, name := range names {
		nodes[i] = models.GraphNode{Name: name, OpType: "Op"}
	}
	return nodes
}

func assertDistinct(t *testing.T, ids []string) {
	t.Helper()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		assert.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %q in %v", id, ids)
		seen[id] = true
	}
}

func TestResolve(t *testing.T) {
	t.Run("duplicate names get numbered suffixes", func(t *testing.T) {
		res := Resolve(named("conv1", "conv1", "relu"))

		assert.Equal(t, []string{"conv1", "conv1_2", "relu"}, res.IDs)
		assert.Equal(t, []string{"conv1", "conv1_2"}, res.ByName["conv1"])
		assert.Equal(t, []string{"relu"}, res.ByName["relu"])
	})

	t.Run("third occurrence is suffixed with 3", func(t *testing.T) {
		res := Resolve(named("a", "b", "a", "a"))

		assert.Equal(t, []string{"a", "b", "a_2", "a_3"}, res.IDs)
	})

	t.Run("empty name falls back to op type", func(t *testing.T) {
		res := Resolve([]models.GraphNode{
			{OpType: "Relu"},
			{OpType: "Relu"},
			{Name: "Relu"},
		})

		assert.Equal(t, []string{"Relu", "Relu_2", "Relu_3"}, res.IDs)
	})

	t.Run("empty name and op type get a synthetic id", func(t *testing.T) {
		res := Resolve([]models.GraphNode{{}, {Name: "x"}, {}})

		assert.Equal(t, []string{"node_0", "x", "node_2"}, res.IDs)
	})

	t.Run("synthetic ids take part in counting", func(t *testing.T) {
		res := Resolve([]models.GraphNode{{Name: "node_1"}, {}})

		assert.Equal(t, []string{"node_1", "node_1_2"}, res.IDs)
		assert.Equal(t, []string{"node_1", "node_1_2"}, res.ByName["node_1"])
	})

	t.Run("literal suffixed name does not collide with a generated id", func(t *testing.T) {
		res := Resolve(named("conv1_2", "conv1", "conv1"))

		assert.Equal(t, []string{"conv1_2", "conv1", "conv1_3"}, res.IDs)
		assertDistinct(t, res.IDs)
	})

	t.Run("generated id taken first pushes the literal name further", func(t *testing.T) {
		res := Resolve(named("a", "a", "a_2"))

		assertDistinct(t, res.IDs)
		assert.Equal(t, []string{"a", "a_2", "a_2_2"}, res.IDs)
	})

	t.Run("first returns the earliest id", func(t *testing.T) {
		res := Resolve(named("x", "y", "x"))

		id, ok := res.First("x")
		require.True(t, ok)
		assert.Equal(t, "x", id)

		_, ok = res.First("missing")
		assert.False(t, ok)
	})

	t.Run("empty input", func(t *testing.T) {
		res := Resolve(nil)

		assert.Empty(t, res.IDs)
		assert.Empty(t, res.ByName)
	})

	t.Run("ids are distinct and stable across runs", func(t *testing.T) {
		var names []string
		for i := range 200 {
			names = append(names, fmt.Sprintf("n%d", i%7))
			if i%11 == 0 {
				names = append(names, fmt.Sprintf("n%d_%d", i%7, i%5+2))
			}
		}
		nodes := named(names...)
		nodes = append(nodes, models.GraphNode{}, models.GraphNode{OpType: "n3"})

		first := Resolve(nodes)
		second := Resolve(nodes)

		assertDistinct(t, first.IDs)
		assert.Equal(t, first.IDs, second.IDs)
		assert.Equal(t, first.ByName, second.ByName)
	})
}

func TestLogicalName(t *testing.T) {
	assert.Equal(t, "conv", LogicalName(models.GraphNode{Name: "conv", OpType: "Conv"}, 0))
	assert.Equal(t, "Conv", LogicalName(models.GraphNode{OpType: "Conv"}, 0))
	assert.Equal(t, "node_4", LogicalName(models.GraphNode{}, 4))
}
