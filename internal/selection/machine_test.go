package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine(t *testing.T) {
	t.Run("starts idle on the metadata panel", func(t *testing.T) {
		m := New()

		state := m.State()
		assert.True(t, state.Idle())
		assert.Equal(t, PanelMetadata, state.Panel)
		assert.Equal(t, 0, state.SliceIndex)
	})

	t.Run("tap selects the node and opens node detail", func(t *testing.T) {
		m := New()

		m.Tap("conv1")

		assert.Equal(t, State{SelectedNodeID: "conv1", Panel: PanelNode}, m.State())
	})

	t.Run("tapping another node resets the slice index", func(t *testing.T) {
		m := New()
		m.Tap("conv1")
		_, err := m.SetSliceIndex(3, 8)
		require.NoError(t, err)
		require.NoError(t, m.SwitchPanel(PanelWeights))

		m.Tap("conv2")

		assert.Equal(t, State{SelectedNodeID: "conv2", Panel: PanelNode}, m.State())
	})

	t.Run("tap background returns to idle metadata", func(t *testing.T) {
		m := New()
		m.Tap("conv1")
		require.NoError(t, m.SwitchPanel(PanelWeights))

		m.TapBackground()

		assert.Equal(t, State{Panel: PanelMetadata}, m.State())
	})

	t.Run("switching panel keeps the slice index", func(t *testing.T) {
		m := New()
		m.Tap("fc")
		_, err := m.SetSliceIndex(4, 10)
		require.NoError(t, err)

		require.NoError(t, m.SwitchPanel(PanelWeights))
		require.NoError(t, m.SwitchPanel(PanelMetadata))

		assert.Equal(t, 4, m.State().SliceIndex)
		assert.Equal(t, PanelMetadata, m.State().Panel)
		assert.Equal(t, "fc", m.State().SelectedNodeID)
	})

	t.Run("idle machine only opens metadata", func(t *testing.T) {
		m := New()

		assert.NoError(t, m.SwitchPanel(PanelMetadata))
		assert.ErrorIs(t, m.SwitchPanel(PanelNode), ErrNoSelection)
		assert.ErrorIs(t, m.SwitchPanel(PanelWeights), ErrNoSelection)
		assert.Equal(t, PanelMetadata, m.State().Panel)
	})

	t.Run("unknown panel is rejected", func(t *testing.T) {
		m := New()
		m.Tap("a")

		err := m.SwitchPanel(Panel("graph"))

		assert.ErrorIs(t, err, ErrUnknownPanel)
		assert.Equal(t, PanelNode, m.State().Panel)
	})

	t.Run("set slice index needs a selection", func(t *testing.T) {
		m := New()

		_, err := m.SetSliceIndex(1, 4)

		assert.ErrorIs(t, err, ErrNoSelection)
		assert.Equal(t, 0, m.State().SliceIndex)
	})

	t.Run("set slice index clamps both ends", func(t *testing.T) {
		m := New()
		m.Tap("conv")
		outDim := 16

		got, err := m.SetSliceIndex(-5, outDim)
		require.NoError(t, err)
		assert.Equal(t, 0, got)

		got, err = m.SetSliceIndex(outDim+100, outDim)
		require.NoError(t, err)
		assert.Equal(t, outDim-1, got)
		assert.Equal(t, outDim-1, m.State().SliceIndex)

		got, err = m.SetSliceIndex(7, outDim)
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	})

	t.Run("reset forces idle from any state", func(t *testing.T) {
		m := New()
		m.Tap("conv")
		_, _ = m.SetSliceIndex(2, 4)
		require.NoError(t, m.SwitchPanel(PanelWeights))

		m.Reset()

		assert.Equal(t, State{Panel: PanelMetadata}, m.State())
	})
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		index    int
		outDim   int
		expected int
	}{
		{name: "inside range", index: 2, outDim: 5, expected: 2},
		{name: "negative", index: -5, outDim: 5, expected: 0},
		{name: "far above", index: 105, outDim: 5, expected: 4},
		{name: "exactly out dim", index: 5, outDim: 5, expected: 4},
		{name: "single slice", index: 3, outDim: 1, expected: 0},
		{name: "nothing to slice", index: 3, outDim: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clamp(tt.index, tt.outDim))
		})
	}

	t.Run("always within range", func(t *testing.T) {
		for outDim := 1; outDim <= 20; outDim++ {
			for i := -50; i <= 50; i++ {
				got := Clamp(i, outDim)
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, outDim-1)
			}
		}
	})
}

func TestParsePanel(t *testing.T) {
	for _, name := range []string{"metadata", "node", "weights"} {
		p, err := ParsePanel(name)
		require.NoError(t, err)
		assert.Equal(t, Panel(name), p)
	}

	_, err := ParsePanel("nodeDetail")
	assert.ErrorIs(t, err, ErrUnknownPanel)
}
