// Package selection tracks which graph node the viewer has selected, which
// side panel is open and which output slice of the node's weights is shown.
package selection

import (
	"errors"
	"fmt"
)

type Panel string

const (
	PanelMetadata Panel = "metadata"
	PanelNode     Panel = "node"
	PanelWeights  Panel = "weights"
)

var (
	ErrNoSelection  = errors.New("no node selected")
	ErrUnknownPanel = errors.New("unknown panel")
)

// ParsePanel accepts the panel names used on the wire.
func ParsePanel(s string) (Panel, error) {
	switch p := Panel(s); p {
	case PanelMetadata, PanelNode, PanelWeights:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPanel, s)
	}
}

// State is a snapshot of the machine. SelectedNodeID is empty while idle.
type State struct {
	SelectedNodeID string `json:"selected_node_id,omitempty"`
	Panel          Panel  `json:"panel"`
	SliceIndex     int    `json:"slice_index"`
}

// Idle reports whether no node is selected.
func (s State) Idle() bool {
	return s.SelectedNodeID == ""
}

// Machine is the selection state holder for one view. It is not safe for
// concurrent use; callers deliver events one at a time.
type Machine struct {
	state State
}

// New returns a machine in the idle state showing the metadata panel.
func New() *Machine {
	return &Machine{state: State{Panel: PanelMetadata}}
}

func (m *Machine) State() State {
	return m.state
}

// Tap selects a node and opens its detail panel. The slice index restarts at
// zero even when the same node is tapped again.
func (m *Machine) Tap(nodeID string) {
	m.state = State{
		SelectedNodeID: nodeID,
		Panel:          PanelNode,
		SliceIndex:     0,
	}
}

// TapBackground clears the selection.
func (m *Machine) TapBackground() {
	m.Reset()
}

// SwitchPanel changes the open panel without touching the slice index. Only
// the metadata panel may be opened while idle.
func (m *Machine) SwitchPanel(p Panel) error {
	if _, err := ParsePanel(string(p)); err != nil {
		return err
	}

	if m.state.Idle() && p != PanelMetadata {
		return fmt.Errorf("switch to %s panel: %w", p, ErrNoSelection)
	}

	m.state.Panel = p
	return nil
}

// SetSliceIndex clamps i into [0, outDim-1] and stores it. An outDim of zero
// or less means the node has nothing to slice and pins the index at 0.
func (m *Machine) SetSliceIndex(i, outDim int) (int, error) {
	if m.state.Idle() {
		return 0, fmt.Errorf("set slice index: %w", ErrNoSelection)
	}

	m.state.SliceIndex = Clamp(i, outDim)
	return m.state.SliceIndex, nil
}

// Reset returns to the idle state. Loading a new model always calls it.
func (m *Machine) Reset() {
	m.state = State{Panel: PanelMetadata}
}

// Clamp limits i to a valid slice index for a dimension of size outDim.
func Clamp(i, outDim int) int {
	if outDim <= 0 || i < 0 {
		return 0
	}
	if i > outDim-1 {
		return outDim - 1
	}
	return i
}
