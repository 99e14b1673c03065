// Package session holds the state of one model viewer: the loaded model, its
// graph view and the selection machine. All user interaction enters through
// Apply, which turns an Event into a state machine transition.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/onnxscope/core/internal/graph"
	"github.com/onnxscope/core/internal/inspector"
	"github.com/onnxscope/core/internal/models"
	"github.com/onnxscope/core/internal/selection"
)

var (
	ErrUnknownNode  = errors.New("unknown node")
	ErrUnknownEvent = errors.New("unknown event")
)

type EventType string

const (
	EventTap           EventType = "tap"
	EventTapBackground EventType = "tap_background"
	EventSwitchPanel   EventType = "switch_panel"
	EventSetSlice      EventType = "set_slice_index"
)

// Event is a user interaction as delivered by the rendering layer.
type Event struct {
	Type   EventType `json:"type"`
	NodeID string    `json:"node_id,omitempty"`
	Panel  string    `json:"panel,omitempty"`
	Index  int       `json:"index,omitempty"`
}

// Session serialises events for one viewer. The model, graph and selection
// are replaced together by Load and are never observed half-updated.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	opts      graph.Options
	model     *models.ParsedModel
	graph     *models.RenderGraph
	graphErr  error
	nodes     map[string]*models.GraphNode
	machine   *selection.Machine
	updatedAt time.Time
}

func New(id string, model *models.ParsedModel, opts graph.Options) *Session {
	s := &Session{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		opts:      opts,
		machine:   selection.New(),
	}
	s.load(model)
	return s
}

// Load replaces the model and forces the selection back to idle.
func (s *Session) Load(model *models.ParsedModel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load(model)
}

func (s *Session) load(model *models.ParsedModel) {
	g, err := graph.Build(model, s.opts)

	nodes := make(map[string]*models.GraphNode)
	if g != nil {
		for _, el := range g.Nodes {
			nodes[el.ID] = el.Source
		}
	}

	s.model = model
	s.graph = g
	s.graphErr = err
	s.nodes = nodes
	s.machine.Reset()
	s.updatedAt = time.Now().UTC()
}

// Apply runs one event against the selection machine.
func (s *Session) Apply(ev Event) (selection.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updatedAt = time.Now().UTC()

	switch ev.Type {
	case EventTap:
		if _, ok := s.nodes[ev.NodeID]; !ok {
			return s.machine.State(), fmt.Errorf("%w: %q", ErrUnknownNode, ev.NodeID)
		}
		s.machine.Tap(ev.NodeID)

	case EventTapBackground:
		s.machine.TapBackground()

	case EventSwitchPanel:
		panel, err := selection.ParsePanel(ev.Panel)
		if err != nil {
			return s.machine.State(), err
		}
		if err := s.machine.SwitchPanel(panel); err != nil {
			return s.machine.State(), err
		}

	case EventSetSlice:
		bound := inspector.SliceBound(s.model, s.selectedNode())
		if _, err := s.machine.SetSliceIndex(ev.Index, bound); err != nil {
			return s.machine.State(), err
		}

	default:
		return s.machine.State(), fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}

	return s.machine.State(), nil
}

func (s *Session) selectedNode() *models.GraphNode {
	return s.nodes[s.machine.State().SelectedNodeID]
}

// View is the serialisable snapshot of a session.
type View struct {
	ID         string              `json:"id"`
	Graph      *models.RenderGraph `json:"graph,omitempty"`
	GraphError string              `json:"graph_error,omitempty"`
	Selection  selection.State     `json:"selection"`
	Metadata   map[string]any      `json:"model_metadata,omitempty"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.ID,
		Graph:     s.graph,
		Selection: s.machine.State(),
	}
	if s.model != nil {
		v.Metadata = s.model.Metadata
	}
	if s.graphErr != nil {
		v.GraphError = graphErrorReason(s.graphErr)
	}
	return v
}

// NodeDetail is the content of the node panel.
type NodeDetail struct {
	ID   string            `json:"id"`
	Node *models.GraphNode `json:"node"`
}

// PanelContent is what the side panel shows for the current selection state.
// Exactly one of Metadata, Node and Weights is set.
type PanelContent struct {
	Selection selection.State       `json:"selection"`
	Metadata  map[string]any        `json:"metadata,omitempty"`
	Node      *NodeDetail           `json:"node,omitempty"`
	Weights   *inspector.Inspection `json:"weights,omitempty"`
}

func (s *Session) Panel() PanelContent {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.machine.State()
	content := PanelContent{Selection: state}

	node := s.selectedNode()
	switch {
	case state.Panel == selection.PanelMetadata || node == nil:
		content.Metadata = map[string]any{}
		if s.model != nil && s.model.Metadata != nil {
			content.Metadata = s.model.Metadata
		}
	case state.Panel == selection.PanelNode:
		content.Node = &NodeDetail{ID: state.SelectedNodeID, Node: node}
	case state.Panel == selection.PanelWeights:
		content.Weights = inspector.Inspect(s.model, state.SelectedNodeID, node, state.SliceIndex)
	}

	return content
}

// Inspect returns the weight inspection of the selected node regardless of
// the open panel.
func (s *Session) Inspect() (*inspector.Inspection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.machine.State()
	node := s.selectedNode()
	if node == nil {
		return nil, fmt.Errorf("inspect: %w", selection.ErrNoSelection)
	}

	return inspector.Inspect(s.model, state.SelectedNodeID, node, state.SliceIndex), nil
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updatedAt
}

func graphErrorReason(err error) string {
	var buildErr *graph.BuildError
	if errors.As(err, &buildErr) {
		return buildErr.Reason
	}
	return err.Error()
}
