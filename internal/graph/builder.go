// Package graph builds the renderable element set for a parsed model.
//
// Edge records name their endpoints by logical node name, and the source
// format does not say which of several equally named nodes an endpoint means.
// Build binds such endpoints to the first node registered under the name and
// lists the name in RenderGraph.Ambiguous. It does not guess further.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/onnxscope/core/internal/identity"
	"github.com/onnxscope/core/internal/models"
)

const ReasonEmptyGraph = "empty-graph"

var ErrEmptyGraph = errors.New("graph has no nodes")

// BuildError is returned when a model cannot be turned into a graph view.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return "graph build failed: " + e.Reason
}

func (e *BuildError) Is(target error) bool {
	return target == ErrEmptyGraph && e.Reason == ReasonEmptyGraph
}

type Options struct {
	Layout models.LayoutHints
}

func DefaultOptions() Options {
	return Options{Layout: models.DefaultLayout()}
}

// Build resolves node identities and wires edges. It is a pure function of
// its input and must be rerun for every new model.
func Build(model *models.ParsedModel, opts Options) (*models.RenderGraph, error) {
	if model == nil || len(model.Nodes) == 0 {
		return nil, &BuildError{Reason: ReasonEmptyGraph}
	}

	res := identity.Resolve(model.Nodes)

	graph := &models.RenderGraph{
		Nodes:  make([]models.RenderElement, 0, len(model.Nodes)),
		Edges:  make([]models.RenderEdge, 0, len(model.Edges)),
		Layout: opts.Layout,
	}

	for i := range model.Nodes {
		node := &model.Nodes[i]
		graph.Nodes = append(graph.Nodes, models.RenderElement{
			ID:     res.IDs[i],
			Label:  buildLabel(node.OpType, res.IDs[i]),
			OpType: node.OpType,
			Index:  i,
			Source: node,
		})
	}

	ambiguous := make(map[string]bool)

	for i, edge := range model.Edges {
		source, okSource := res.First(edge.From)
		target, okTarget := res.First(edge.To)

		if !okSource || !okTarget {
			graph.Unresolved = append(graph.Unresolved, edge)
			continue
		}

		for _, name := range []string{edge.From, edge.To} {
			if len(res.ByName[name]) > 1 {
				ambiguous[name] = true
			}
		}

		graph.Edges = append(graph.Edges, models.RenderEdge{
			ID:     fmt.Sprintf("e%d", i),
			Source: source,
			Target: target,
			Label:  edge.Label,
		})
	}

	graph.Ambiguous = collectAmbiguous(ambiguous, res)
	graph.Stats = buildStats(model, graph)

	return graph, nil
}

func buildLabel(opType, id string) string {
	if opType == "" || opType == id {
		return id
	}
	return fmt.Sprintf("%s\n(%s)", opType, id)
}

func collectAmbiguous(names map[string]bool, res *identity.Resolution) []models.AmbiguousName {
	if len(names) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	out := make([]models.AmbiguousName, 0, len(sorted))
	for _, name := range sorted {
		out = append(out, models.AmbiguousName{
			Name:       name,
			Candidates: append([]string(nil), res.ByName[name]...),
		})
	}
	return out
}

func buildStats(model *models.ParsedModel, graph *models.RenderGraph) *models.Stats {
	stats := &models.Stats{
		TotalNodes:      len(graph.Nodes),
		TotalEdges:      len(graph.Edges),
		NodesByOpType:   make(map[string]int),
		TotalWeights:    len(model.Weights),
		TotalParameters: model.ParameterCount(),
	}

	for _, node := range graph.Nodes {
		stats.NodesByOpType[node.OpType]++
	}

	return stats
}
