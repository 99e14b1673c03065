// Package models defines the core data structures shared by the parser, the
// graph builder, the inspector and the HTTP layer.
package models

// RenderGraph is the element set handed to the layered-DAG drawing layer.
type RenderGraph struct {
	Nodes      []RenderElement `json:"nodes" yaml:"nodes"`
	Edges      []RenderEdge    `json:"edges" yaml:"edges"`
	Ambiguous  []AmbiguousName `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	Unresolved []GraphEdge     `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Layout     LayoutHints     `json:"layout" yaml:"layout"`
	Stats      *Stats          `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// RenderElement is a node with a resolver-guaranteed unique id. Source points
// back into the ParsedModel it was built from and is never serialised.
type RenderElement struct {
	ID     string     `json:"id" yaml:"id"`
	Label  string     `json:"label" yaml:"label"`
	OpType string     `json:"op_type" yaml:"op_type"`
	Index  int        `json:"index" yaml:"index"`
	Source *GraphNode `json:"-" yaml:"-"`
}

type RenderEdge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Label  string `json:"label" yaml:"label"`
}

// AmbiguousName records a logical name shared by several nodes that edges
// referenced. Edges were bound to Candidates[0].
type AmbiguousName struct {
	Name       string   `json:"name" yaml:"name"`
	Candidates []string `json:"candidates" yaml:"candidates"`
}

// LayoutHints parameterise the external layered layout. Field names follow
// the dagre option names so the frontend can pass them through untouched.
type LayoutHints struct {
	Name    string `json:"name" yaml:"name"`
	RankDir string `json:"rankDir" yaml:"rank_dir"`
	NodeSep int    `json:"nodeSep" yaml:"node_sep"`
	RankSep int    `json:"rankSep" yaml:"rank_sep"`
}

type Stats struct {
	TotalNodes      int            `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges      int            `json:"total_edges" yaml:"total_edges"`
	NodesByOpType   map[string]int `json:"nodes_by_op_type,omitempty" yaml:"nodes_by_op_type,omitempty"`
	TotalWeights    int            `json:"total_weights" yaml:"total_weights"`
	TotalParameters int            `json:"total_parameters" yaml:"total_parameters"`
}

// DefaultLayout mirrors the layout the inspector frontend has always used.
func DefaultLayout() LayoutHints {
	return LayoutHints{
		Name:    "dagre",
		RankDir: "TB",
		NodeSep: 60,
		RankSep: 80,
	}
}
