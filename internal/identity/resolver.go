// Package identity turns possibly duplicated logical node names into unique
// graph element ids.
//
// Nodes are processed in input order. The first node with a given logical
// name keeps the bare name; the n-th one becomes "{name}_{n}". A node without
// a name falls back to its op type, and a node with neither gets "node_{index}".
package identity

import (
	"fmt"

	"github.com/onnxscope/core/internal/models"
)

// Resolution is the result of resolving one node sequence.
type Resolution struct {
	// IDs is index-aligned with the input nodes.
	IDs []string
	// ByName lists the ids assigned to each logical name in assignment order.
	ByName map[string][]string
}

// First returns the first id registered for a logical name.
func (r *Resolution) First(name string) (string, bool) {
	ids := r.ByName[name]
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// LogicalName returns the name a node is known by before disambiguation.
func LogicalName(node models.GraphNode, index int) string {
	switch {
	case node.Name != "":
		return node.Name
	case node.OpType != "":
		return node.OpType
	default:
		return fmt.Sprintf("node_%d", index)
	}
}

// Resolve assigns a unique id to every node. Identical input always yields
// identical ids.
func Resolve(nodes []models.GraphNode) *Resolution {
	res := &Resolution{
		IDs:    make([]string, len(nodes)),
		ByName: make(map[string][]string),
	}

	taken := make(map[string]bool, len(nodes))
	counts := make(map[string]int)

	for i, node := range nodes {
		name := LogicalName(node, i)

		// A literal name such as "conv1_2" may already occupy the id the
		// counter would produce, so keep counting until the id is free.
		counts[name]++
		id := candidate(name, counts[name])
		for taken[id] {
			counts[name]++
			id = candidate(name, counts[name])
		}

		taken[id] = true
		res.IDs[i] = id
		res.ByName[name] = append(res.ByName[name], id)
	}

	return res
}

func candidate(name string, n int) string {
	if n == 1 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, n)
}
