// Package parser provides utilities for parsing and transforming input data.
// It turns ONNX files and JSON model payloads into models.ParsedModel values.
package parser

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/onnxscope/core/internal/identity"
	"github.com/onnxscope/core/internal/models"
)

var ErrNoGraph = errors.New("model has no graph")

// Only the ONNX fields the inspector needs are decoded; everything else is
// skipped on the wire.
type onnxModel struct {
	irVersion       int64
	producerName    string
	producerVersion string
	domain          string
	modelVersion    int64
	docString       string
	opsetVersion    int64
	graph           *onnxGraph
	props           map[string]string
}

type onnxGraph struct {
	name         string
	nodes        []onnxNode
	initializers []onnxTensor
}

type onnxNode struct {
	name    string
	opType  string
	inputs  []string
	outputs []string
	attrs   []onnxAttribute
}

type onnxAttribute struct {
	name    string
	typ     int64
	f       float32
	i       int64
	s       []byte
	t       *onnxTensor
	floats  []float32
	ints    []int64
	strings [][]byte
	set     map[int]bool
}

type onnxTensor struct {
	name         string
	dims         []int64
	dataType     int32
	raw          []byte
	floatData    []float32
	int32Data    []int64
	int64Data    []int64
	doubleData   []float64
	uint64Data   []uint64
	dataLocation int64
}

// ParseONNXFile reads and decodes an .onnx file.
func ParseONNXFile(path string) (*models.ParsedModel, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseONNX(data)
}

// ParseONNX decodes a serialized ONNX ModelProto into nodes, edges, weights
// and metadata.
func ParseONNX(data []byte) (*models.ParsedModel, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty onnx data")
	}

	m, err := decodeModel(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse onnx model: %w", err)
	}

	if m.graph == nil {
		return nil, ErrNoGraph
	}

	parsed := &models.ParsedModel{
		Nodes:    buildNodes(m.graph.nodes),
		Weights:  make(map[string]models.WeightTensor, len(m.graph.initializers)),
		Metadata: buildModelMetadata(m),
	}
	parsed.Edges = buildEdges(parsed.Nodes)

	for _, t := range m.graph.initializers {
		w, err := weightFromTensor(&t)
		if err != nil {
			log.Printf("onnx: skipping initializer %q: %v", t.name, err)
			continue
		}
		parsed.Weights[t.name] = w
	}

	return parsed, nil
}

func buildNodes(protoNodes []onnxNode) []models.GraphNode {
	nodes := make([]models.GraphNode, 0, len(protoNodes))

	for _, n := range protoNodes {
		name := n.name
		if name == "" {
			name = n.opType
		}

		attrs := make(map[string]any, len(n.attrs))
		for _, a := range n.attrs {
			attrs[a.name] = attributeValue(&a)
		}

		nodes = append(nodes, models.GraphNode{
			Name:       name,
			OpType:     n.opType,
			Inputs:     nonNil(n.inputs),
			Outputs:    nonNil(n.outputs),
			Attributes: attrs,
		})
	}

	return nodes
}

// buildEdges links every producer of a tensor to every consumer of it,
// producers in graph order. Endpoints are logical names.
func buildEdges(nodes []models.GraphNode) []models.GraphEdge {
	producers := make(map[string][]int)
	for i, n := range nodes {
		for _, out := range n.Outputs {
			if out == "" {
				continue
			}
			// A node listing the same output twice still counts once.
			if p := producers[out]; len(p) > 0 && p[len(p)-1] == i {
				continue
			}
			producers[out] = append(producers[out], i)
		}
	}

	edges := []models.GraphEdge{}
	for i, n := range nodes {
		for _, in := range n.Inputs {
			for _, p := range producers[in] {
				edges = append(edges, models.GraphEdge{
					From:  identity.LogicalName(nodes[p], p),
					To:    identity.LogicalName(n, i),
					Label: in,
				})
			}
		}
	}

	return edges
}

func buildModelMetadata(m *onnxModel) map[string]any {
	meta := map[string]any{
		"producer_name":    m.producerName,
		"producer_version": m.producerVersion,
		"domain":           m.domain,
		"description":      m.docString,
		"ir_version":       m.irVersion,
		"model_version":    m.modelVersion,
		"opset_version":    m.opsetVersion,
	}
	if m.graph != nil && m.graph.name != "" {
		meta["graph_name"] = m.graph.name
	}
	if len(m.props) > 0 {
		meta["metadata_props"] = m.props
	}
	return meta
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func decodeModel(b []byte) (*onnxModel, error) {
	m := &onnxModel{}

	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // ir_version
			m.irVersion, err = f.integer()
		case 2: // producer_name
			m.producerName, err = f.str()
		case 3: // producer_version
			m.producerVersion, err = f.str()
		case 4: // domain
			m.domain, err = f.str()
		case 5: // model_version
			m.modelVersion, err = f.integer()
		case 6: // doc_string
			m.docString, err = f.str()
		case 7: // graph
			var sub []byte
			if sub, err = f.bytes(); err == nil {
				m.graph, err = decodeGraph(sub)
			}
		case 8: // opset_import
			var sub []byte
			if sub, err = f.bytes(); err == nil {
				var domain string
				var version int64
				if domain, version, err = decodeOpset(sub); err == nil && (domain == "" || domain == "ai.onnx") {
					m.opsetVersion = version
				}
			}
		case 14: // metadata_props
			var sub []byte
			if sub, err = f.bytes(); err == nil {
				var key, value string
				if key, value, err = decodeStringPair(sub); err == nil {
					if m.props == nil {
						m.props = make(map[string]string)
					}
					m.props[key] = value
				}
			}
		}
		return err
	})

	return m, err
}

func decodeGraph(b []byte) (*onnxGraph, error) {
	g := &onnxGraph{}

	err := eachField(b, func(f field) error {
		switch f.num {
		case 1: // node
			sub, err := f.bytes()
			if err != nil {
				return err
			}
			n, err := decodeNode(sub)
			if err != nil {
				return fmt.Errorf("node %d: %w", len(g.nodes), err)
			}
			g.nodes = append(g.nodes, *n)
		case 2: // name
			var err error
			g.name, err = f.str()
			return err
		case 5: // initializer
			sub, err := f.bytes()
			if err != nil {
				return err
			}
			t, err := decodeTensor(sub)
			if err != nil {
				return fmt.Errorf("initializer %d: %w", len(g.initializers), err)
			}
			g.initializers = append(g.initializers, *t)
		}
		return nil
	})

	return g, err
}

func decodeNode(b []byte) (*onnxNode, error) {
	n := &onnxNode{}

	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // input
			var s string
			if s, err = f.str(); err == nil {
				n.inputs = append(n.inputs, s)
			}
		case 2: // output
			var s string
			if s, err = f.str(); err == nil {
				n.outputs = append(n.outputs, s)
			}
		case 3: // name
			n.name, err = f.str()
		case 4: // op_type
			n.opType, err = f.str()
		case 5: // attribute
			var sub []byte
			if sub, err = f.bytes(); err == nil {
				var a *onnxAttribute
				if a, err = decodeAttribute(sub); err == nil {
					n.attrs = append(n.attrs, *a)
				}
			}
		}
		return err
	})

	return n, err
}

func decodeAttribute(b []byte) (*onnxAttribute, error) {
	a := &onnxAttribute{set: make(map[int]bool)}

	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // name
			a.name, err = f.str()
		case 2: // f
			a.f, err = f.fixedFloat()
		case 3: // i
			a.i, err = f.integer()
		case 4: // s
			a.s, err = f.bytes()
		case 5: // t
			var sub []byte
			if sub, err = f.bytes(); err == nil {
				a.t, err = decodeTensor(sub)
			}
		case 7: // floats
			var vs []float32
			if vs, err = f.float32s(); err == nil {
				a.floats = append(a.floats, vs...)
			}
		case 8: // ints
			var vs []int64
			if vs, err = f.int64s(); err == nil {
				a.ints = append(a.ints, vs...)
			}
		case 9: // strings
			var s []byte
			if s, err = f.bytes(); err == nil {
				a.strings = append(a.strings, s)
			}
		case 20: // type
			a.typ, err = f.integer()
		}
		a.set[int(f.num)] = true
		return err
	})

	return a, err
}

func decodeTensor(b []byte) (*onnxTensor, error) {
	t := &onnxTensor{}

	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1: // dims
			var vs []int64
			if vs, err = f.int64s(); err == nil {
				t.dims = append(t.dims, vs...)
			}
		case 2: // data_type
			var v int64
			v, err = f.integer()
			t.dataType = int32(v) //nolint:gosec // enum values are small
		case 4: // float_data
			var vs []float32
			if vs, err = f.float32s(); err == nil {
				t.floatData = append(t.floatData, vs...)
			}
		case 5: // int32_data
			var vs []int64
			if vs, err = f.int64s(); err == nil {
				t.int32Data = append(t.int32Data, vs...)
			}
		case 7: // int64_data
			var vs []int64
			if vs, err = f.int64s(); err == nil {
				t.int64Data = append(t.int64Data, vs...)
			}
		case 8: // name
			t.name, err = f.str()
		case 9: // raw_data
			t.raw, err = f.bytes()
		case 10: // double_data
			var vs []float64
			if vs, err = f.float64s(); err == nil {
				t.doubleData = append(t.doubleData, vs...)
			}
		case 11: // uint64_data
			var vs []uint64
			if vs, err = f.varints(); err == nil {
				t.uint64Data = append(t.uint64Data, vs...)
			}
		case 14: // data_location
			t.dataLocation, err = f.integer()
		}
		return err
	})

	return t, err
}

func decodeOpset(b []byte) (string, int64, error) {
	var domain string
	var version int64

	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			domain, err = f.str()
		case 2:
			version, err = f.integer()
		}
		return err
	})

	return domain, version, err
}

func decodeStringPair(b []byte) (string, string, error) {
	var key, value string

	err := eachField(b, func(f field) error {
		var err error
		switch f.num {
		case 1:
			key, err = f.str()
		case 2:
			value, err = f.str()
		}
		return err
	})

	return key, value, err
}
