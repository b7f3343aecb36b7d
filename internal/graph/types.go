package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Version is written into every graph document.
const Version = "1.0"

type NodeKind string

const (
	KindFunction NodeKind = "function"
	KindMethod   NodeKind = "method"
	KindClass    NodeKind = "class"
)

type EdgeKind string

const (
	EdgeCall      EdgeKind = "call"
	EdgeImport    EdgeKind = "import"
	EdgeExtend    EdgeKind = "extend"
	EdgeImplement EdgeKind = "implement"
	EdgeContains  EdgeKind = "contains"
)

// SymbolNode is one function, method or class in the flow graph.
type SymbolNode struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Kind      NodeKind `json:"kind"`
	File      string   `json:"file"`
	Line      int      `json:"line,omitempty"`
	Signature string   `json:"signature,omitempty"`
}

type FlowEdge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeKind `json:"type"`
}

func (e FlowEdge) key() string {
	return e.From + "\x00" + e.To + "\x00" + string(e.Type)
}

// FlowGraph is the persisted graph document.
type FlowGraph struct {
	Version     string     `json:"version"`
	Generated   string     `json:"generated"`
	Nodes       *NodeMap   `json:"nodes"`
	Edges       []FlowEdge `json:"edges"`
	EntryPoints []string   `json:"entryPoints"`
}

// Empty returns a graph with no nodes.
func Empty() *FlowGraph {
	return &FlowGraph{
		Version:     Version,
		Nodes:       NewNodeMap(),
		Edges:       make([]FlowEdge, 0),
		EntryPoints: make([]string, 0),
	}
}

// IsEmpty reports whether the graph holds no nodes.
func (g *FlowGraph) IsEmpty() bool {
	return g == nil || g.Nodes == nil || g.Nodes.Len() == 0
}

// NodeMap is an id-keyed node set that remembers insertion order. It
// encodes as a JSON object whose keys keep that order.
type NodeMap struct {
	order []string
	byID  map[string]*SymbolNode
}

func NewNodeMap() *NodeMap {
	return &NodeMap{byID: make(map[string]*SymbolNode)}
}

// Put adds node unless its id is already present. It reports whether the
// node was added.
func (m *NodeMap) Put(node SymbolNode) bool {
	if _, ok := m.byID[node.ID]; ok {
		return false
	}
	n := node
	m.byID[node.ID] = &n
	m.order = append(m.order, node.ID)
	return true
}

func (m *NodeMap) Get(id string) (*SymbolNode, bool) {
	if m == nil {
		return nil, false
	}
	node, ok := m.byID[id]
	return node, ok
}

func (m *NodeMap) Has(id string) bool {
	_, ok := m.Get(id)
	return ok
}

func (m *NodeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// IDs returns node ids in insertion order.
func (m *NodeMap) IDs() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.order...)
}

// Each visits nodes in insertion order.
func (m *NodeMap) Each(fn func(node *SymbolNode)) {
	if m == nil {
		return
	}
	for _, id := range m.order {
		fn(m.byID[id])
	}
}

func (m *NodeMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.byID[id])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (m *NodeMap) UnmarshalJSON(data []byte) error {
	m.order = nil
	m.byID = make(map[string]*SymbolNode)

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("nodes: expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("nodes: expected key, got %v", tok)
		}
		var node SymbolNode
		if err := dec.Decode(&node); err != nil {
			return fmt.Errorf("nodes[%s]: %w", key, err)
		}
		if node.ID == "" {
			node.ID = key
		}
		m.Put(node)
	}
	_, err = dec.Token()
	return err
}
