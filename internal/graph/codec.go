package graph

import (
	"bytes"
	"encoding/json"
)

// Encode renders the graph document with nodes in discovery order.
func Encode(g *FlowGraph) ([]byte, error) {
	if g == nil {
		g = Empty()
	}
	normalize(g)
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Decode parses a graph document. Missing or malformed content yields an
// empty graph, and entry points that name no node are dropped.
func Decode(data []byte) *FlowGraph {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty()
	}
	var g FlowGraph
	if err := json.Unmarshal(data, &g); err != nil {
		return Empty()
	}
	normalize(&g)
	return &g
}

func normalize(g *FlowGraph) {
	if g.Version == "" {
		g.Version = Version
	}
	if g.Nodes == nil {
		g.Nodes = NewNodeMap()
	}
	if g.Edges == nil {
		g.Edges = make([]FlowEdge, 0)
	}
	entries := make([]string, 0, len(g.EntryPoints))
	for _, id := range g.EntryPoints {
		if g.Nodes.Has(id) {
			entries = append(entries, id)
		}
	}
	g.EntryPoints = entries
}
