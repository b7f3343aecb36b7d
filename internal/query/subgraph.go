package query

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/morozRed/flowdex/internal/graph"
)

const (
	DefaultDepth    = 2
	DefaultMaxNodes = 100
	DefaultMaxEdges = 200
)

type Direction string

const (
	DirectionIn   Direction = "in"
	DirectionOut  Direction = "out"
	DirectionBoth Direction = "both"
)

func ParseDirection(raw string) (Direction, error) {
	switch dir := Direction(strings.ToLower(strings.TrimSpace(raw))); dir {
	case "":
		return DirectionBoth, nil
	case DirectionIn, DirectionOut, DirectionBoth:
		return dir, nil
	default:
		return "", fmt.Errorf("%w: direction %q (want in, out or both)", ErrInvalidArgument, raw)
	}
}

// SubgraphRequest bounds a traversal. A negative Depth and non-positive
// caps take their defaults; Depth zero returns the seeds alone.
type SubgraphRequest struct {
	IDs       []string
	Depth     int
	Direction Direction
	MaxNodes  int
	MaxEdges  int
}

type SubgraphResult struct {
	NotIndexed bool               `json:"notIndexed,omitempty"`
	Nodes      []graph.SymbolNode `json:"nodes"`
	Edges      []graph.FlowEdge   `json:"edges"`
	Missing    []string           `json:"missing,omitempty"`
	// Truncated is set when a cap kept a reachable node or edge out.
	Truncated bool `json:"truncated,omitempty"`
}

func (r SubgraphRequest) withDefaults() SubgraphRequest {
	if r.Depth < 0 {
		r.Depth = DefaultDepth
	}
	if r.Direction == "" {
		r.Direction = DirectionBoth
	}
	if r.MaxNodes <= 0 {
		r.MaxNodes = DefaultMaxNodes
	}
	if r.MaxEdges <= 0 {
		r.MaxEdges = DefaultMaxEdges
	}
	return r
}

type frontierItem struct {
	id    string
	depth int
}

// subgraphWalk is the state of one breadth-first traversal.
type subgraphWalk struct {
	g        *graph.FlowGraph
	req      SubgraphRequest
	result   *SubgraphResult
	included map[string]bool
	edgeSeen map[int]bool
	queue    []frontierItem
}

// Subgraph walks the graph breadth-first from the seeds. Nodes are visited
// at most once in FIFO order, and an edge is kept only once both of its
// endpoints are in the result. Neither cap is ever exceeded.
func (e *Engine) Subgraph(ctx context.Context, req SubgraphRequest) (*SubgraphResult, error) {
	req = req.withDefaults()
	_, span := tracer.Start(ctx, "Engine.Subgraph",
		trace.WithAttributes(
			attribute.Int("seeds", len(req.IDs)),
			attribute.Int("depth", req.Depth),
			attribute.String("direction", string(req.Direction)),
		),
	)
	defer span.End()

	seeds := cleanIDs(req.IDs)
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	if _, err := ParseDirection(string(req.Direction)); err != nil {
		return nil, err
	}

	g, err := e.source.Graph()
	if err != nil {
		return nil, err
	}
	result := &SubgraphResult{
		Nodes: make([]graph.SymbolNode, 0),
		Edges: make([]graph.FlowEdge, 0),
	}
	if g.IsEmpty() {
		result.NotIndexed = true
		return result, nil
	}

	outgoing := make(map[string][]int)
	incoming := make(map[string][]int)
	for i, edge := range g.Edges {
		outgoing[edge.From] = append(outgoing[edge.From], i)
		incoming[edge.To] = append(incoming[edge.To], i)
	}

	w := &subgraphWalk{
		g:        g,
		req:      req,
		result:   result,
		included: make(map[string]bool),
		edgeSeen: make(map[int]bool),
	}
	for _, id := range seeds {
		if !g.Nodes.Has(id) {
			result.Missing = append(result.Missing, id)
			continue
		}
		w.include(id, 0)
	}

	for len(w.queue) > 0 && len(result.Nodes) < req.MaxNodes {
		current := w.queue[0]
		w.queue = w.queue[1:]
		if current.depth >= req.Depth {
			continue
		}
		if req.Direction != DirectionIn {
			for _, idx := range outgoing[current.id] {
				w.follow(idx, g.Edges[idx].To, current.depth+1)
			}
		}
		if req.Direction != DirectionOut {
			for _, idx := range incoming[current.id] {
				w.follow(idx, g.Edges[idx].From, current.depth+1)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("nodes", len(result.Nodes)),
		attribute.Int("edges", len(result.Edges)),
		attribute.Bool("truncated", result.Truncated),
	)
	return result, nil
}

func (w *subgraphWalk) include(id string, depth int) bool {
	if w.included[id] {
		return true
	}
	if len(w.result.Nodes) >= w.req.MaxNodes {
		w.result.Truncated = true
		return false
	}
	node, _ := w.g.Nodes.Get(id)
	w.included[id] = true
	w.result.Nodes = append(w.result.Nodes, *node)
	w.queue = append(w.queue, frontierItem{id: id, depth: depth})
	return true
}

func (w *subgraphWalk) follow(edgeIdx int, neighbor string, depth int) {
	if !w.g.Nodes.Has(neighbor) || !w.include(neighbor, depth) {
		return
	}
	if w.edgeSeen[edgeIdx] {
		return
	}
	if len(w.result.Edges) >= w.req.MaxEdges {
		w.result.Truncated = true
		return
	}
	w.edgeSeen[edgeIdx] = true
	w.result.Edges = append(w.result.Edges, w.g.Edges[edgeIdx])
}
