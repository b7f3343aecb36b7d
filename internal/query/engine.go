// Package query answers bounded questions over the indexed flow graph and
// symbol table: symbol lookup, entry-point ranking, subgraph retrieval and
// function search.
package query

import (
	"go.opentelemetry.io/otel"

	"github.com/morozRed/flowdex/internal/extract"
	"github.com/morozRed/flowdex/internal/graph"
)

var tracer = otel.Tracer("flowdex.query")

// Source provides the parsed documents a query reads. The cache satisfies it.
type Source interface {
	Graph() (*graph.FlowGraph, error)
	Symbols() ([]extract.SymbolEntry, error)
}

// Engine runs queries against a Source. It holds no state of its own.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}
