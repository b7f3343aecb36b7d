package query

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/morozRed/flowdex/internal/extract"
	"github.com/morozRed/flowdex/internal/graph"
)

// DefaultSymbolLimit caps filter lookups when the caller has no preference.
const DefaultSymbolLimit = 50

// LookupRequest selects symbols either by explicit ids or by filters.
// Filters left empty are skipped; the rest must all match. A Limit of zero
// means no limit. Ids are never limited.
type LookupRequest struct {
	IDs   []string
	Name  string
	File  string
	Kind  graph.NodeKind
	Limit int
}

// SymbolDetails come from the symbol table for functions and methods.
type SymbolDetails struct {
	Params       string   `json:"params"`
	ReturnType   string   `json:"returnType"`
	Dependencies []string `json:"dependencies,omitempty"`
}

type Symbol struct {
	graph.SymbolNode
	Details *SymbolDetails `json:"details,omitempty"`
}

type LookupResult struct {
	NotIndexed bool     `json:"notIndexed,omitempty"`
	Symbols    []Symbol `json:"symbols"`
	Missing    []string `json:"missing,omitempty"`
}

func ParseKind(raw string) (graph.NodeKind, error) {
	switch kind := graph.NodeKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "", graph.KindFunction, graph.KindMethod, graph.KindClass:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: kind %q (want function, method or class)", ErrInvalidArgument, raw)
	}
}

// Lookup finds symbols by id (exact, in request order) or by filters (in
// graph discovery order).
func (e *Engine) Lookup(ctx context.Context, req LookupRequest) (*LookupResult, error) {
	_, span := tracer.Start(ctx, "Engine.Lookup",
		trace.WithAttributes(
			attribute.Int("ids", len(req.IDs)),
			attribute.String("name", req.Name),
			attribute.String("file", req.File),
		),
	)
	defer span.End()

	g, err := e.source.Graph()
	if err != nil {
		return nil, err
	}
	result := &LookupResult{Symbols: make([]Symbol, 0)}
	if g.IsEmpty() {
		result.NotIndexed = true
		return result, nil
	}

	if ids := cleanIDs(req.IDs); len(ids) > 0 {
		for _, id := range ids {
			node, ok := g.Nodes.Get(id)
			if !ok {
				result.Missing = append(result.Missing, id)
				continue
			}
			result.Symbols = append(result.Symbols, Symbol{SymbolNode: *node})
		}
	} else {
		name := strings.ToLower(req.Name)
		g.Nodes.Each(func(node *graph.SymbolNode) {
			if req.Limit > 0 && len(result.Symbols) >= req.Limit {
				return
			}
			if name != "" && !strings.Contains(strings.ToLower(node.Name), name) {
				return
			}
			if req.File != "" && !strings.Contains(node.File, req.File) {
				return
			}
			if req.Kind != "" && node.Kind != req.Kind {
				return
			}
			result.Symbols = append(result.Symbols, Symbol{SymbolNode: *node})
		})
	}

	symbols, err := e.source.Symbols()
	if err != nil {
		return nil, err
	}
	attachDetails(result.Symbols, symbols)
	span.SetAttributes(attribute.Int("results", len(result.Symbols)))
	return result, nil
}

// attachDetails matches functions by name and methods by their unqualified
// name, both within the same file.
func attachDetails(out []Symbol, symbols []extract.SymbolEntry) {
	for i := range out {
		sym := &out[i]
		if sym.Kind == graph.KindClass {
			continue
		}
		name := sym.Name
		if sym.Kind == graph.KindMethod {
			name = name[strings.LastIndex(name, ".")+1:]
		}
		for _, entry := range symbols {
			if entry.Name == name && entry.File == sym.File {
				sym.Details = &SymbolDetails{
					Params:       entry.Params,
					ReturnType:   entry.ReturnType,
					Dependencies: entry.Dependencies,
				}
				break
			}
		}
	}
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
