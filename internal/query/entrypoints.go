package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/morozRed/flowdex/internal/graph"
)

// MaxEntryPoints is the number of ranked matches returned.
const MaxEntryPoints = 10

const (
	scoreDeclared  = 10
	scoreExact     = 10
	scoreContains  = 5
	scoreFile      = 3
	scoreSignature = 2
)

type EntryKind string

const (
	EntryAll     EntryKind = "all"
	EntryRoute   EntryKind = "route"
	EntryHandler EntryKind = "handler"
	EntryCommand EntryKind = "command"
)

func ParseEntryKind(raw string) (EntryKind, error) {
	switch kind := EntryKind(strings.ToLower(strings.TrimSpace(raw))); kind {
	case "":
		return EntryAll, nil
	case EntryAll, EntryRoute, EntryHandler, EntryCommand:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: entry kind %q (want route, handler, command or all)", ErrInvalidArgument, raw)
	}
}

type ScoredNode struct {
	graph.SymbolNode
	Score int `json:"score"`
}

type EntryPointResult struct {
	Query      string       `json:"query"`
	Kind       EntryKind    `json:"kind"`
	NotIndexed bool         `json:"notIndexed,omitempty"`
	Matches    []ScoredNode `json:"matches"`
}

// EntryPoints ranks every node against a free-text query. Nodes rejected by
// the kind filter or scoring zero are dropped; ties keep discovery order.
func (e *Engine) EntryPoints(ctx context.Context, query string, kind EntryKind) (*EntryPointResult, error) {
	_, span := tracer.Start(ctx, "Engine.EntryPoints",
		trace.WithAttributes(
			attribute.String("query", query),
			attribute.String("kind", string(kind)),
		),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if kind == "" {
		kind = EntryAll
	}

	g, err := e.source.Graph()
	if err != nil {
		return nil, err
	}
	result := &EntryPointResult{Query: query, Kind: kind, Matches: make([]ScoredNode, 0)}
	if g.IsEmpty() {
		result.NotIndexed = true
		return result, nil
	}

	declared := make(map[string]bool, len(g.EntryPoints))
	for _, id := range g.EntryPoints {
		declared[id] = true
	}

	q := strings.ToLower(query)
	g.Nodes.Each(func(node *graph.SymbolNode) {
		if !kindAccepts(kind, node) {
			return
		}
		if score := scoreNode(node, q, declared[node.ID]); score > 0 {
			result.Matches = append(result.Matches, ScoredNode{SymbolNode: *node, Score: score})
		}
	})

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Score > result.Matches[j].Score
	})
	if len(result.Matches) > MaxEntryPoints {
		result.Matches = result.Matches[:MaxEntryPoints]
	}
	span.SetAttributes(attribute.Int("results", len(result.Matches)))
	return result, nil
}

// scoreNode expects q in lower case.
func scoreNode(node *graph.SymbolNode, q string, declared bool) int {
	score := 0
	if declared {
		score += scoreDeclared
	}
	name := strings.ToLower(node.Name)
	if name == q {
		score += scoreExact
	}
	if strings.Contains(name, q) {
		score += scoreContains
	}
	if strings.Contains(strings.ToLower(node.File), q) {
		score += scoreFile
	}
	if tail := signatureTail(node); tail != "" && strings.Contains(strings.ToLower(tail), q) {
		score += scoreSignature
	}
	return score
}

// signatureTail drops the leading declared name from a node signature, so
// only parameters, return types and supertypes count toward the signature
// score.
func signatureTail(node *graph.SymbolNode) string {
	sig := node.Signature
	if node.Kind == graph.KindClass {
		sig = strings.TrimPrefix(sig, "class ")
	}
	return strings.TrimSpace(strings.TrimPrefix(sig, node.Name))
}

func kindAccepts(kind EntryKind, node *graph.SymbolNode) bool {
	name := strings.ToLower(node.Name)
	file := strings.ToLower(node.File)
	switch kind {
	case EntryRoute:
		return strings.Contains(name, "route") || strings.Contains(file, "route")
	case EntryHandler:
		return strings.Contains(name, "handler")
	case EntryCommand:
		return strings.Contains(name, "command") || strings.Contains(file, "cli")
	default:
		return true
	}
}
