package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/flowdex/internal/config"
	"github.com/morozRed/flowdex/internal/graph"
	"github.com/morozRed/flowdex/internal/indexer"
	"github.com/morozRed/flowdex/internal/memory"
	"github.com/morozRed/flowdex/internal/query"
)

const serverJS = `function main() {
  return handleRequest();
}

function handleRequest() {
  return render();
}

function render() {
  return 1;
}
`

func newProject(t *testing.T, files map[string]string) *Service {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return New(root, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func mainID() string {
	return graph.SymbolID(graph.KindFunction, "main", "src/server.js")
}

func TestInitSeedsDocumentsAndIndexes(t *testing.T) {
	svc := newProject(t, map[string]string{"src/server.js": serverJS})

	result, err := svc.Init(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Created, memory.KindRules)
	assert.Contains(t, result.Created, memory.KindConfig)
	require.NotNil(t, result.Index)
	assert.Equal(t, 1, result.Index.FilesIndexed)

	data, err := svc.ReadDocument(memory.KindConfig)
	require.NoError(t, err)
	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Query, cfg.Query)

	// A second init keeps the existing documents.
	again, err := svc.Init(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Created)
}

func TestInitWithoutAutoIndex(t *testing.T) {
	svc := newProject(t, map[string]string{
		"src/server.js":        serverJS,
		".flowdex/config.yaml": "auto_index: false\n",
	})

	result, err := svc.Init(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Index)
	assert.NotContains(t, result.Created, memory.KindConfig)

	lookup, err := svc.Symbols(context.Background(), query.LookupRequest{Name: "main", Limit: -1})
	require.NoError(t, err)
	assert.True(t, lookup.NotIndexed)
}

func TestQueriesAfterIndex(t *testing.T) {
	svc := newProject(t, map[string]string{"src/server.js": serverJS})
	ctx := context.Background()

	_, err := svc.Index(ctx, indexer.Options{})
	require.NoError(t, err)

	lookup, err := svc.Symbols(ctx, query.LookupRequest{IDs: []string{mainID()}})
	require.NoError(t, err)
	require.Len(t, lookup.Symbols, 1)
	assert.Equal(t, "main", lookup.Symbols[0].Name)

	entries, err := svc.EntryPoints(ctx, "main", query.EntryAll)
	require.NoError(t, err)
	require.NotEmpty(t, entries.Matches)
	assert.Equal(t, mainID(), entries.Matches[0].ID)

	flow, err := svc.Flow(ctx, query.SubgraphRequest{IDs: []string{mainID()}, Depth: -1, Direction: query.DirectionOut})
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 3)
	assert.Len(t, flow.Edges, 2)

	found, err := svc.Functions(ctx, query.FunctionsRequest{Query: "^render$"})
	require.NoError(t, err)
	require.Len(t, found.Functions, 1)
	assert.Equal(t, "src/server.js", found.Functions[0].File)

	dups, err := svc.CheckDuplicates(ctx, "function render() {\n  return 2;\n}\n", "")
	require.NoError(t, err)
	assert.Len(t, dups.Duplicates, 1)
}

func TestFlowAndSymbolsUseConfiguredBounds(t *testing.T) {
	svc := newProject(t, map[string]string{
		"src/server.js":        serverJS,
		".flowdex/config.yaml": "query:\n  depth: 0\n  symbol_limit: 1\n",
	})
	ctx := context.Background()
	_, err := svc.Index(ctx, indexer.Options{})
	require.NoError(t, err)

	flow, err := svc.Flow(ctx, query.SubgraphRequest{IDs: []string{mainID()}, Depth: -1})
	require.NoError(t, err)
	assert.Len(t, flow.Nodes, 1)
	assert.Empty(t, flow.Edges)

	lookup, err := svc.Symbols(ctx, query.LookupRequest{File: "server", Limit: -1})
	require.NoError(t, err)
	assert.Len(t, lookup.Symbols, 1)

	lookup, err = svc.Symbols(ctx, query.LookupRequest{File: "server"})
	require.NoError(t, err)
	assert.Len(t, lookup.Symbols, 3)
}

func TestWriteDocumentRefreshesParsedView(t *testing.T) {
	svc := newProject(t, nil)
	_, err := svc.Init(context.Background())
	require.NoError(t, err)

	rules := "# Project Rules\n\n### [R1] No console\nPattern: `console\\.log`\nAction: BLOCK\n"
	require.NoError(t, svc.WriteDocument(memory.KindRules, []byte(rules)))

	view, err := svc.ShowDocument(memory.KindRules)
	require.NoError(t, err)
	parsed, ok := view.([]memory.Rule)
	require.True(t, ok)
	require.Len(t, parsed, 1)
	assert.Equal(t, "BLOCK", parsed[0].Action)

	attempt := memory.FormatAttempt(memory.Attempt{Timestamp: "2026-01-02T03:04:05Z", Command: "npm test", Error: "exit 1"})
	require.NoError(t, svc.AppendDocument(memory.KindAttempts, []byte(attempt)))
	view, err = svc.ShowDocument(memory.KindAttempts)
	require.NoError(t, err)
	assert.Len(t, view, 1)
}

func TestWriteDocumentRejectsInvalidConfig(t *testing.T) {
	svc := newProject(t, nil)

	err := svc.WriteDocument(memory.KindConfig, []byte("query: [unclosed"))
	require.Error(t, err)

	data, err := svc.ReadDocument(memory.KindConfig)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestAppendDocumentRejectsStructuredKinds(t *testing.T) {
	svc := newProject(t, nil)

	assert.Error(t, svc.AppendDocument(memory.KindGraph, []byte("{}")))
	assert.Error(t, svc.AppendDocument(memory.KindConfig, []byte("a: 1")))
}

func TestShowDocumentUnknownKind(t *testing.T) {
	svc := newProject(t, nil)

	_, err := svc.ShowDocument(memory.Kind("nope"))
	assert.ErrorIs(t, err, memory.ErrUnknownDocument)
}
