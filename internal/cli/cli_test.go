package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/flowdex/internal/graph"
	"github.com/morozRed/flowdex/internal/indexer"
	"github.com/morozRed/flowdex/internal/memory"
	"github.com/morozRed/flowdex/internal/query"
)

const appJS = `function main() {
  return startServer();
}

function startServer() {
  return listen();
}

function listen() {
  return 0;
}
`

func newProjectDir(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "src", "app.js"), appJS)
	return root
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func execute(t *testing.T, root, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--root", root}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, root string, args ...string) string {
	t.Helper()
	out, err := execute(t, root, "", args...)
	require.NoError(t, err, "flowdex %s", strings.Join(args, " "))
	return out
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var value T
	require.NoError(t, json.Unmarshal([]byte(out), &value), out)
	return value
}

func TestInitIndexQueryFlow(t *testing.T) {
	root := newProjectDir(t)
	mainID := graph.SymbolID(graph.KindFunction, "main", "src/app.js")

	out := mustExecute(t, root, "init")
	assert.Contains(t, out, "Initialized memory directory at")
	assert.Contains(t, out, "graph: 3 nodes, 2 edges")
	assert.FileExists(t, filepath.Join(root, memory.Dir, "FLOW_GRAPH.json"))
	assert.FileExists(t, filepath.Join(root, memory.Dir, "config.yaml"))

	report := decode[indexer.Report](t, mustExecute(t, root, "index", "--json"))
	assert.Equal(t, 1, report.FilesSkipped)
	assert.Equal(t, 0, report.FilesIndexed)

	report = decode[indexer.Report](t, mustExecute(t, root, "index", "--force", "--json"))
	assert.Equal(t, 1, report.FilesIndexed)
	assert.Equal(t, 3, report.Nodes)

	lookup := decode[query.LookupResult](t, mustExecute(t, root, "symbol", "main", "--json"))
	require.Len(t, lookup.Symbols, 1)
	assert.Equal(t, mainID, lookup.Symbols[0].ID)

	out = mustExecute(t, root, "symbol", "--id", mainID, "--id", "fmissing0")
	assert.Contains(t, out, "symbols (1)")
	assert.Contains(t, out, "missing: fmissing0")

	entries := decode[query.EntryPointResult](t, mustExecute(t, root, "entrypoints", "main", "--json"))
	require.NotEmpty(t, entries.Matches)
	assert.Equal(t, mainID, entries.Matches[0].ID)

	flow := decode[query.SubgraphResult](t, mustExecute(t, root, "flow", mainID, "--direction", "out", "--depth", "1", "--json"))
	assert.Len(t, flow.Nodes, 2)
	assert.Len(t, flow.Edges, 1)

	out = mustExecute(t, root, "flow", mainID, "--direction", "out")
	assert.Contains(t, out, "nodes (3)")
	assert.Contains(t, out, "edges (2)")

	out = mustExecute(t, root, "status")
	assert.Contains(t, out, "index is up to date")
}

func TestQueriesBeforeIndex(t *testing.T) {
	root := newProjectDir(t)

	out := mustExecute(t, root, "symbol", "main")
	assert.Contains(t, out, "index is empty")

	out = mustExecute(t, root, "status")
	assert.Contains(t, out, "not initialized")
}

func TestInvalidArguments(t *testing.T) {
	root := newProjectDir(t)

	_, err := execute(t, root, "", "flow", "fabc", "--direction", "sideways")
	assert.ErrorIs(t, err, query.ErrInvalidArgument)

	_, err = execute(t, root, "", "symbol", "--kind", "widget")
	assert.ErrorIs(t, err, query.ErrInvalidArgument)

	_, err = execute(t, root, "", "entrypoints", "main", "--kind", "job")
	assert.ErrorIs(t, err, query.ErrInvalidArgument)

	_, err = execute(t, root, "", "memory", "read", "notes")
	assert.ErrorIs(t, err, memory.ErrUnknownDocument)
}

func TestFunctionsSearchAndCheck(t *testing.T) {
	root := newProjectDir(t)
	mustExecute(t, root, "index")

	out := mustExecute(t, root, "functions", "listen|start")
	assert.Contains(t, out, "functions (2 in 1 files)")

	dups, err := execute(t, root, "function listen() {\n  return 1;\n}\n", "functions", "--check", "-", "--json")
	require.NoError(t, err)
	result := decode[query.DuplicateResult](t, dups)
	assert.Equal(t, 1, result.Checked)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, query.InputPath, result.Duplicates[0].Candidate.File)
}

func TestMemoryCommands(t *testing.T) {
	root := newProjectDir(t)
	mustExecute(t, root, "init")

	rules := "# Project Rules\n\n### [R1] No console\nPattern: `console\\.log`\nAction: BLOCK\n"
	out, err := execute(t, root, rules, "memory", "write", "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote RULES.md")

	out = mustExecute(t, root, "memory", "read", "RULES.md")
	assert.Equal(t, rules, out)

	parsed := decode[[]memory.Rule](t, mustExecute(t, root, "memory", "show", "rules"))
	require.Len(t, parsed, 1)
	assert.Equal(t, "R1", parsed[0].ID)

	mustExecute(t, root, "memory", "append", "discovery", "- [x] docs")
	dirs := decode[[]string](t, mustExecute(t, root, "memory", "show", "discovery"))
	assert.Contains(t, dirs, "docs")
	assert.Contains(t, dirs, "src")

	_, err = execute(t, root, "", "memory", "append", "graph", "{}")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out := mustExecute(t, t.TempDir(), "version")
	assert.Equal(t, "flowdex test\n", out)
}
