package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morozRed/flowdex/internal/cli"
	"github.com/morozRed/flowdex/internal/graph"
	"github.com/morozRed/flowdex/internal/memory"
	"github.com/morozRed/flowdex/internal/query"
)

const serverGo = `package demo

type Server struct {
	addr string
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Serve() error {
	return s.listen()
}

func (s *Server) listen() error {
	return nil
}

func main() {
	NewServer(":8080").Serve()
}
`

func runFlowdex(t *testing.T, args ...string) string {
	t.Helper()
	cmd := cli.NewRootCommand(version)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), errOut.String())
	return out.String()
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func TestIndexGoProjectFromWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte(serverGo), 0644))

	withWorkingDir(t, root, func() {
		runFlowdex(t, "init")
		assert.FileExists(t, filepath.Join(root, memory.Dir, "FUNCTIONS.md"))

		var lookup query.LookupResult
		require.NoError(t, json.Unmarshal([]byte(runFlowdex(t, "symbol", "--kind", "method", "--json")), &lookup))
		names := make([]string, 0, len(lookup.Symbols))
		for _, symbol := range lookup.Symbols {
			names = append(names, symbol.Name)
		}
		assert.ElementsMatch(t, []string{"Server.Serve", "Server.listen"}, names)

		serveID := graph.SymbolID(graph.KindMethod, "Server.Serve", "main.go")
		var flow query.SubgraphResult
		require.NoError(t, json.Unmarshal([]byte(runFlowdex(t, "flow", serveID, "--direction", "out", "--depth", "1", "--json")), &flow))
		assert.Contains(t, flow.Edges, graph.FlowEdge{
			From: serveID,
			To:   graph.SymbolID(graph.KindMethod, "Server.listen", "main.go"),
			Type: graph.EdgeCall,
		})

		functions := runFlowdex(t, "functions", "Serve")
		assert.Contains(t, functions, "main.go Serve(): error")
	})
}

func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "flowdex "+version+"\n", runFlowdex(t, "version"))
}
