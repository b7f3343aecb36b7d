// Package cli exposes the flowdex service as cobra commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/morozRed/flowdex/internal/config"
	"github.com/morozRed/flowdex/internal/memory"
	"github.com/morozRed/flowdex/internal/service"
)

// app carries the persistent flags and the service built from them.
type app struct {
	root    string
	verbose bool
	svc     *service.Service
}

func (a *app) service(cmd *cobra.Command) (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	root := a.root
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", a.root, err)
	}
	if err := config.LoadDotEnv(root); err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.svc = service.New(root, logger)
	return a.svc, nil
}

func NewRootCommand(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "flowdex",
		Short: "Index source code into a queryable symbol table and flow graph",
		Long: `flowdex extracts functions, classes and calls from a source tree into
a symbol table and a flow graph, then answers bounded queries over them:
symbol lookup, entry-point ranking and call subgraphs.

Documents are written to ` + memory.Dir + `/ and can be version-controlled.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", "Project root (default: working directory)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	// Index Commands
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create " + memory.Dir + "/ with document templates and a default config",
		Args:  cobra.NoArgs,
		RunE:  a.runInit,
	}
	initCmd.Flags().Bool("json", false, "Print machine-readable result")

	indexCmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Extract symbols and rebuild the flow graph",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runIndex,
	}
	indexCmd.Flags().Bool("force", false, "Re-extract files that are already indexed")
	indexCmd.Flags().Bool("json", false, "Print machine-readable run report")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show files changed, deleted or unindexed since the last run",
		Args:  cobra.NoArgs,
		RunE:  a.runStatus,
	}
	statusCmd.Flags().Bool("json", false, "Print machine-readable status")

	// Query Commands
	symbolCmd := &cobra.Command{
		Use:   "symbol [name]",
		Short: "Lookup symbols by id or by name, file and kind",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runSymbol,
	}
	symbolCmd.Flags().StringArray("id", nil, "Symbol id (repeatable)")
	symbolCmd.Flags().String("name", "", "Name substring (case-insensitive)")
	symbolCmd.Flags().String("file", "", "File path substring")
	symbolCmd.Flags().String("kind", "", "Node kind: function|method|class")
	symbolCmd.Flags().Int("limit", -1, "Maximum matches, 0 for no limit (default: query.symbol_limit)")
	symbolCmd.Flags().Bool("json", false, "Print machine-readable matches")

	entryCmd := &cobra.Command{
		Use:   "entrypoints <query>",
		Short: "Rank likely entry points for a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runEntryPoints,
	}
	entryCmd.Flags().String("kind", "", "Entry kind: route|handler|command|all")
	entryCmd.Flags().Bool("json", false, "Print machine-readable matches")

	flowCmd := &cobra.Command{
		Use:   "flow <id>...",
		Short: "Return the bounded call subgraph around seed symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runFlow,
	}
	flowCmd.Flags().Int("depth", -1, "Traversal depth (default: query.depth)")
	flowCmd.Flags().String("direction", "", "Edge direction: in|out|both")
	flowCmd.Flags().Int("max-nodes", 0, "Node cap (default: query.max_nodes)")
	flowCmd.Flags().Int("max-edges", 0, "Edge cap (default: query.max_edges)")
	flowCmd.Flags().Bool("json", false, "Print machine-readable subgraph")

	functionsCmd := &cobra.Command{
		Use:   "functions [query]",
		Short: "Search the symbol table or check code for duplicates",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runFunctions,
	}
	functionsCmd.Flags().String("file", "", "File path substring")
	functionsCmd.Flags().String("check", "", "Check a file (or - for stdin) for functions that already exist")
	functionsCmd.Flags().Bool("json", false, "Print machine-readable results")

	// Memory Commands
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Read and edit memory documents",
	}
	memoryCmd.AddCommand(a.memoryCommands()...)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "flowdex %s\n", version)
		},
	}

	rootCmd.AddCommand(
		initCmd,
		indexCmd,
		statusCmd,
		symbolCmd,
		entryCmd,
		flowCmd,
		functionsCmd,
		memoryCmd,
		versionCmd,
	)

	return rootCmd
}
