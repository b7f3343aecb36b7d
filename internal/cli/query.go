package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/flowdex/internal/fileutil"
	"github.com/morozRed/flowdex/internal/graph"
	"github.com/morozRed/flowdex/internal/query"
)

const notIndexedHint = "index is empty; run `flowdex index`"

func (a *app) runSymbol(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	ids, err := OptionalStringArrayFlag(cmd, "id")
	if err != nil {
		return err
	}
	name, err := OptionalStringFlag(cmd, "name")
	if err != nil {
		return err
	}
	file, err := OptionalStringFlag(cmd, "file")
	if err != nil {
		return err
	}
	rawKind, err := OptionalStringFlag(cmd, "kind")
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", -1)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	kind, err := query.ParseKind(rawKind)
	if err != nil {
		return err
	}
	if name == "" && len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	result, err := svc.Symbols(cmd.Context(), query.LookupRequest{
		IDs:   ids,
		Name:  name,
		File:  file,
		Kind:  kind,
		Limit: limit,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, result)
	}
	if result.NotIndexed {
		fmt.Fprintln(out, notIndexedHint)
		return nil
	}

	fmt.Fprintf(out, "symbols (%d)\n", len(result.Symbols))
	for _, symbol := range result.Symbols {
		printNode(out, &symbol.SymbolNode)
		fmt.Fprintln(out)
	}
	for _, id := range result.Missing {
		fmt.Fprintf(out, "missing: %s\n", id)
	}
	return nil
}

func (a *app) runEntryPoints(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	rawKind, err := OptionalStringFlag(cmd, "kind")
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	kind, err := query.ParseEntryKind(rawKind)
	if err != nil {
		return err
	}

	result, err := svc.EntryPoints(cmd.Context(), strings.Join(args, " "), kind)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, result)
	}
	if result.NotIndexed {
		fmt.Fprintln(out, notIndexedHint)
		return nil
	}

	fmt.Fprintf(out, "entry points for %q (%d)\n", result.Query, len(result.Matches))
	if len(result.Matches) == 0 {
		fmt.Fprintln(out, "no entry points found")
		return nil
	}
	for _, match := range result.Matches {
		printNode(out, &match.SymbolNode)
		fmt.Fprintf(out, " score=%d\n", match.Score)
	}
	return nil
}

func (a *app) runFlow(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	depth, err := OptionalIntFlag(cmd, "depth", -1)
	if err != nil {
		return err
	}
	rawDirection, err := OptionalStringFlag(cmd, "direction")
	if err != nil {
		return err
	}
	maxNodes, err := OptionalIntFlag(cmd, "max-nodes", 0)
	if err != nil {
		return err
	}
	maxEdges, err := OptionalIntFlag(cmd, "max-edges", 0)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	direction, err := query.ParseDirection(rawDirection)
	if err != nil {
		return err
	}

	result, err := svc.Flow(cmd.Context(), query.SubgraphRequest{
		IDs:       args,
		Depth:     depth,
		Direction: direction,
		MaxNodes:  maxNodes,
		MaxEdges:  maxEdges,
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, result)
	}
	if result.NotIndexed {
		fmt.Fprintln(out, notIndexedHint)
		return nil
	}

	fmt.Fprintf(out, "nodes (%d)\n", len(result.Nodes))
	for i := range result.Nodes {
		printNode(out, &result.Nodes[i])
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "edges (%d)\n", len(result.Edges))
	for _, edge := range result.Edges {
		fmt.Fprintf(out, "- %s -> %s [%s]\n", edge.From, edge.To, edge.Type)
	}
	for _, id := range result.Missing {
		fmt.Fprintf(out, "missing: %s\n", id)
	}
	if result.Truncated {
		fmt.Fprintln(out, "(truncated; raise --max-nodes or --max-edges for more)")
	}
	return nil
}

func (a *app) runFunctions(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	file, err := OptionalStringFlag(cmd, "file")
	if err != nil {
		return err
	}
	check, err := OptionalStringFlag(cmd, "check")
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if check != "" {
		code, path, err := readCheckInput(cmd, check)
		if err != nil {
			return err
		}
		result, err := svc.CheckDuplicates(cmd.Context(), code, path)
		if err != nil {
			return err
		}
		if asJSON {
			return fileutil.PrintJSON(out, result)
		}
		fmt.Fprintf(out, "checked %d functions, %d possible duplicates\n", result.Checked, len(result.Duplicates))
		for _, dup := range result.Duplicates {
			fmt.Fprintf(out, "%s(%s): %s\n", dup.Candidate.Name, dup.Candidate.Params, dup.Candidate.ReturnType)
			for _, match := range dup.Matches {
				fmt.Fprintf(out, "  - %s:%s(%s): %s\n", match.File, match.Name, match.Params, match.ReturnType)
			}
		}
		return nil
	}

	req := query.FunctionsRequest{File: file}
	if len(args) > 0 {
		req.Query = args[0]
	}
	result, err := svc.Functions(cmd.Context(), req)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(out, result)
	}
	fmt.Fprintf(out, "functions (%d in %d files)\n", len(result.Functions), result.Files)
	for _, fn := range result.Functions {
		fmt.Fprintf(out, "- %s %s(%s): %s\n", fn.File, fn.Name, fn.Params, fn.ReturnType)
	}
	return nil
}

func readCheckInput(cmd *cobra.Command, source string) (string, string, error) {
	if source == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), query.InputPath, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", source, err)
	}
	return string(data), source, nil
}

func printNode(out io.Writer, node *graph.SymbolNode) {
	fmt.Fprintf(out, "- %s [%s] %s:%d %s", node.ID, node.Kind, node.File, node.Line, node.Signature)
}
