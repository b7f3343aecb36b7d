package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/flowdex/internal/fileutil"
	"github.com/morozRed/flowdex/internal/indexer"
)

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	result, err := svc.Init(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, result)
	}

	fmt.Fprintf(out, "Initialized memory directory at %s\n", result.Dir)
	if len(result.Created) > 0 {
		names := make([]string, 0, len(result.Created))
		for _, kind := range result.Created {
			names = append(names, kind.FileName())
		}
		fmt.Fprintf(out, "created: %s\n", strings.Join(names, ", "))
	}
	if result.Index != nil {
		printReport(out, result.Index)
	}
	return nil
}

func (a *app) runIndex(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	force, err := OptionalBoolFlag(cmd, "force", false)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	opts := indexer.Options{Force: force}
	if len(args) > 0 {
		opts.Path = args[0]
	}

	report, err := svc.Index(cmd.Context(), opts)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(cmd.OutOrStdout(), report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func printReport(out io.Writer, report *indexer.Report) {
	mode := "incremental"
	if report.Force {
		mode = "force"
	}
	fmt.Fprintf(out, "index (%s): %d files found, %d indexed, %d skipped, %d failed, %d removed in %dms\n",
		mode, report.FilesFound, report.FilesIndexed, report.FilesSkipped, report.FilesFailed,
		len(report.FilesRemoved), report.DurationMs)
	fmt.Fprintf(out, "functions: %d new, %d total\n", report.Functions, report.TotalSymbols)
	fmt.Fprintf(out, "graph: %d nodes, %d edges, %d entry points\n", report.Nodes, report.Edges, report.EntryPoints)
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	report, err := svc.Status(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if asJSON {
		return fileutil.PrintJSON(out, report)
	}

	if !report.Initialized {
		fmt.Fprintln(out, "not initialized; run `flowdex init`")
		return nil
	}
	fmt.Fprintf(out, "tracked files: %d", report.Tracked)
	if report.UpdatedAt != "" {
		fmt.Fprintf(out, " (last run %s)", report.UpdatedAt)
	}
	fmt.Fprintln(out)
	if !report.Stale() {
		fmt.Fprintln(out, "index is up to date")
		return nil
	}
	printFileList(out, "changed", report.Changed)
	printFileList(out, "deleted", report.Deleted)
	printFileList(out, "unindexed", report.Unindexed)
	fmt.Fprintln(out, "run `flowdex index --force` to refresh")
	return nil
}

func printFileList(out io.Writer, label string, files []string) {
	if len(files) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d)\n", label, len(files))
	for _, file := range files {
		fmt.Fprintf(out, "- %s\n", file)
	}
}
