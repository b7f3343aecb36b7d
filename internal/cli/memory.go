package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/morozRed/flowdex/internal/fileutil"
	"github.com/morozRed/flowdex/internal/memory"
)

func documentNames() string {
	names := make([]string, 0)
	for _, kind := range memory.Kinds() {
		names = append(names, string(kind))
	}
	return strings.Join(names, "|")
}

func (a *app) memoryCommands() []*cobra.Command {
	docs := documentNames()

	readCmd := &cobra.Command{
		Use:   "read <" + docs + ">",
		Short: "Print the raw content of a document",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runMemoryRead,
	}

	writeCmd := &cobra.Command{
		Use:   "write <" + docs + ">",
		Short: "Replace a document with --from FILE or stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runMemoryWrite,
	}
	writeCmd.Flags().String("from", "", "Read the new content from FILE instead of stdin")

	appendCmd := &cobra.Command{
		Use:   "append <" + docs + "> [text...]",
		Short: "Append text (or stdin) to a document",
		Args:  cobra.MinimumNArgs(1),
		RunE:  a.runMemoryAppend,
	}

	showCmd := &cobra.Command{
		Use:   "show <" + docs + ">",
		Short: "Print the parsed view of a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runMemoryShow,
	}

	return []*cobra.Command{readCmd, writeCmd, appendCmd, showCmd}
}

func (a *app) runMemoryRead(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	kind, err := memory.ParseKind(args[0])
	if err != nil {
		return err
	}
	data, err := svc.ReadDocument(kind)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func (a *app) runMemoryWrite(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	kind, err := memory.ParseKind(args[0])
	if err != nil {
		return err
	}
	from, err := OptionalStringFlag(cmd, "from")
	if err != nil {
		return err
	}

	var data []byte
	if from != "" {
		data, err = os.ReadFile(from)
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read new content: %w", err)
	}
	if err := svc.WriteDocument(kind, data); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", kind.FileName(), len(data))
	return nil
}

func (a *app) runMemoryAppend(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	kind, err := memory.ParseKind(args[0])
	if err != nil {
		return err
	}

	var text string
	if len(args) > 1 {
		text = strings.Join(args[1:], " ")
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to append to %s", kind.FileName())
	}
	if err := svc.AppendDocument(kind, []byte(fileutil.EnsureTrailingNewline(text))); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "appended to %s\n", kind.FileName())
	return nil
}

func (a *app) runMemoryShow(cmd *cobra.Command, args []string) error {
	svc, err := a.service(cmd)
	if err != nil {
		return err
	}
	kind, err := memory.ParseKind(args[0])
	if err != nil {
		return err
	}
	view, err := svc.ShowDocument(kind)
	if err != nil {
		return err
	}
	return fileutil.PrintJSON(cmd.OutOrStdout(), view)
}
