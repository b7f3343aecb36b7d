package memory

import (
	"regexp"
	"sort"
	"strings"

	"github.com/morozRed/flowdex/internal/extract"
)

const functionsHeader = "# Functions Index\n\nAuto-generated function signatures with dependencies.\n\n"

var functionLine = regexp.MustCompile(`^F:(\w+)\((.*)\):(.+?)(?:\s+\[L1:([^\]]*)\])?\s*$`)

// ParseFunctions reads the symbol table. Lines that do not follow the entry
// format are skipped.
func ParseFunctions(content string) []extract.SymbolEntry {
	entries := make([]extract.SymbolEntry, 0)
	currentFile := ""

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "## ") {
			currentFile = strings.TrimSpace(line[3:])
			continue
		}
		if currentFile == "" {
			continue
		}

		m := functionLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, extract.SymbolEntry{
			Name:         m[1],
			File:         currentFile,
			Params:       m[2],
			ReturnType:   m[3],
			Dependencies: splitDependencies(m[4]),
		})
	}

	return entries
}

// FormatFunctionEntry renders one entry as F:name(params):returnType [L1:deps].
func FormatFunctionEntry(entry extract.SymbolEntry) string {
	var b strings.Builder
	b.WriteString("F:")
	b.WriteString(entry.Name)
	b.WriteString("(")
	b.WriteString(entry.Params)
	b.WriteString("):")
	b.WriteString(entry.ReturnType)
	if len(entry.Dependencies) > 0 {
		b.WriteString(" [L1:")
		b.WriteString(strings.Join(entry.Dependencies, ","))
		b.WriteString("]")
	}
	return b.String()
}

// FormatFunctions renders the symbol table grouped by file, files sorted by
// path and entries kept in their original order.
func FormatFunctions(entries []extract.SymbolEntry) string {
	byFile := make(map[string][]extract.SymbolEntry)
	for _, entry := range entries {
		byFile[entry.File] = append(byFile[entry.File], entry)
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	var b strings.Builder
	b.WriteString(functionsHeader)
	for _, file := range files {
		b.WriteString("## ")
		b.WriteString(file)
		b.WriteString("\n")
		for _, entry := range byFile[file] {
			b.WriteString(FormatFunctionEntry(entry))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func splitDependencies(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := make([]string, 0)
	for _, dep := range strings.Split(raw, ",") {
		if dep = strings.TrimSpace(dep); dep != "" {
			out = append(out, dep)
		}
	}
	return out
}
