package memory

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// ArchitectureEntry is one "- dir/ [type] - note" line of ARCHITECTURE.md.
type ArchitectureEntry struct {
	Path  string   `json:"path"`
	Type  string   `json:"type"`
	Notes []string `json:"notes,omitempty"`
}

var architectureLine = regexp.MustCompile(`^-\s+(\S+)\s+\[([^\]]+)\](?:\s+-\s+(.+))?`)

func ParseArchitecture(content string) []ArchitectureEntry {
	entries := make([]ArchitectureEntry, 0)
	for _, line := range strings.Split(content, "\n") {
		m := architectureLine.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		entry := ArchitectureEntry{Path: m[1], Type: m[2]}
		if m[3] != "" {
			for _, note := range strings.Split(m[3], ",") {
				if note = strings.TrimSpace(note); note != "" {
					entry.Notes = append(entry.Notes, note)
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// BuildArchitecture summarizes the directories of files (slash-separated,
// project-relative) with a guessed role per directory.
func BuildArchitecture(files []string) string {
	counts := make(map[string]int)
	for _, file := range files {
		counts[path.Dir(file)]++
	}

	dirs := make([]string, 0, len(counts))
	for dir := range counts {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var b strings.Builder
	b.WriteString("# Project Architecture\n\n## Structure\n\n")
	for _, dir := range dirs {
		fmt.Fprintf(&b, "- %s/ [%s] - %d files\n", dir, ClassifyDir(dir), counts[dir])
	}
	b.WriteString("\n## Patterns\n\n(Add project-specific patterns here)\n")
	return b.String()
}

// ClassifyDir guesses a directory's role from its path.
func ClassifyDir(dir string) string {
	lower := strings.ToLower(dir)
	switch {
	case strings.Contains(lower, "component") || strings.Contains(lower, "ui"):
		return "UI components"
	case strings.Contains(lower, "api") || strings.Contains(lower, "route"):
		return "API routes"
	case strings.Contains(lower, "service"):
		return "Services"
	case strings.Contains(lower, "util") || strings.Contains(lower, "helper"):
		return "Utilities"
	case strings.Contains(lower, "hook"):
		return "React hooks"
	case strings.Contains(lower, "test") || strings.Contains(lower, "spec"):
		return "Tests"
	case strings.Contains(lower, "model") || strings.Contains(lower, "entity"):
		return "Models"
	default:
		return "Source"
	}
}
