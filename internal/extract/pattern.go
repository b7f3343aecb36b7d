package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// CodeExtensions lists the file extensions indexed by default.
var CodeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py", ".php", ".go", ".rs", ".java"}

// Family selects how class bodies are delimited.
type Family int

const (
	FamilyBrace Family = iota
	FamilyPython
)

// FamilyFor returns the nesting family for a file path.
func FamilyFor(path string) Family {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw":
		return FamilyPython
	default:
		return FamilyBrace
	}
}

// LanguageFor names the language of a file by extension.
func LanguageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".py", ".pyw":
		return "python"
	case ".php":
		return "php"
	case ".go":
		return "go"
	case ".rs":
		return "rust"
	case ".java":
		return "java"
	default:
		return "unknown"
	}
}

// PatternExtractor extracts symbols with ordered line-oriented patterns.
type PatternExtractor struct {
	extensions []string
}

// NewPatternExtractor creates an extractor for the given extensions.
// A nil list selects CodeExtensions.
func NewPatternExtractor(extensions []string) *PatternExtractor {
	if extensions == nil {
		extensions = CodeExtensions
	}
	return &PatternExtractor{extensions: extensions}
}

func (p *PatternExtractor) Language() string {
	return "pattern"
}

func (p *PatternExtractor) Extensions() []string {
	return p.extensions
}

// Extract runs the symbol, class and call-graph passes over one file.
// Content that is not valid UTF-8 yields an empty result.
func (p *PatternExtractor) Extract(path string, content []byte) (*FileResult, error) {
	result := &FileResult{
		Path:     path,
		Language: LanguageFor(path),
	}
	if !utf8.Valid(content) {
		return result, nil
	}

	code := string(content)
	result.Functions = ExtractFunctions(code, path)
	result.Classes = ExtractClasses(code, path)
	result.Calls = BuildCallMap(code, path, result.Functions, result.Classes)
	return result, nil
}

// ExtractFunctions returns one entry per line on which a function rule matches.
func ExtractFunctions(code, path string) []SymbolEntry {
	entries := make([]SymbolEntry, 0)
	for i, line := range splitLines(code) {
		m, ok := firstMatch(functionRules, line)
		if !ok {
			continue
		}
		entries = append(entries, SymbolEntry{
			Name:       m.Name,
			File:       path,
			Line:       i + 1,
			Params:     m.Params,
			ReturnType: m.ReturnType,
		})
	}
	return entries
}

// ExtractClasses finds class headers and the methods inside their bodies.
func ExtractClasses(code, path string) []ClassEntry {
	lines := splitLines(code)
	if FamilyFor(path) == FamilyPython {
		return extractPythonClasses(lines, path)
	}
	return extractBraceClasses(lines, path)
}

func extractBraceClasses(lines []string, path string) []ClassEntry {
	classes := make([]ClassEntry, 0)

	for i := 0; i < len(lines); i++ {
		header := braceClassHeader.FindStringSubmatch(lines[i])
		if header == nil {
			continue
		}

		class := ClassEntry{
			Name:       header[1],
			File:       path,
			Line:       i + 1,
			Extends:    header[2],
			Implements: splitNames(header[3]),
		}

		end := braceBlockEnd(lines, i)
		for j := i + 1; j <= end && j < len(lines); j++ {
			m, ok := firstMatch(braceMethodRules, lines[j])
			if !ok {
				continue
			}
			class.Methods = append(class.Methods, MethodEntry{
				Name:       m.Name,
				Line:       j + 1,
				Params:     m.Params,
				ReturnType: m.ReturnType,
			})
		}

		classes = append(classes, class)
		i = end
	}

	return classes
}

// braceBlockEnd returns the line on which the block opened at start closes.
// Braces inside strings and comments are counted too. An unclosed block
// runs to the last line.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
	}
	return len(lines) - 1
}

func extractPythonClasses(lines []string, path string) []ClassEntry {
	classes := make([]ClassEntry, 0)

	for i, line := range lines {
		header := pythonClassHeader.FindStringSubmatch(line)
		if header == nil {
			continue
		}

		class := ClassEntry{
			Name: header[2],
			File: path,
			Line: i + 1,
		}
		if bases := strings.Split(header[3], ","); len(bases) > 0 {
			base := strings.TrimSpace(bases[0])
			if base != "" && !strings.Contains(base, "=") {
				class.Extends = base
			}
		}

		classIndent := indentWidth(header[1])
		for j := i + 1; j < len(lines); j++ {
			next := lines[j]
			if strings.TrimSpace(next) == "" {
				continue
			}
			if indentWidth(next) <= classIndent {
				break
			}
			m, ok := firstMatch(pythonMethodRules, next)
			if !ok {
				continue
			}
			class.Methods = append(class.Methods, MethodEntry{
				Name:       m.Name,
				Line:       j + 1,
				Params:     m.Params,
				ReturnType: m.ReturnType,
			})
		}

		classes = append(classes, class)
	}

	return classes
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func splitLines(code string) []string {
	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
