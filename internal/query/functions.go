package query

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/morozRed/flowdex/internal/extract"
)

// FunctionsRequest searches the symbol table. Query is a case-insensitive
// regular expression, used literally when it does not compile. File is a
// path substring. With neither set every entry is returned.
type FunctionsRequest struct {
	Query string
	File  string
}

type FunctionsResult struct {
	Functions []extract.SymbolEntry `json:"functions"`
	Files     int                   `json:"files"`
}

type Duplicate struct {
	Candidate extract.SymbolEntry   `json:"candidate"`
	Matches   []extract.SymbolEntry `json:"matches"`
}

type DuplicateResult struct {
	Checked    int         `json:"checked"`
	Duplicates []Duplicate `json:"duplicates"`
}

// InputPath names snippets that are not yet written to a file.
const InputPath = "(input)"

func (e *Engine) Functions(ctx context.Context, req FunctionsRequest) (*FunctionsResult, error) {
	_, span := tracer.Start(ctx, "Engine.Functions",
		trace.WithAttributes(
			attribute.String("query", req.Query),
			attribute.String("file", req.File),
		),
	)
	defer span.End()

	symbols, err := e.source.Symbols()
	if err != nil {
		return nil, err
	}

	var pattern *regexp.Regexp
	if q := strings.TrimSpace(req.Query); q != "" {
		pattern = compileSearch(q)
	}

	result := &FunctionsResult{Functions: make([]extract.SymbolEntry, 0)}
	files := make(map[string]bool)
	for _, entry := range symbols {
		if req.File != "" && !strings.Contains(entry.File, req.File) {
			continue
		}
		if pattern != nil && !matchesEntry(pattern, entry) {
			continue
		}
		result.Functions = append(result.Functions, entry)
		files[entry.File] = true
	}
	result.Files = len(files)
	span.SetAttributes(attribute.Int("results", len(result.Functions)))
	return result, nil
}

// CheckDuplicates extracts the functions declared in code and reports the
// indexed entries each one resembles.
func (e *Engine) CheckDuplicates(ctx context.Context, code, path string) (*DuplicateResult, error) {
	_, span := tracer.Start(ctx, "Engine.CheckDuplicates")
	defer span.End()

	if path == "" {
		path = InputPath
	}
	symbols, err := e.source.Symbols()
	if err != nil {
		return nil, err
	}

	candidates := extract.ExtractFunctions(code, path)
	result := &DuplicateResult{Checked: len(candidates), Duplicates: make([]Duplicate, 0)}
	for _, candidate := range candidates {
		if matches := extract.FindSimilar(candidate, symbols); len(matches) > 0 {
			result.Duplicates = append(result.Duplicates, Duplicate{Candidate: candidate, Matches: matches})
		}
	}
	span.SetAttributes(attribute.Int("duplicates", len(result.Duplicates)))
	return result, nil
}

func compileSearch(q string) *regexp.Regexp {
	if re, err := regexp.Compile("(?i)" + q); err == nil {
		return re
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(q))
}

func matchesEntry(re *regexp.Regexp, entry extract.SymbolEntry) bool {
	return re.MatchString(entry.Name) ||
		re.MatchString(entry.File) ||
		re.MatchString(entry.Params) ||
		re.MatchString(entry.ReturnType)
}
