package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extractor turns the content of one source file into symbols and calls.
type Extractor interface {
	// Language returns the extractor name (e.g., "go", "pattern")
	Language() string

	// Extensions returns file extensions this extractor handles
	Extensions() []string

	// Extract reads symbols, classes and call sets from content
	Extract(path string, content []byte) (*FileResult, error)
}

// Registry maps file extensions to extractors. Later registrations win.
type Registry struct {
	extractors map[string]Extractor // language name -> extractor
	extToLang  map[string]string    // extension -> language name
}

func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[string]Extractor),
		extToLang:  make(map[string]string),
	}
}

// NewDefaultRegistry registers the pattern extractor for extensions and the
// tree-sitter extractor for Go when ".go" is among them.
func NewDefaultRegistry(extensions []string) *Registry {
	if len(extensions) == 0 {
		extensions = CodeExtensions
	}
	r := NewRegistry()
	r.Register(NewPatternExtractor(extensions))
	for _, ext := range extensions {
		if strings.EqualFold(ext, ".go") {
			r.Register(NewGoExtractor())
			break
		}
	}
	return r
}

func (r *Registry) Register(e Extractor) {
	lang := e.Language()
	r.extractors[lang] = e
	for _, ext := range e.Extensions() {
		r.extToLang[strings.ToLower(ext)] = lang
	}
}

// ForFile returns the extractor responsible for filename.
func (r *Registry) ForFile(filename string) (Extractor, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	e, ok := r.extractors[lang]
	return e, ok
}

// Supports reports whether some extractor handles filename.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.ForFile(filename)
	return ok
}

// Extract runs the extractor responsible for relPath over content.
func (r *Registry) Extract(relPath string, content []byte) (*FileResult, error) {
	e, ok := r.ForFile(relPath)
	if !ok {
		return nil, fmt.Errorf("no extractor for %s", relPath)
	}
	result, err := e.Extract(relPath, content)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %s: %w", relPath, err)
	}
	return result, nil
}
