// Package memory reads and writes the project memory documents kept under
// the .flowdex directory: the symbol table, the flow graph and the
// auxiliary rule, attempt, discovery, architecture and config documents.
package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/flowdex/internal/fileutil"
)

// Dir is the memory directory relative to the project root.
const Dir = ".flowdex"

// Kind names one memory document.
type Kind string

const (
	KindSymbols      Kind = "symbols"
	KindGraph        Kind = "graph"
	KindRules        Kind = "rules"
	KindAttempts     Kind = "attempts"
	KindDiscovery    Kind = "discovery"
	KindArchitecture Kind = "architecture"
	KindConfig       Kind = "config"
)

var ErrUnknownDocument = errors.New("unknown memory document")

var documentFiles = map[Kind]string{
	KindSymbols:      "FUNCTIONS.md",
	KindGraph:        "FLOW_GRAPH.json",
	KindRules:        "RULES.md",
	KindAttempts:     "ATTEMPTS.md",
	KindDiscovery:    "DISCOVERY.md",
	KindArchitecture: "ARCHITECTURE.md",
	KindConfig:       "config.yaml",
}

// Kinds returns every document kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(documentFiles))
	for kind := range documentFiles {
		out = append(out, kind)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// FileName returns the document's file name inside Dir.
func (k Kind) FileName() string {
	return documentFiles[k]
}

// ParseKind accepts a kind name ("rules") or a file name ("RULES.md").
func ParseKind(raw string) (Kind, error) {
	raw = strings.TrimSpace(raw)
	for kind, file := range documentFiles {
		if strings.EqualFold(raw, string(kind)) || strings.EqualFold(raw, file) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDocument, raw)
}

// Store resolves documents against a project root. Missing documents read
// as empty content.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) Dir() string {
	return filepath.Join(s.root, Dir)
}

func (s *Store) Path(kind Kind) string {
	return filepath.Join(s.Dir(), kind.FileName())
}

// Exists reports whether the memory directory has been created.
func (s *Store) Exists() bool {
	info, err := os.Stat(s.Dir())
	return err == nil && info.IsDir()
}

func (s *Store) Read(kind Kind) ([]byte, error) {
	if kind.FileName() == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocument, kind)
	}
	data, err := os.ReadFile(s.Path(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", kind.FileName(), err)
	}
	return data, nil
}

// Write replaces a document atomically. It reports whether the content
// on disk changed.
func (s *Store) Write(kind Kind, data []byte) (bool, error) {
	if kind.FileName() == "" {
		return false, fmt.Errorf("%w: %q", ErrUnknownDocument, kind)
	}
	changed, err := fileutil.WriteIfChangedTracked(s.Path(kind), data)
	if err != nil {
		return false, fmt.Errorf("failed to write %s: %w", kind.FileName(), err)
	}
	return changed, nil
}

// Append adds data to the end of a document, starting it on a new line.
func (s *Store) Append(kind Kind, data []byte) error {
	existing, err := s.Read(kind)
	if err != nil {
		return err
	}
	content := fileutil.EnsureTrailingNewline(string(existing)) + string(data)
	_, err = s.Write(kind, []byte(content))
	return err
}

// Init creates the memory directory and seeds missing documents with their
// templates. It returns the kinds that were created.
func (s *Store) Init() ([]Kind, error) {
	if err := os.MkdirAll(s.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", s.Dir(), err)
	}

	created := make([]Kind, 0)
	for _, kind := range Kinds() {
		template, ok := templates[kind]
		if !ok {
			continue
		}
		path := s.Path(kind)
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := fileutil.WriteIfMissing(path, []byte(template), 0644); err != nil {
			return created, err
		}
		created = append(created, kind)
	}
	return created, nil
}
