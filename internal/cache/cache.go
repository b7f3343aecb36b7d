// Package cache keeps parsed views of the memory documents. A view stays
// valid only while the content hash of its document is unchanged.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/morozRed/flowdex/internal/config"
	"github.com/morozRed/flowdex/internal/extract"
	"github.com/morozRed/flowdex/internal/fileutil"
	"github.com/morozRed/flowdex/internal/graph"
	"github.com/morozRed/flowdex/internal/memory"
)

// Reader loads the raw content of a memory document. Missing documents
// read as nil.
type Reader interface {
	Read(kind memory.Kind) ([]byte, error)
}

// Entry is a parsed view of one document.
type Entry[T any] struct {
	Value    T
	Hash     string
	ParsedAt time.Time
}

type slot[T any] struct {
	mu    sync.Mutex
	kind  memory.Kind
	parse func([]byte) (T, error)
	entry *Entry[T]
}

func newSlot[T any](kind memory.Kind, parse func([]byte) (T, error)) *slot[T] {
	return &slot[T]{kind: kind, parse: parse}
}

func (s *slot[T]) get(c *Cache) (Entry[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := c.reader.Read(s.kind)
	if err != nil {
		var zero Entry[T]
		return zero, err
	}
	hash := fileutil.HashBytes(data)
	if s.entry != nil && s.entry.Hash == hash {
		lookupsTotal.WithLabelValues(string(s.kind), "hit").Inc()
		return *s.entry, nil
	}

	lookupsTotal.WithLabelValues(string(s.kind), "miss").Inc()
	value, err := s.parse(data)
	if err != nil {
		var zero Entry[T]
		return zero, err
	}
	s.entry = &Entry[T]{Value: value, Hash: hash, ParsedAt: c.now()}
	c.logger.Debug("cache reparsed document", "kind", s.kind, "hash", hash[:12])
	return *s.entry, nil
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	s.entry = nil
	s.mu.Unlock()
	invalidationsTotal.WithLabelValues(string(s.kind)).Inc()
}

// Cache holds one entry per document kind. Values returned from it are
// shared and must not be modified by callers.
type Cache struct {
	reader Reader
	logger *slog.Logger
	now    func() time.Time

	symbols      *slot[[]extract.SymbolEntry]
	graph        *slot[*graph.FlowGraph]
	rules        *slot[[]memory.Rule]
	attempts     *slot[[]memory.Attempt]
	discovery    *slot[[]string]
	architecture *slot[[]memory.ArchitectureEntry]
	config       *slot[*config.Config]
}

func New(reader Reader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		reader: reader,
		logger: logger,
		now:    time.Now,

		symbols: newSlot(memory.KindSymbols, func(data []byte) ([]extract.SymbolEntry, error) {
			return memory.ParseFunctions(string(data)), nil
		}),
		graph: newSlot(memory.KindGraph, func(data []byte) (*graph.FlowGraph, error) {
			return graph.Decode(data), nil
		}),
		rules: newSlot(memory.KindRules, func(data []byte) ([]memory.Rule, error) {
			return memory.ParseRules(string(data)), nil
		}),
		attempts: newSlot(memory.KindAttempts, func(data []byte) ([]memory.Attempt, error) {
			return memory.ParseAttempts(string(data)), nil
		}),
		discovery: newSlot(memory.KindDiscovery, func(data []byte) ([]string, error) {
			return memory.ParseDiscovery(string(data)), nil
		}),
		architecture: newSlot(memory.KindArchitecture, func(data []byte) ([]memory.ArchitectureEntry, error) {
			return memory.ParseArchitecture(string(data)), nil
		}),
		config: newSlot(memory.KindConfig, config.Parse),
	}
}

func (c *Cache) Symbols() ([]extract.SymbolEntry, error) {
	entry, err := c.symbols.get(c)
	return entry.Value, err
}

// SymbolsEntry returns the symbol table together with its hash and parse time.
func (c *Cache) SymbolsEntry() (Entry[[]extract.SymbolEntry], error) {
	return c.symbols.get(c)
}

// Graph never returns nil; a missing or malformed document yields an empty graph.
func (c *Cache) Graph() (*graph.FlowGraph, error) {
	entry, err := c.graph.get(c)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (c *Cache) Rules() ([]memory.Rule, error) {
	entry, err := c.rules.get(c)
	return entry.Value, err
}

func (c *Cache) Attempts() ([]memory.Attempt, error) {
	entry, err := c.attempts.get(c)
	return entry.Value, err
}

func (c *Cache) Discovery() ([]string, error) {
	entry, err := c.discovery.get(c)
	return entry.Value, err
}

func (c *Cache) Architecture() ([]memory.ArchitectureEntry, error) {
	entry, err := c.architecture.get(c)
	return entry.Value, err
}

func (c *Cache) Config() (*config.Config, error) {
	entry, err := c.config.get(c)
	if err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// Invalidate drops the entry for kind. Unknown kinds are ignored.
func (c *Cache) Invalidate(kind memory.Kind) {
	switch kind {
	case memory.KindSymbols:
		c.symbols.reset()
	case memory.KindGraph:
		c.graph.reset()
	case memory.KindRules:
		c.rules.reset()
	case memory.KindAttempts:
		c.attempts.reset()
	case memory.KindDiscovery:
		c.discovery.reset()
	case memory.KindArchitecture:
		c.architecture.reset()
	case memory.KindConfig:
		c.config.reset()
	default:
		return
	}
	c.logger.Debug("cache invalidated", "kind", kind)
}

func (c *Cache) InvalidateSymbols()      { c.Invalidate(memory.KindSymbols) }
func (c *Cache) InvalidateGraph()        { c.Invalidate(memory.KindGraph) }
func (c *Cache) InvalidateRules()        { c.Invalidate(memory.KindRules) }
func (c *Cache) InvalidateAttempts()     { c.Invalidate(memory.KindAttempts) }
func (c *Cache) InvalidateDiscovery()    { c.Invalidate(memory.KindDiscovery) }
func (c *Cache) InvalidateArchitecture() { c.Invalidate(memory.KindArchitecture) }
func (c *Cache) InvalidateConfig()       { c.Invalidate(memory.KindConfig) }

// Clear drops every entry.
func (c *Cache) Clear() {
	for _, kind := range memory.Kinds() {
		c.Invalidate(kind)
	}
}
