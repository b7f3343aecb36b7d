// Package service owns the per-process state of a flowdex project: the
// memory store, the document cache, the query engine and the indexer.
// Every read goes through the cache and every write invalidates it.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/morozRed/flowdex/internal/cache"
	"github.com/morozRed/flowdex/internal/config"
	"github.com/morozRed/flowdex/internal/extract"
	"github.com/morozRed/flowdex/internal/indexer"
	"github.com/morozRed/flowdex/internal/memory"
	"github.com/morozRed/flowdex/internal/query"
)

type Service struct {
	store  *memory.Store
	cache  *cache.Cache
	engine *query.Engine
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	store := memory.NewStore(root)
	c := cache.New(store, logger)
	return &Service{
		store:  store,
		cache:  c,
		engine: query.NewEngine(c),
		logger: logger,
	}
}

func (s *Service) Root() string {
	return s.store.Root()
}

func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Config returns the project configuration. A missing config document
// yields the defaults with environment overrides applied.
func (s *Service) Config() (*config.Config, error) {
	return s.cache.Config()
}

func (s *Service) indexer() (*indexer.Indexer, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	registry := extract.NewDefaultRegistry(cfg.Index.Extensions)
	return indexer.New(s.store, s.cache, registry, cfg, s.logger), nil
}

type InitResult struct {
	Dir     string          `json:"dir"`
	Created []memory.Kind   `json:"created"`
	Index   *indexer.Report `json:"index,omitempty"`
}

// Init creates the memory directory, seeds missing documents and writes
// the default config. With auto_index enabled it also runs a first index.
func (s *Service) Init(ctx context.Context) (*InitResult, error) {
	created, err := s.store.Init()
	if err != nil {
		return nil, err
	}
	result := &InitResult{Dir: s.store.Dir(), Created: created}

	if _, err := os.Stat(s.store.Path(memory.KindConfig)); os.IsNotExist(err) {
		cfg, err := s.Config()
		if err != nil {
			return nil, err
		}
		data, err := config.Encode(cfg)
		if err != nil {
			return nil, err
		}
		if err := s.WriteDocument(memory.KindConfig, data); err != nil {
			return nil, err
		}
		result.Created = append(result.Created, memory.KindConfig)
	}

	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if cfg.AutoIndex {
		report, err := s.Index(ctx, indexer.Options{})
		if err != nil {
			return nil, fmt.Errorf("failed to run initial index: %w", err)
		}
		result.Index = report
	}
	return result, nil
}

func (s *Service) Index(ctx context.Context, opts indexer.Options) (*indexer.Report, error) {
	ix, err := s.indexer()
	if err != nil {
		return nil, err
	}
	return ix.Run(ctx, opts)
}

func (s *Service) Status(ctx context.Context) (*indexer.StatusReport, error) {
	ix, err := s.indexer()
	if err != nil {
		return nil, err
	}
	return ix.Status(ctx)
}

// Symbols looks up symbols. A negative limit takes the configured default.
func (s *Service) Symbols(ctx context.Context, req query.LookupRequest) (*query.LookupResult, error) {
	if req.Limit < 0 {
		cfg, err := s.Config()
		if err != nil {
			return nil, err
		}
		req.Limit = cfg.Query.SymbolLimit
	}
	return s.engine.Lookup(ctx, req)
}

func (s *Service) EntryPoints(ctx context.Context, q string, kind query.EntryKind) (*query.EntryPointResult, error) {
	return s.engine.EntryPoints(ctx, q, kind)
}

// Flow returns the subgraph around the seed ids. Unset bounds take the
// configured defaults.
func (s *Service) Flow(ctx context.Context, req query.SubgraphRequest) (*query.SubgraphResult, error) {
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	if req.Depth < 0 {
		req.Depth = cfg.Query.Depth
	}
	if req.MaxNodes <= 0 {
		req.MaxNodes = cfg.Query.MaxNodes
	}
	if req.MaxEdges <= 0 {
		req.MaxEdges = cfg.Query.MaxEdges
	}
	return s.engine.Subgraph(ctx, req)
}

func (s *Service) Functions(ctx context.Context, req query.FunctionsRequest) (*query.FunctionsResult, error) {
	return s.engine.Functions(ctx, req)
}

func (s *Service) CheckDuplicates(ctx context.Context, code, path string) (*query.DuplicateResult, error) {
	return s.engine.CheckDuplicates(ctx, code, path)
}
