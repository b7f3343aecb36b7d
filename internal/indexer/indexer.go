// Package indexer scans a project tree, extracts symbols from every
// supported file and rewrites the symbol table and flow graph documents.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/morozRed/flowdex/internal/config"
	"github.com/morozRed/flowdex/internal/extract"
	"github.com/morozRed/flowdex/internal/fileutil"
	"github.com/morozRed/flowdex/internal/graph"
	"github.com/morozRed/flowdex/internal/memory"
	"github.com/morozRed/flowdex/internal/state"
)

var tracer = otel.Tracer("flowdex.indexer")

// Documents is the cached view of the memory documents an index run reads
// and invalidates after writing.
type Documents interface {
	Symbols() ([]extract.SymbolEntry, error)
	Graph() (*graph.FlowGraph, error)
	Invalidate(kind memory.Kind)
}

// Options control one run. With Force false, files already present in the
// symbol table are not re-extracted, so their edits stay invisible until a
// forced run.
type Options struct {
	Path  string
	Force bool
}

type Report struct {
	RunID        string        `json:"runId"`
	Path         string        `json:"path,omitempty"`
	Force        bool          `json:"force"`
	FilesFound   int           `json:"filesFound"`
	FilesIndexed int           `json:"filesIndexed"`
	FilesSkipped int           `json:"filesSkipped"`
	FilesFailed  int           `json:"filesFailed"`
	FilesRemoved []string      `json:"filesRemoved,omitempty"`
	NewFiles     []string      `json:"newFiles,omitempty"`
	Functions    int           `json:"functionsFound"`
	TotalSymbols int           `json:"totalFunctions"`
	Directories  int           `json:"directories"`
	Nodes        int           `json:"nodes"`
	Edges        int           `json:"edges"`
	EntryPoints  int           `json:"entryPoints"`
	Duration     time.Duration `json:"-"`
	DurationMs   int64         `json:"durationMs"`
}

type Indexer struct {
	store    *memory.Store
	docs     Documents
	registry *extract.Registry
	cfg      *config.Config
	logger   *slog.Logger
	now      func() time.Time
}

func New(store *memory.Store, docs Documents, registry *extract.Registry, cfg *config.Config, logger *slog.Logger) *Indexer {
	if cfg == nil {
		cfg = config.Default()
	}
	if registry == nil {
		registry = extract.NewDefaultRegistry(cfg.Index.Extensions)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:    store,
		docs:     docs,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

type fileOutcome struct {
	path    string
	outcome string
	hash    string
	result  *extract.FileResult
}

// Run indexes the tree under opts.Path and rebuilds every derived document.
// The graph is always rebuilt in full: fresh files are merged with the
// fragments carried over from files that were not rescanned.
func (ix *Indexer) Run(ctx context.Context, opts Options) (*Report, error) {
	start := ix.now()
	mode := "incremental"
	if opts.Force {
		mode = "force"
	}
	ctx, span := tracer.Start(ctx, "Indexer.Run",
		trace.WithAttributes(
			attribute.String("path", opts.Path),
			attribute.Bool("force", opts.Force),
		),
	)
	defer span.End()

	report := &Report{RunID: uuid.New().String(), Path: opts.Path, Force: opts.Force}
	logger := ix.logger.With("run_id", report.RunID)

	sc, err := newScope(ix.store.Root(), opts.Path)
	if err != nil {
		return nil, err
	}
	if _, err := ix.store.Init(); err != nil {
		return nil, err
	}
	matcher, err := loadMatcher(ix.store.Root(), ix.cfg.Index.Include, ix.cfg.Index.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := sc.walk(ctx, matcher, ix.registry.Supports)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", sc.root, err)
	}
	report.FilesFound = len(files)

	prevSymbols, err := ix.docs.Symbols()
	if err != nil {
		return nil, err
	}
	prevGraph, err := ix.docs.Graph()
	if err != nil {
		return nil, err
	}

	indexed := make(map[string]bool)
	for _, entry := range prevSymbols {
		indexed[entry.File] = true
	}
	toScan := make([]string, 0, len(files))
	for _, file := range files {
		if !opts.Force && indexed[file] {
			report.FilesSkipped++
			continue
		}
		toScan = append(toScan, file)
	}
	filesTotal.WithLabelValues(outcomeSkipped).Add(float64(report.FilesSkipped))

	outcomes, err := ix.extractAll(ctx, toScan, logger)
	if err != nil {
		return nil, err
	}

	// Merge serially, in path order.
	fresh := make([]extract.FileResult, 0, len(outcomes))
	rescanned := make(map[string]bool, len(outcomes))
	for _, out := range outcomes {
		filesTotal.WithLabelValues(out.outcome).Inc()
		if out.outcome != outcomeIndexed {
			report.FilesFailed++
			continue
		}
		fresh = append(fresh, *out.result)
		rescanned[out.path] = true
		if !indexed[out.path] {
			report.NewFiles = append(report.NewFiles, out.path)
		}
	}

	walked := fileutil.ToSet(files)
	removed := make(map[string]bool)
	known := make(map[string]bool)
	for file := range indexed {
		known[file] = true
	}
	if !prevGraph.IsEmpty() {
		prevGraph.Nodes.Each(func(node *graph.SymbolNode) { known[node.File] = true })
	}
	for file := range known {
		if sc.contains(file) && !walked[file] {
			removed[file] = true
		}
	}
	report.FilesRemoved = fileutil.MapKeysSorted(removed)
	filesTotal.WithLabelValues(outcomeRemoved).Add(float64(len(removed)))

	table := make([]extract.SymbolEntry, 0, len(prevSymbols))
	keptByFile := make(map[string][]extract.SymbolEntry)
	for _, entry := range prevSymbols {
		if rescanned[entry.File] || removed[entry.File] {
			continue
		}
		table = append(table, entry)
		keptByFile[entry.File] = append(keptByFile[entry.File], entry)
	}
	for i := range fresh {
		entries := symbolTableEntries(&fresh[i])
		report.Functions += len(entries)
		table = append(table, entries...)
	}
	report.TotalSymbols = len(table)

	carried := make([]graph.Fragment, 0)
	for _, file := range fileutil.MapKeysSorted(known) {
		if rescanned[file] || removed[file] {
			continue
		}
		carried = append(carried, graph.CarryFragment(prevGraph, file, keptByFile[file]))
	}

	g := graph.Assemble(graph.Input{
		Files:   fresh,
		Carried: carried,
		Rules:   ix.cfg.EntryRules(),
		Now:     ix.now(),
	})
	report.Nodes = g.Nodes.Len()
	report.Edges = len(g.Edges)
	report.EntryPoints = len(g.EntryPoints)

	dirs := make([]string, 0, len(fresh))
	for _, file := range fresh {
		dirs = append(dirs, path.Dir(file.Path))
	}
	dirs = fileutil.DedupeStrings(dirs)
	report.Directories = len(dirs)

	if err := ix.writeDocuments(table, g, dirs, files); err != nil {
		return nil, err
	}
	if err := ix.saveState(report.RunID, outcomes, removed, logger); err != nil {
		return nil, err
	}

	report.Duration = ix.now().Sub(start)
	runDuration.WithLabelValues(mode).Observe(report.Duration.Seconds())
	report.DurationMs = report.Duration.Milliseconds()
	report.FilesIndexed = len(fresh)
	span.SetAttributes(
		attribute.String("run_id", report.RunID),
		attribute.Int("files_indexed", report.FilesIndexed),
		attribute.Int("nodes", report.Nodes),
		attribute.Int("edges", report.Edges),
	)
	logger.Info("index complete",
		"mode", mode,
		"files_found", report.FilesFound,
		"files_indexed", report.FilesIndexed,
		"files_skipped", report.FilesSkipped,
		"files_failed", report.FilesFailed,
		"files_removed", len(report.FilesRemoved),
		"nodes", report.Nodes,
		"edges", report.Edges,
		"duration", report.Duration,
	)
	return report, nil
}

// extractAll reads and extracts files in parallel. Per-file problems are
// recorded as outcomes; only cancellation fails the run.
func (ix *Indexer) extractAll(ctx context.Context, files []string, logger *slog.Logger) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.Index.Workers)

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = ix.extractOne(file, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (ix *Indexer) extractOne(file string, logger *slog.Logger) fileOutcome {
	out := fileOutcome{path: file, outcome: outcomeFailed}
	abs := filepath.Join(ix.store.Root(), filepath.FromSlash(file))

	info, err := os.Stat(abs)
	if err != nil {
		logger.Debug("skipping unreadable file", "file", file, "error", err)
		return out
	}
	if info.Size() > ix.cfg.Index.MaxFileSize {
		logger.Debug("skipping large file", "file", file, "size", info.Size())
		out.outcome = outcomeTooLarge
		return out
	}
	content, err := os.ReadFile(abs)
	if err != nil {
		logger.Debug("skipping unreadable file", "file", file, "error", err)
		return out
	}
	result, err := ix.registry.Extract(file, content)
	if err != nil {
		logger.Debug("skipping file", "file", file, "error", err)
		return out
	}

	out.outcome = outcomeIndexed
	out.hash = fileutil.HashBytes(content)
	out.result = result
	return out
}

// symbolTableEntries returns the functions of a file plus its class methods
// that no function rule already recorded on the same line.
func symbolTableEntries(file *extract.FileResult) []extract.SymbolEntry {
	entries := append([]extract.SymbolEntry(nil), file.Functions...)
	lines := make(map[int]bool, len(entries))
	for _, fn := range entries {
		if fn.Line > 0 {
			lines[fn.Line] = true
		}
	}
	for _, class := range file.Classes {
		for _, method := range class.Methods {
			if method.Line > 0 && lines[method.Line] {
				continue
			}
			entries = append(entries, extract.SymbolEntry{
				Name:       method.Name,
				File:       file.Path,
				Line:       method.Line,
				Params:     method.Params,
				ReturnType: method.ReturnType,
			})
		}
	}
	return entries
}

func (ix *Indexer) writeDocuments(table []extract.SymbolEntry, g *graph.FlowGraph, dirs, files []string) error {
	graphData, err := graph.Encode(g)
	if err != nil {
		return err
	}

	discovery, err := ix.store.Read(memory.KindDiscovery)
	if err != nil {
		return err
	}

	archFiles := make([]string, 0, len(files)+len(table))
	archFiles = append(archFiles, files...)
	for _, entry := range table {
		archFiles = append(archFiles, entry.File)
	}
	archFiles = fileutil.DedupeStrings(archFiles)
	sort.Strings(archFiles)

	docs := []struct {
		kind memory.Kind
		data []byte
	}{
		{memory.KindSymbols, []byte(memory.FormatFunctions(table))},
		{memory.KindGraph, graphData},
		{memory.KindDiscovery, []byte(memory.UpdateDiscovery(string(discovery), dirs))},
		{memory.KindArchitecture, []byte(memory.BuildArchitecture(archFiles))},
	}
	for _, doc := range docs {
		if _, err := ix.store.Write(doc.kind, doc.data); err != nil {
			return err
		}
		ix.docs.Invalidate(doc.kind)
	}
	return nil
}

func (ix *Indexer) saveState(runID string, outcomes []fileOutcome, removed map[string]bool, logger *slog.Logger) error {
	st, err := state.Load(ix.store.Dir())
	if err != nil {
		logger.Warn("discarding unreadable state", "error", err)
		st = state.NewState()
	}
	st.RunID = runID
	now := ix.now().UTC()
	for _, out := range outcomes {
		if out.outcome != outcomeIndexed {
			continue
		}
		st.SetFile(out.path, state.FileState{
			Hash:      out.hash,
			Language:  out.result.Language,
			Functions: len(out.result.Functions),
			Classes:   len(out.result.Classes),
			UpdatedAt: now,
		})
	}
	for file := range removed {
		st.RemoveFile(file)
	}
	return st.Save(ix.store.Dir())
}
