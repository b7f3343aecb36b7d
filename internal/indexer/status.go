package indexer

import (
	"context"
	"path/filepath"

	"github.com/morozRed/flowdex/internal/fileutil"
	"github.com/morozRed/flowdex/internal/state"
)

// StatusReport compares the last recorded run with the files on disk.
type StatusReport struct {
	Initialized bool     `json:"initialized"`
	RunID       string   `json:"runId,omitempty"`
	UpdatedAt   string   `json:"updatedAt,omitempty"`
	Tracked     int      `json:"tracked"`
	Changed     []string `json:"changed"`
	Deleted     []string `json:"deleted"`
	Unindexed   []string `json:"unindexed"`
}

// Stale reports whether a forced run would pick up anything new.
func (r *StatusReport) Stale() bool {
	return len(r.Changed) > 0 || len(r.Deleted) > 0 || len(r.Unindexed) > 0
}

func (ix *Indexer) Status(ctx context.Context) (*StatusReport, error) {
	ctx, span := tracer.Start(ctx, "Indexer.Status")
	defer span.End()

	report := &StatusReport{
		Initialized: ix.store.Exists(),
		Changed:     make([]string, 0),
		Deleted:     make([]string, 0),
		Unindexed:   make([]string, 0),
	}
	if !report.Initialized {
		return report, nil
	}

	st, err := state.Load(ix.store.Dir())
	if err != nil {
		return nil, err
	}
	report.RunID = st.RunID
	if !st.UpdatedAt.IsZero() {
		report.UpdatedAt = st.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z")
	}
	report.Tracked = len(st.Files)

	matcher, err := loadMatcher(ix.store.Root(), ix.cfg.Index.Include, ix.cfg.Index.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := scope{root: ix.store.Root()}.walk(ctx, matcher, ix.registry.Supports)
	if err != nil {
		return nil, err
	}

	current := make(map[string]string, len(files))
	for _, file := range files {
		if _, tracked := st.Files[file]; !tracked {
			report.Unindexed = append(report.Unindexed, file)
			continue
		}
		hash, err := fileutil.HashFile(filepath.Join(ix.store.Root(), filepath.FromSlash(file)))
		if err != nil {
			continue
		}
		current[file] = hash
	}
	report.Changed = st.ChangedFiles(current)
	report.Deleted = st.DeletedFiles(fileutil.ToSet(files))
	return report, nil
}
