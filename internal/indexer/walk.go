package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/morozRed/flowdex/internal/ignore"
)

// scope is the part of the project one run looks at.
type scope struct {
	root   string
	prefix string // slash-separated, relative to root; "" for the whole tree
}

func newScope(root, path string) (scope, error) {
	s := scope{root: root}
	path = strings.TrimSpace(path)
	if path == "" || path == "." {
		return s, nil
	}
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return s, fmt.Errorf("path %q is outside the project root", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return s, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return s, fmt.Errorf("%s is not a directory", path)
	}
	if rel != "." {
		s.prefix = filepath.ToSlash(rel)
	}
	return s, nil
}

func (s scope) contains(file string) bool {
	return s.prefix == "" || file == s.prefix || strings.HasPrefix(file, s.prefix+"/")
}

// walk lists the supported, non-ignored files in scope as sorted
// slash-separated paths relative to the root.
func (s scope) walk(ctx context.Context, matcher *ignore.Matcher, supports func(string) bool) ([]string, error) {
	start := s.root
	if s.prefix != "" {
		start = filepath.Join(s.root, filepath.FromSlash(s.prefix))
	}

	files := make([]string, 0)
	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() && path != start {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if matcher.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matcher.ShouldIgnore(rel, false) || !supports(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func loadMatcher(root string, include, exclude []string) (*ignore.Matcher, error) {
	rules, err := ignore.LoadRules(root)
	if err != nil {
		return nil, err
	}
	return ignore.NewMatcher(rules).WithGlobs(include, exclude)
}
