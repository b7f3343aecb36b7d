package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
	gitignore "github.com/sabhiram/go-gitignore"
)

// RuleFiles are read from the project root, in order, by LoadRules.
var RuleFiles = []string{".gitignore", ".flowdexignore"}

// ErrInvalidPattern is returned when an include or exclude glob does not compile.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// Matcher applies gitignore rules with "last rule wins" behavior, plus
// optional include and exclude globs over the relative path.
type Matcher struct {
	rules   *gitignore.GitIgnore
	include []glob.Glob
	exclude []glob.Glob
}

// NewMatcher builds a matcher from user ignore lines. Default excludes come
// first so user negations can override them.
func NewMatcher(userRules []string) *Matcher {
	defaultRules := []string{
		"**/.git/",
		"**/.flowdex/",
		"**/node_modules/",
		"**/vendor/",
		"**/dist/",
		"**/build/",
		"**/target/",
		"**/__pycache__/",
	}

	all := make([]string, 0, len(defaultRules)+len(userRules))
	all = append(all, defaultRules...)
	for _, line := range userRules {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		all = append(all, line)
	}
	return &Matcher{rules: gitignore.CompileIgnoreLines(all...)}
}

// WithGlobs adds include and exclude globs. When include globs are present
// a file must match one of them.
func (m *Matcher) WithGlobs(include, exclude []string) (*Matcher, error) {
	var err error
	if m.include, err = compileGlobs(include); err != nil {
		return nil, err
	}
	if m.exclude, err = compileGlobs(exclude); err != nil {
		return nil, err
	}
	return m, nil
}

// ShouldIgnore returns true when relPath should be excluded. Include globs
// only apply to files.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	if relPath == "" {
		return false
	}

	candidate := relPath
	if isDir {
		candidate += "/"
	}
	if m.rules.MatchesPath(candidate) {
		return true
	}
	for _, g := range m.exclude {
		if g.Match(relPath) {
			return true
		}
	}
	if isDir || len(m.include) == 0 {
		return false
	}
	for _, g := range m.include {
		if g.Match(relPath) {
			return false
		}
	}
	return true
}

// LoadRules reads the ignore lines of every rule file under rootPath.
// Missing files are skipped.
func LoadRules(rootPath string) ([]string, error) {
	rules := make([]string, 0)
	for _, name := range RuleFiles {
		lines, err := readRuleFile(filepath.Join(rootPath, name))
		if err != nil {
			return nil, err
		}
		rules = append(rules, lines...)
	}
	return rules, nil
}

func readRuleFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	rules := make([]string, 0)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return rules, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	matchers := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}
		matchers = append(matchers, g)
	}
	return matchers, nil
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return strings.TrimSuffix(path, "/")
}
