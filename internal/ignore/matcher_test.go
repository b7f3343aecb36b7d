package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"vendor/**",
		"!vendor/keep/file.go",
		"*.tmp",
		"# comment",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", ignored: true},
		{path: ".flowdex/FLOW_GRAPH.json", ignored: true},
		{path: "node_modules/pkg/index.js", ignored: true},
		{path: "packages/web/node_modules/pkg/index.js", ignored: true},
		{path: "node_modules", isDir: true, ignored: true},
		{path: "vendor/lib/a.go", ignored: true},
		{path: "vendor/keep/file.go", ignored: false},
		{path: "nested/cache.tmp", ignored: true},
		{path: "src/main.go", ignored: false},
		{path: "src", isDir: true, ignored: false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.ignored, m.ShouldIgnore(tc.path, tc.isDir), "path %s", tc.path)
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"build/",
		"!build/include/",
	})

	assert.True(t, m.ShouldIgnore("build/out/file.go", false))
	assert.False(t, m.ShouldIgnore("build/include/file.go", false))
}

func TestMatcher_Globs(t *testing.T) {
	m, err := NewMatcher(nil).WithGlobs([]string{"src/**"}, []string{"**/*.gen.ts"})
	require.NoError(t, err)

	assert.False(t, m.ShouldIgnore("src/app.ts", false))
	assert.True(t, m.ShouldIgnore("src/api/schema.gen.ts", false))
	assert.True(t, m.ShouldIgnore("scripts/tool.ts", false))
	// include globs never prune directories
	assert.False(t, m.ShouldIgnore("scripts", true))

	_, err = NewMatcher(nil).WithGlobs([]string{"src/["}, nil)
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestLoadRules(t *testing.T) {
	root := t.TempDir()
	rules, err := LoadRules(root)
	require.NoError(t, err)
	assert.Empty(t, rules)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("# deps\ncoverage/\n\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".flowdexignore"), []byte("fixtures/\n!fixtures/keep.ts\n"), 0644))

	rules, err = LoadRules(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"coverage/", "fixtures/", "!fixtures/keep.ts"}, rules)
}
