package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFileMatchesHashBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	hash, err := HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, HashBytes([]byte("hello")), hash)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", hash)

	_, err = HashFile(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteAtomicCreatesParentsAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "doc.md")

	require.NoError(t, WriteAtomic(path, []byte("one")))
	require.NoError(t, WriteAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.md", entries[0].Name())
}

func TestWriteIfChangedTracked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")

	changed, err := WriteIfChangedTracked(path, []byte("a"))
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = WriteIfChangedTracked(path, []byte("a"))
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = WriteIfChangedTracked(path, []byte("b"))
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestWriteIfMissingKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")

	require.NoError(t, WriteIfMissing(path, []byte("first"), 0644))
	require.NoError(t, WriteIfMissing(path, []byte("second"), 0644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestStringHelpers(t *testing.T) {
	assert.Equal(t, []string{"b", "a"}, DedupeStrings([]string{"b", "a", "b"}))
	assert.Equal(t, []string{"a", "b"}, MapKeysSorted(map[string]bool{"b": true, "a": true}))
	assert.Equal(t, map[string]bool{"x": true}, ToSet([]string{"x", "x"}))
	assert.Equal(t, "", EnsureTrailingNewline(""))
	assert.Equal(t, "a\n", EnsureTrailingNewline("a"))
	assert.Equal(t, "a\n", EnsureTrailingNewline("a\n"))
}

func TestPrintJSONDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, map[string]string{"sig": "a<b>"}))
	assert.Equal(t, "{\n  \"sig\": \"a<b>\"\n}\n", buf.String())
}
