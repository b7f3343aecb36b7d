package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangedAndDeletedFiles(t *testing.T) {
	s := NewState()
	s.SetFile("a.go", FileState{Hash: "a1"})
	s.SetFile("b.go", FileState{Hash: "b1"})
	s.SetFile("c.go", FileState{Hash: "c1"})

	changed := s.ChangedFiles(map[string]string{
		"a.go": "a1",
		"b.go": "b2",
		"d.go": "d1",
	})
	assert.Equal(t, []string{"b.go", "d.go"}, changed)

	deleted := s.DeletedFiles(map[string]bool{
		"a.go": true,
		"b.go": true,
		"d.go": true,
	})
	assert.Equal(t, []string{"c.go"}, deleted)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	s, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, s.Files)

	s.RunID = "run-1"
	s.SetFile("src/app.ts", FileState{Hash: "h1", Language: "typescript", Functions: 3, Classes: 1})
	require.NoError(t, s.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, CurrentStateVersion, loaded.Version)
	require.Contains(t, loaded.Files, "src/app.ts")
	assert.Equal(t, 3, loaded.Files["src/app.ts"].Functions)
	assert.False(t, loaded.HasChanged("src/app.ts", "h1"))
	assert.True(t, loaded.HasChanged("src/app.ts", "h2"))

	loaded.RemoveFile("src/app.ts")
	assert.True(t, loaded.HasChanged("src/app.ts", "h1"))
}

func TestLoadRejectsCorruptState(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFile), []byte("{oops"), 0644))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "failed to parse state")
}
