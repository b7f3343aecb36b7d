package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/morozRed/flowdex/internal/fileutil"
)

const (
	StateFile           = ".state.json"
	CurrentStateVersion = "1"
)

// FileState records what was indexed for one source file.
type FileState struct {
	Hash      string    `json:"hash"`
	Language  string    `json:"language,omitempty"`
	Functions int       `json:"functions"`
	Classes   int       `json:"classes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State tracks indexed files for incremental runs and status reports.
type State struct {
	Version   string               `json:"version"`
	RunID     string               `json:"run_id,omitempty"`
	UpdatedAt time.Time            `json:"updated_at"`
	Files     map[string]FileState `json:"files"`
}

func NewState() *State {
	return &State{
		Version: CurrentStateVersion,
		Files:   make(map[string]FileState),
	}
}

// Load reads state from the memory directory. A missing file yields an
// empty state.
func Load(memoryDir string) (*State, error) {
	path := filepath.Join(memoryDir, StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, fmt.Errorf("failed to read state: %w", err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	return &s, nil
}

// Save writes state to the memory directory atomically.
func (s *State) Save(memoryDir string) error {
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	if s.Files == nil {
		s.Files = make(map[string]FileState)
	}
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := fileutil.WriteAtomic(filepath.Join(memoryDir, StateFile), append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// SetFile records a freshly indexed file.
func (s *State) SetFile(file string, fs FileState) {
	if fs.UpdatedAt.IsZero() {
		fs.UpdatedAt = time.Now().UTC()
	}
	s.Files[file] = fs
}

func (s *State) GetFileHash(file string) (string, bool) {
	fs, ok := s.Files[file]
	if !ok {
		return "", false
	}
	return fs.Hash, true
}

// HasChanged returns true if the file hash differs from stored
func (s *State) HasChanged(file, currentHash string) bool {
	storedHash, ok := s.GetFileHash(file)
	if !ok {
		return true
	}
	return storedHash != currentHash
}

func (s *State) RemoveFile(file string) {
	delete(s.Files, file)
}

// ChangedFiles returns new or modified files, sorted.
func (s *State) ChangedFiles(currentHashes map[string]string) []string {
	changed := make([]string, 0)
	for file, hash := range currentHashes {
		if s.HasChanged(file, hash) {
			changed = append(changed, file)
		}
	}
	sort.Strings(changed)
	return changed
}

// DeletedFiles returns tracked files that no longer exist, sorted.
func (s *State) DeletedFiles(currentFiles map[string]bool) []string {
	deleted := make([]string, 0)
	for file := range s.Files {
		if !currentFiles[file] {
			deleted = append(deleted, file)
		}
	}
	sort.Strings(deleted)
	return deleted
}
