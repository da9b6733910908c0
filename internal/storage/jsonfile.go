package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/agnes-pro/Automated-Market-Maker/internal/model"
)

// FileStore keeps the ledger snapshot in a single JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the snapshot. A missing file is not an error; it means the
// ledger has no saved state yet.
func (s *FileStore) Load(ctx context.Context) (model.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.State{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.State{}, false, nil
		}
		return model.State{}, false, fmt.Errorf("read state file: %w", err)
	}

	var state model.State
	if err := json.Unmarshal(data, &state); err != nil {
		return model.State{}, false, fmt.Errorf("decode state file: %w", err)
	}
	return state, true, nil
}

// Save writes the snapshot through a temp file rename so a crash mid-write
// never leaves a truncated snapshot behind.
func (s *FileStore) Save(ctx context.Context, state model.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
