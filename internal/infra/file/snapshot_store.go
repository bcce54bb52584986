package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"math-worksheet-backend/internal/domain"
)

// SnapshotStore writes each named snapshot to its own JSON file. Writes go to a temp
// file in the same directory and are renamed into place, so readers never see a torn file.
type SnapshotStore struct {
	paths map[string]string
}

// NewSnapshotStore maps snapshot names to file paths, e.g. {"scores": "scores.json"}.
func NewSnapshotStore(paths map[string]string) *SnapshotStore {
	copied := make(map[string]string, len(paths))
	for k, v := range paths {
		copied[k] = v
	}
	return &SnapshotStore{paths: copied}
}

func (s *SnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", name, err)
	}
	return nil
}

func (s *SnapshotStore) Load(_ context.Context, name string) ([]byte, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", name, err)
	}
	return data, nil
}

func (s *SnapshotStore) path(name string) (string, error) {
	path, ok := s.paths[name]
	if !ok || path == "" {
		return "", fmt.Errorf("no file configured for snapshot %q", name)
	}
	return path, nil
}
