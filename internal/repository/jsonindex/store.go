// Package jsonindex persists the customer index as a human-readable JSON
// array in a single file.
package jsonindex

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var _ repository.IndexStore = (*Store)(nil)

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Exists(ctx context.Context) (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat index %s: %w", s.path, err)
	}
	return !info.IsDir(), nil
}

func (s *Store) Load(ctx context.Context) ([]domain.CustomerSummary, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", repository.ErrIndexNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", s.path, err)
	}

	summaries, err := domain.DecodeSummaries(data)
	if err != nil {
		return nil, fmt.Errorf("decode index %s: %w", s.path, err)
	}
	return summaries, nil
}

// Save writes the snapshot to a temporary file in the target directory and
// renames it over the previous index.
func (s *Store) Save(ctx context.Context, summaries []domain.CustomerSummary) error {
	data, err := domain.EncodeSummaries(summaries)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp index: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("replace index %s: %w", s.path, err)
	}
	committed = true

	return nil
}
