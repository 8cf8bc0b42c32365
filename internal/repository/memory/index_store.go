package memory

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"sync"
)

type IndexStore struct {
	mu        sync.RWMutex
	summaries []domain.CustomerSummary
	saved     bool
	saves     int
	saveErr   error
}

func NewIndexStore() *IndexStore {
	return &IndexStore{}
}

func (s *IndexStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saved, nil
}

func (s *IndexStore) Load(ctx context.Context) ([]domain.CustomerSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.saved {
		return nil, repository.ErrIndexNotFound
	}

	cp := make([]domain.CustomerSummary, len(s.summaries))
	copy(cp, s.summaries)
	return cp, nil
}

func (s *IndexStore) Save(ctx context.Context, summaries []domain.CustomerSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}

	cp := make([]domain.CustomerSummary, len(summaries))
	copy(cp, summaries)
	s.summaries = cp
	s.saved = true
	s.saves++

	return nil
}

// FailSaves makes every subsequent Save return err; nil restores normal
// behaviour.
func (s *IndexStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func (s *IndexStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
