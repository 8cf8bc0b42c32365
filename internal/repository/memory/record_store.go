package memory

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"fmt"
	"sort"
	"sync"
)

type RecordStore struct {
	mu      sync.RWMutex
	sources map[string][]domain.TransactionRecord
	failing map[string]error
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		sources: make(map[string][]domain.TransactionRecord),
		failing: make(map[string]error),
	}
}

// Put registers or replaces a source. A nil slice registers an empty source.
func (s *RecordStore) Put(sourceID string, records []domain.TransactionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]domain.TransactionRecord, len(records))
	copy(cp, records)
	s.sources[sourceID] = cp
	delete(s.failing, sourceID)
}

// Fail makes every subsequent Load of sourceID return err.
func (s *RecordStore) Fail(sourceID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sources[sourceID]; !exists {
		s.sources[sourceID] = nil
	}
	s.failing[sourceID] = err
}

func (s *RecordStore) Remove(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sources, sourceID)
	delete(s.failing, sourceID)
}

func (s *RecordStore) ListSources(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sources))
	for id := range s.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

func (s *RecordStore) Load(ctx context.Context, sourceID string) ([]domain.TransactionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err, failing := s.failing[sourceID]; failing {
		return nil, err
	}

	records, exists := s.sources[sourceID]
	if !exists {
		return nil, fmt.Errorf("%w: source %s", repository.ErrSourceNotFound, sourceID)
	}

	cp := make([]domain.TransactionRecord, len(records))
	copy(cp, records)
	return cp, nil
}
