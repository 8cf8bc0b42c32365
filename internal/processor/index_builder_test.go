package processor

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"customer_index/internal/repository/jsonindex"
	"customer_index/internal/repository/memory"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMetrics struct {
	mu        sync.Mutex
	builds    []bool
	customers int
	queries   []string
}

func (m *recordingMetrics) RecordBuild(_ time.Duration, customers, _ int, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = append(m.builds, success)
	if success {
		m.customers = customers
	}
}

func (m *recordingMetrics) RecordQuery(_ time.Duration, _ int, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, outcome)
}

func record(customerID string, at time.Time, amount float64) domain.TransactionRecord {
	return domain.TransactionRecord{
		CustomerID:     customerID,
		CreditLimit:    1000,
		AcqCountry:     "US",
		Timestamp:      at,
		AvailableMoney: 1000 - amount,
		Amount:         amount,
	}
}

func seedStore(n int) *memory.RecordStore {
	store := memory.NewRecordStore()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("customer-%03d", i)
		store.Put(id, []domain.TransactionRecord{
			record(id, base.Add(time.Duration(i)*time.Hour), float64(i)),
			record(id, base.Add(time.Duration(i)*24*time.Hour), 10),
		})
	}
	return store
}

func TestIndexBuilder_BuildsSortedIndex(t *testing.T) {
	records := memory.NewRecordStore()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	records.Put("zeta", []domain.TransactionRecord{record("b", base, 5)})
	records.Put("alpha", []domain.TransactionRecord{record("c", base, 5)})
	records.Put("beta", []domain.TransactionRecord{record("a", base, 5)})
	index := memory.NewIndexStore()
	m := &recordingMetrics{}

	result, err := NewIndexBuilder(records, index, 2, zerolog.Nop(), m).Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, customerIDs(result.Index.Summaries))
	assert.Equal(t, 3, result.SourcesScanned)
	assert.NotEmpty(t, result.BuildID)
	assert.Len(t, result.Index.Fingerprint, 64)
	assert.Equal(t, []bool{true}, m.builds)
	assert.Equal(t, 3, m.customers)

	persisted, err := index.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.Index.Summaries, persisted)
}

func TestIndexBuilder_SkipsEmptySources(t *testing.T) {
	records := seedStore(2)
	records.Put("empty", nil)
	index := memory.NewIndexStore()

	result, err := NewIndexBuilder(records, index, 4, zerolog.Nop(), nil).Build(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.SourcesScanned)
	assert.Equal(t, []string{"empty"}, result.SkippedSources)
	assert.Equal(t, 2, result.Index.Len())
}

func TestIndexBuilder_TiesBrokenBySource(t *testing.T) {
	records := memory.NewRecordStore()
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	records.Put("second", []domain.TransactionRecord{record("dup", base, 1)})
	records.Put("first", []domain.TransactionRecord{record("dup", base, 2)})

	result, err := NewIndexBuilder(records, memory.NewIndexStore(), 1, zerolog.Nop(), nil).Build(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Index.Summaries, 2)
	assert.Equal(t, "first", result.Index.Summaries[0].SourceID)
	assert.Equal(t, "second", result.Index.Summaries[1].SourceID)
}

func TestIndexBuilder_IdenticalInputIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	first := jsonindex.NewStore(filepath.Join(dir, "first.json"))
	second := jsonindex.NewStore(filepath.Join(dir, "second.json"))

	_, err := NewIndexBuilder(seedStore(30), first, 8, zerolog.Nop(), nil).Build(context.Background())
	require.NoError(t, err)
	_, err = NewIndexBuilder(seedStore(30), second, 1, zerolog.Nop(), nil).Build(context.Background())
	require.NoError(t, err)

	a, err := os.ReadFile(first.Path())
	require.NoError(t, err)
	b, err := os.ReadFile(second.Path())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestIndexBuilder_LoadFailureKeepsPriorIndex(t *testing.T) {
	records := seedStore(3)
	index := memory.NewIndexStore()
	m := &recordingMetrics{}
	builder := NewIndexBuilder(records, index, 2, zerolog.Nop(), m)

	_, err := builder.Build(context.Background())
	require.NoError(t, err)

	records.Fail("customer-001", fmt.Errorf("%w: row 2", repository.ErrMalformedRecord))
	_, err = builder.Build(context.Background())

	assert.ErrorIs(t, err, repository.ErrMalformedRecord)
	assert.Equal(t, 1, index.Saves())
	assert.Equal(t, []bool{true, false}, m.builds)

	persisted, err := index.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, persisted, 3)
}

func TestIndexBuilder_SaveFailureSurfaces(t *testing.T) {
	index := memory.NewIndexStore()
	index.FailSaves(errors.New("disk full"))

	_, err := NewIndexBuilder(seedStore(1), index, 1, zerolog.Nop(), nil).Build(context.Background())

	assert.ErrorContains(t, err, "disk full")
	exists, _ := index.Exists(context.Background())
	assert.False(t, exists)
}

func TestIndexBuilder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	index := memory.NewIndexStore()

	_, err := NewIndexBuilder(seedStore(5), index, 2, zerolog.Nop(), nil).Build(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, index.Saves())
}

type serializingIndexStore struct {
	*memory.IndexStore
	active    atomic.Int32
	maxActive atomic.Int32
}

func (s *serializingIndexStore) Save(ctx context.Context, summaries []domain.CustomerSummary) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		current := s.maxActive.Load()
		if n <= current || s.maxActive.CompareAndSwap(current, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return s.IndexStore.Save(ctx, summaries)
}

func TestIndexBuilder_ConcurrentBuildsSerialize(t *testing.T) {
	index := &serializingIndexStore{IndexStore: memory.NewIndexStore()}
	builder := NewIndexBuilder(seedStore(10), index, 4, zerolog.Nop(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := builder.Build(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), index.maxActive.Load())
	assert.Equal(t, 5, index.Saves())
}

func TestIndexBuilder_DefaultsWorkers(t *testing.T) {
	builder := NewIndexBuilder(memory.NewRecordStore(), memory.NewIndexStore(), 0, zerolog.Nop(), nil)

	assert.Equal(t, DefaultBuildWorkers, builder.maxWorkers)
}
