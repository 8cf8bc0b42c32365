package sqlindex

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_AbsentBeforeFirstSave(t *testing.T) {
	store := openTestStore(t)

	exists, err := store.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, repository.ErrIndexNotFound)
}

func TestStore_SaveAndLoadPreservesOrder(t *testing.T) {
	store := openTestStore(t)
	summaries := []domain.CustomerSummary{
		{CustomerID: "b", SourceID: "b", CreditLimit: 100, AcqCountry: "US", TxnCount: 2, ActivityWindowDays: 1, TotalSpend: 12.5},
		{CustomerID: "a", SourceID: "a", CreditLimit: 0, AcqCountry: "", TxnCount: 1, ActivityWindowDays: 0, TotalSpend: 0},
	}

	require.NoError(t, store.Save(context.Background(), summaries))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, summaries, got)
}

func TestStore_SaveReplacesWholeSnapshot(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Save(context.Background(), []domain.CustomerSummary{
		{CustomerID: "a", SourceID: "a"},
		{CustomerID: "b", SourceID: "b"},
	}))

	require.NoError(t, store.Save(context.Background(), []domain.CustomerSummary{
		{CustomerID: "c", SourceID: "c", TxnCount: 4},
	}))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].CustomerID)
}

func TestStore_EmptySnapshotIsDistinctFromAbsent(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save(context.Background(), nil))

	exists, err := store.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStore_ReopenKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), []domain.CustomerSummary{{CustomerID: "a", SourceID: "a", TxnCount: 1}}))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
