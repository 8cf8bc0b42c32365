package memory

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordStore_PutAndLoad(t *testing.T) {
	store := NewRecordStore()
	records := []domain.TransactionRecord{
		{CustomerID: "c1", Timestamp: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), Amount: 10},
	}
	store.Put("c1", records)

	got, err := store.Load(context.Background(), "c1")

	require.NoError(t, err)
	assert.Equal(t, records, got)

	got[0].Amount = 99
	again, _ := store.Load(context.Background(), "c1")
	assert.Equal(t, 10.0, again[0].Amount, "Load must hand out copies")
}

func TestRecordStore_ListSourcesSorted(t *testing.T) {
	store := NewRecordStore()
	store.Put("c3", nil)
	store.Put("c1", nil)
	store.Put("c2", nil)

	ids, err := store.ListSources(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)
}

func TestRecordStore_LoadUnknownSource(t *testing.T) {
	store := NewRecordStore()

	_, err := store.Load(context.Background(), "missing")

	assert.True(t, errors.Is(err, repository.ErrSourceNotFound))
}

func TestRecordStore_Fail(t *testing.T) {
	store := NewRecordStore()
	store.Fail("bad", repository.ErrMalformedRecord)

	ids, _ := store.ListSources(context.Background())
	_, err := store.Load(context.Background(), "bad")

	assert.Equal(t, []string{"bad"}, ids)
	assert.ErrorIs(t, err, repository.ErrMalformedRecord)
}

func TestIndexStore_LoadBeforeSave(t *testing.T) {
	store := NewIndexStore()

	exists, err := store.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, repository.ErrIndexNotFound)
}

func TestIndexStore_SaveEmptyIsDistinctFromAbsent(t *testing.T) {
	store := NewIndexStore()

	require.NoError(t, store.Save(context.Background(), nil))

	exists, _ := store.Exists(context.Background())
	got, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Empty(t, got)
	assert.Equal(t, 1, store.Saves())
}

func TestIndexStore_FailSavesKeepsPrevious(t *testing.T) {
	store := NewIndexStore()
	first := []domain.CustomerSummary{{CustomerID: "c1", TxnCount: 1}}
	require.NoError(t, store.Save(context.Background(), first))

	store.FailSaves(errors.New("disk full"))
	err := store.Save(context.Background(), []domain.CustomerSummary{{CustomerID: "c2"}})

	require.Error(t, err)
	got, _ := store.Load(context.Background())
	assert.Equal(t, first, got)
}
