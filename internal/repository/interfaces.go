package repository

import (
	"context"
	"customer_index/internal/domain"
	"errors"
)

// RecordStore gives read access to the per-customer transaction sources.
type RecordStore interface {
	ListSources(ctx context.Context) ([]string, error)
	Load(ctx context.Context, sourceID string) ([]domain.TransactionRecord, error)
}

// IndexStore persists whole index snapshots. Save replaces the previous
// snapshot atomically; readers never observe a partial write.
type IndexStore interface {
	Exists(ctx context.Context) (bool, error)
	Load(ctx context.Context) ([]domain.CustomerSummary, error)
	Save(ctx context.Context, summaries []domain.CustomerSummary) error
}

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrSourceNotFound  = errors.New("source not found")
	ErrIndexNotFound   = errors.New("index not found")
)
