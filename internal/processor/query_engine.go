package processor

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"customer_index/pkg/logger"
	"customer_index/pkg/metrics"
	"customer_index/pkg/validator"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// IndexSource supplies the current index snapshot to queries.
type IndexSource interface {
	Snapshot(ctx context.Context) (*domain.CustomerIndex, error)
}

type QueryRecorder interface {
	RecordQuery(duration time.Duration, matches int, outcome string)
}

type QueryEngine struct {
	index   IndexSource
	records repository.RecordStore
	metrics QueryRecorder
	logger  zerolog.Logger
}

func NewQueryEngine(index IndexSource, records repository.RecordStore, log zerolog.Logger, metrics QueryRecorder) *QueryEngine {
	return &QueryEngine{
		index:   index,
		records: records,
		metrics: metrics,
		logger:  logger.Component(log, "query_engine"),
	}
}

// Query filters the index, cuts out the requested page and attaches each
// paged customer's transactions ordered by time.
func (e *QueryEngine) Query(ctx context.Context, req domain.QueryRequest) (*domain.Page, error) {
	start := time.Now()

	page, matches, err := e.query(ctx, req)
	duration := time.Since(start)

	switch {
	case errors.Is(err, validator.ErrInvalidQueryArgument):
		e.record(duration, 0, metrics.OutcomeInvalid)
		return nil, err
	case err != nil:
		e.record(duration, 0, metrics.OutcomeFailure)
		e.logger.Error().Err(err).Msg("Query failed")
		return nil, err
	}

	e.record(duration, matches, metrics.OutcomeSuccess)
	e.logger.Debug().
		Int("matches", matches).
		Int("page", req.Page).
		Int("page_size", req.PageSize).
		Int("returned", len(page.Data)).
		Dur("duration", duration).
		Msg("Query served")

	return page, nil
}

func (e *QueryEngine) query(ctx context.Context, req domain.QueryRequest) (*domain.Page, int, error) {
	if err := validator.ValidateQuery(req); err != nil {
		return nil, 0, err
	}

	snapshot, err := e.index.Snapshot(ctx)
	if err != nil {
		return nil, 0, err
	}

	matched := NewFilterSet(req.Filter).Apply(snapshot.Summaries)
	onPage := Paginate(matched, req.Page, req.PageSize)

	data := make([]domain.CustomerDetail, 0, len(onPage))
	for _, s := range onPage {
		records, err := e.records.Load(ctx, s.SourceID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load transactions for %s: %w", s.CustomerID, err)
		}
		data = append(data, domain.CustomerDetail{
			CustomerSummary: s,
			Transactions:    domain.SortedDetails(records),
		})
	}

	return &domain.Page{
		Data:        data,
		TotalPages:  TotalPages(len(matched), req.PageSize),
		Fingerprint: snapshot.Fingerprint,
	}, len(matched), nil
}

func (e *QueryEngine) record(duration time.Duration, matches int, outcome string) {
	if e.metrics != nil {
		e.metrics.RecordQuery(duration, matches, outcome)
	}
}

// TotalPages is ceil(matches / pageSize).
func TotalPages(matches, pageSize int) int {
	if matches <= 0 || pageSize <= 0 {
		return 0
	}
	n := matches / pageSize
	if matches%pageSize != 0 {
		n++
	}
	return n
}

// Paginate returns the 1-based page of items. A page past the end is empty.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page <= 0 || pageSize <= 0 || len(items) == 0 {
		return nil
	}
	// (page-1)*pageSize must not overflow, so bound page by division first.
	if page-1 > (len(items)-1)/pageSize {
		return nil
	}
	offset := (page - 1) * pageSize
	end := len(items)
	if pageSize < end-offset {
		end = offset + pageSize
	}
	return items[offset:end]
}
