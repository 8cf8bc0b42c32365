package processor

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"customer_index/pkg/crypto"
	"customer_index/pkg/logger"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultBuildWorkers = 4

type BuildRecorder interface {
	RecordBuild(duration time.Duration, customers, skipped int, success bool)
}

type BuildResult struct {
	BuildID        string
	Index          *domain.CustomerIndex
	SourcesScanned int
	SkippedSources []string
	Duration       time.Duration
}

// IndexBuilder scans every source in a RecordStore and persists the
// resulting summaries as one index. Builds are serialized.
type IndexBuilder struct {
	records    repository.RecordStore
	index      repository.IndexStore
	maxWorkers int
	metrics    BuildRecorder
	logger     zerolog.Logger
	mu         sync.Mutex
	now        func() time.Time
}

func NewIndexBuilder(
	records repository.RecordStore,
	index repository.IndexStore,
	maxWorkers int,
	log zerolog.Logger,
	metrics BuildRecorder,
) *IndexBuilder {
	if maxWorkers <= 0 {
		maxWorkers = DefaultBuildWorkers
	}

	return &IndexBuilder{
		records:    records,
		index:      index,
		maxWorkers: maxWorkers,
		metrics:    metrics,
		logger:     logger.Component(log, "index_builder"),
		now:        time.Now,
	}
}

func (b *IndexBuilder) Build(ctx context.Context) (*BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buildID := uuid.NewString()
	start := b.now()
	log := b.logger.With().Str("build_id", buildID).Logger()

	log.Info().Msg("Index build started")

	result, err := b.build(ctx, buildID)
	duration := b.now().Sub(start)

	if err != nil {
		b.record(duration, 0, 0, false)
		log.Error().Err(err).Dur("duration", duration).Msg("Index build failed")
		return nil, err
	}

	result.Duration = duration
	b.record(duration, result.Index.Len(), len(result.SkippedSources), true)

	log.Info().
		Int("sources", result.SourcesScanned).
		Int("customers", result.Index.Len()).
		Int("skipped", len(result.SkippedSources)).
		Dur("duration", duration).
		Msg("Index build completed")

	return result, nil
}

func (b *IndexBuilder) build(ctx context.Context, buildID string) (*BuildResult, error) {
	sources, err := b.records.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	type slot struct {
		summary domain.CustomerSummary
		ok      bool
	}
	slots := make([]slot, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.maxWorkers)

	for i, sourceID := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			records, err := b.records.Load(gctx, sourceID)
			if err != nil {
				return fmt.Errorf("failed to load source %s: %w", sourceID, err)
			}

			summary, ok := Summarize(sourceID, records)
			slots[i] = slot{summary: summary, ok: ok}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]domain.CustomerSummary, 0, len(sources))
	skipped := []string{}
	for i, s := range slots {
		if !s.ok {
			skipped = append(skipped, sources[i])
			b.logger.Debug().Str("build_id", buildID).Str("source", sources[i]).Msg("Skipping empty source")
			continue
		}
		summaries = append(summaries, s.summary)
	}

	domain.SortSummaries(summaries)

	if err := b.index.Save(ctx, summaries); err != nil {
		return nil, fmt.Errorf("failed to persist index: %w", err)
	}

	index, err := NewCustomerIndex(summaries, b.now())
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		BuildID:        buildID,
		Index:          index,
		SourcesScanned: len(sources),
		SkippedSources: skipped,
	}, nil
}

// NewCustomerIndex wraps persisted summaries in a snapshot fingerprinted by
// their canonical encoding.
func NewCustomerIndex(summaries []domain.CustomerSummary, builtAt time.Time) (*domain.CustomerIndex, error) {
	encoded, err := domain.EncodeSummaries(summaries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}

	return &domain.CustomerIndex{
		Summaries:   summaries,
		BuiltAt:     builtAt.UTC(),
		Fingerprint: crypto.Fingerprint(encoded),
	}, nil
}

func (b *IndexBuilder) record(duration time.Duration, customers, skipped int, success bool) {
	if b.metrics != nil {
		b.metrics.RecordBuild(duration, customers, skipped, success)
	}
}
