package service

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/processor"
	"customer_index/internal/repository"
	"customer_index/pkg/logger"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrIndexNotInitialized = errors.New("index not initialized")

const (
	OriginBuilt  = "built"
	OriginLoaded = "loaded"
)

// SnapshotSink receives every index produced by a rebuild.
type SnapshotSink interface {
	Publish(ctx context.Context, index *domain.CustomerIndex) error
}

type IndexInfo struct {
	Ready       bool      `json:"ready"`
	Backend     string    `json:"backend"`
	Origin      string    `json:"origin,omitempty"`
	Customers   int       `json:"customers"`
	BuiltAt     time.Time `json:"builtAt"`
	Fingerprint string    `json:"fingerprint,omitempty"`
}

// IndexService owns the index lifecycle and the in-memory snapshot that
// queries read. Snapshots are replaced whole, never mutated.
type IndexService struct {
	builder *processor.IndexBuilder
	store   repository.IndexStore
	sink    SnapshotSink
	backend string
	logger  zerolog.Logger

	// rebuildMu keeps persist and swap in the same order across rebuilds.
	rebuildMu sync.Mutex

	mu      sync.RWMutex
	current *domain.CustomerIndex
	origin  string
}

func NewIndexService(
	builder *processor.IndexBuilder,
	store repository.IndexStore,
	backend string,
	sink SnapshotSink,
	log zerolog.Logger,
) *IndexService {
	return &IndexService{
		builder: builder,
		store:   store,
		sink:    sink,
		backend: backend,
		logger:  logger.Component(log, "index_service"),
	}
}

// Initialize loads the persisted index, building it first when none exists.
// An unreadable index is rebuilt.
func (s *IndexService) Initialize(ctx context.Context) error {
	exists, err := s.store.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}

	if !exists {
		s.logger.Info().Msg("No persisted index found, building")
		_, err := s.Rebuild(ctx)
		return err
	}

	summaries, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Persisted index unreadable, rebuilding")
		_, err := s.Rebuild(ctx)
		return err
	}

	index, err := processor.NewCustomerIndex(summaries, time.Now())
	if err != nil {
		return err
	}
	s.swap(index, OriginLoaded)

	s.logger.Info().
		Int("customers", index.Len()).
		Str("fingerprint", index.Fingerprint).
		Msg("Index loaded")

	return nil
}

// Rebuild scans every source, persists the result and swaps it in. On
// failure the previous snapshot keeps serving.
func (s *IndexService) Rebuild(ctx context.Context) (*processor.BuildResult, error) {
	result, err := s.buildAndSwap(ctx)
	if err != nil {
		return nil, err
	}

	if s.sink != nil {
		if err := s.sink.Publish(ctx, result.Index); err != nil {
			s.logger.Warn().Err(err).Str("build_id", result.BuildID).Msg("Failed to publish snapshot")
		}
	}

	return result, nil
}

// Snapshot returns the index currently served. Callers must not modify it.
func (s *IndexService) Snapshot(ctx context.Context) (*domain.CustomerIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, ErrIndexNotInitialized
	}
	return s.current, nil
}

func (s *IndexService) Summaries(ctx context.Context) ([]domain.CustomerSummary, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.Summaries, nil
}

func (s *IndexService) Info() IndexInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := IndexInfo{Backend: s.backend}
	if s.current == nil {
		return info
	}

	info.Ready = true
	info.Origin = s.origin
	info.Customers = s.current.Len()
	info.BuiltAt = s.current.BuiltAt
	info.Fingerprint = s.current.Fingerprint
	return info
}

func (s *IndexService) buildAndSwap(ctx context.Context) (*processor.BuildResult, error) {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	result, err := s.builder.Build(ctx)
	if err != nil {
		return nil, err
	}

	s.swap(result.Index, OriginBuilt)
	return result, nil
}

func (s *IndexService) swap(index *domain.CustomerIndex, origin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = index
	s.origin = origin
}

// RebuildJob adapts Rebuild to a scheduled job. Each run is bounded by
// timeout.
func (s *IndexService) RebuildJob(timeout time.Duration) *RebuildJob {
	return &RebuildJob{service: s, timeout: timeout}
}

type RebuildJob struct {
	service *IndexService
	timeout time.Duration
}

func (j *RebuildJob) Name() string {
	return "index_rebuild"
}

func (j *RebuildJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	_, err := j.service.Rebuild(ctx)
	return err
}
