package service

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/pkg/crypto"
	"customer_index/pkg/logger"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const snapshotTimeLayout = "20060102T150405Z"

var ErrPublisherClosed = errors.New("snapshot publisher is closed")

// ObjectUploader stores one named object and returns where it landed.
type ObjectUploader interface {
	Upload(ctx context.Context, name string, data []byte, metadata map[string]string) (string, error)
}

type SnapshotMessage struct {
	Name      string
	Data      []byte
	Metadata  map[string]string
	CreatedAt time.Time
}

// SnapshotPublisher uploads built index snapshots in the background. Upload
// failures are logged and never retried.
type SnapshotPublisher struct {
	uploader     ObjectUploader
	signer       *crypto.Signer
	queue        chan SnapshotMessage
	workers      int
	shutdownChan chan struct{}
	closeOnce    sync.Once
	wg           sync.WaitGroup
	logger       zerolog.Logger
}

func NewSnapshotPublisher(uploader ObjectUploader, signer *crypto.Signer, workers int, log zerolog.Logger) *SnapshotPublisher {
	if workers <= 0 {
		workers = 1
	}

	p := &SnapshotPublisher{
		uploader:     uploader,
		signer:       signer,
		queue:        make(chan SnapshotMessage, 16),
		workers:      workers,
		shutdownChan: make(chan struct{}),
		logger:       logger.Component(log, "snapshot_publisher"),
	}

	p.startWorkers()

	return p
}

// SnapshotName is the object name of a snapshot: its build time followed by
// a fingerprint prefix.
func SnapshotName(index *domain.CustomerIndex) string {
	fp := index.Fingerprint
	if len(fp) > 12 {
		fp = fp[:12]
	}
	return fmt.Sprintf("%s-%s.json", index.BuiltAt.UTC().Format(snapshotTimeLayout), fp)
}

func (p *SnapshotPublisher) Publish(ctx context.Context, index *domain.CustomerIndex) error {
	select {
	case <-p.shutdownChan:
		return ErrPublisherClosed
	default:
	}

	data, err := domain.EncodeSummaries(index.Summaries)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	msg := SnapshotMessage{
		Name: SnapshotName(index),
		Data: data,
		Metadata: map[string]string{
			"fingerprint": index.Fingerprint,
			"built_at":    index.BuiltAt.UTC().Format(time.RFC3339),
			"customers":   strconv.Itoa(index.Len()),
		},
		CreatedAt: time.Now(),
	}
	if p.signer.Enabled() {
		msg.Metadata["signature"] = p.signer.Sign(data)
	}

	select {
	case p.queue <- msg:
		p.logger.Info().
			Str("object", msg.Name).
			Int("customers", index.Len()).
			Msg("Snapshot queued")
		return nil
	case <-p.shutdownChan:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *SnapshotPublisher) startWorkers() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *SnapshotPublisher) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug().Int("worker_id", id).Msg("Snapshot worker started")

	for {
		select {
		case msg := <-p.queue:
			p.upload(msg, id)
		case <-p.shutdownChan:
			p.drain(id)
			p.logger.Debug().Int("worker_id", id).Msg("Snapshot worker stopping")
			return
		}
	}
}

func (p *SnapshotPublisher) drain(workerID int) {
	for {
		select {
		case msg := <-p.queue:
			p.upload(msg, workerID)
		default:
			return
		}
	}
}

func (p *SnapshotPublisher) upload(msg SnapshotMessage, workerID int) {
	startTime := time.Now()

	uri, err := p.uploader.Upload(context.Background(), msg.Name, msg.Data, msg.Metadata)
	duration := time.Since(startTime)

	if err != nil {
		p.logger.Error().
			Err(err).
			Str("object", msg.Name).
			Int("worker_id", workerID).
			Dur("duration", duration).
			Msg("Failed to upload snapshot")
		return
	}

	p.logger.Info().
		Str("uri", uri).
		Int("bytes", len(msg.Data)).
		Int("worker_id", workerID).
		Dur("duration", duration).
		Msg("Snapshot uploaded")
}

func (p *SnapshotPublisher) Shutdown(ctx context.Context) error {
	p.closeOnce.Do(func() { close(p.shutdownChan) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info().Msg("Snapshot publisher shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
