// Package app assembles the components shared by the server and the
// one-shot reindex command.
package app

import (
	"customer_index/internal/config"
	"customer_index/internal/processor"
	"customer_index/internal/repository"
	"customer_index/internal/repository/csvfile"
	"customer_index/internal/repository/jsonindex"
	"customer_index/internal/repository/sqlindex"
	"fmt"

	"github.com/rs/zerolog"
)

type Stores struct {
	Records repository.RecordStore
	Index   repository.IndexStore
	closers []func() error
}

func OpenStores(cfg *config.Config) (*Stores, error) {
	stores := &Stores{Records: csvfile.NewStore(cfg.SourceDir)}

	switch cfg.IndexBackend {
	case config.BackendSQLite:
		db, err := sqlindex.Open(cfg.IndexPath)
		if err != nil {
			return nil, err
		}
		stores.Index = db
		stores.closers = append(stores.closers, db.Close)
	case config.BackendJSON:
		stores.Index = jsonindex.NewStore(cfg.IndexPath)
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.IndexBackend)
	}

	return stores, nil
}

func (s *Stores) Close() error {
	var firstErr error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func NewBuilder(cfg *config.Config, stores *Stores, log zerolog.Logger, metrics processor.BuildRecorder) *processor.IndexBuilder {
	return processor.NewIndexBuilder(stores.Records, stores.Index, cfg.BuildWorkers, log, metrics)
}
