// Package sqlindex persists the customer index in a SQLite database. Each
// Save replaces the whole snapshot inside one transaction.
package sqlindex

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS index_snapshot (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	built_at   TEXT    NOT NULL,
	customers  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS customer_summaries (
	position             INTEGER PRIMARY KEY,
	customer_id          TEXT    NOT NULL,
	source_id            TEXT    NOT NULL,
	credit_limit         REAL    NOT NULL,
	acq_country          TEXT    NOT NULL,
	txn_count            INTEGER NOT NULL,
	activity_window_days INTEGER NOT NULL,
	total_spend          REAL    NOT NULL
);
`

var _ repository.IndexStore = (*Store)(nil)

type Store struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open creates the database file if needed and applies the schema.
func Open(path string) (*Store, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve index database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", buildConnectionString(absPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping index database: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to apply index schema: %w", err)
	}

	return &Store{conn: conn, path: absPath, now: time.Now}, nil
}

func buildConnectionString(path string) string {
	connStr := path + "?_pragma=journal_mode(WAL)"
	connStr += "&_pragma=synchronous(NORMAL)"
	connStr += "&_pragma=busy_timeout(5000)"
	return connStr
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Exists(ctx context.Context) (bool, error) {
	var n int
	if err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_snapshot`).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check index snapshot: %w", err)
	}
	return n > 0, nil
}

func (s *Store) Load(ctx context.Context) ([]domain.CustomerSummary, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin read: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM index_snapshot`).Scan(&n); err != nil {
		return nil, fmt.Errorf("failed to check index snapshot: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrIndexNotFound, s.path)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT customer_id, source_id, credit_limit, acq_country, txn_count, activity_window_days, total_spend
		FROM customer_summaries
		ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []domain.CustomerSummary{}
	for rows.Next() {
		var cs domain.CustomerSummary
		if err := rows.Scan(
			&cs.CustomerID,
			&cs.SourceID,
			&cs.CreditLimit,
			&cs.AcqCountry,
			&cs.TxnCount,
			&cs.ActivityWindowDays,
			&cs.TotalSpend,
		); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read summaries: %w", err)
	}

	return summaries, nil
}

func (s *Store) Save(ctx context.Context, summaries []domain.CustomerSummary) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_summaries`); err != nil {
		return fmt.Errorf("failed to clear summaries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO customer_summaries
			(position, customer_id, source_id, credit_limit, acq_country, txn_count, activity_window_days, total_spend)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, cs := range summaries {
		if _, err := stmt.ExecContext(ctx,
			i,
			cs.CustomerID,
			cs.SourceID,
			cs.CreditLimit,
			cs.AcqCountry,
			cs.TxnCount,
			cs.ActivityWindowDays,
			cs.TotalSpend,
		); err != nil {
			return fmt.Errorf("failed to insert summary %s: %w", cs.CustomerID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_snapshot (id, built_at, customers) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET built_at = excluded.built_at, customers = excluded.customers`,
		s.now().UTC().Format(time.RFC3339), len(summaries),
	); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index: %w", err)
	}
	return nil
}
