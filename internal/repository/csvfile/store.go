// Package csvfile reads per-customer transaction sources stored as one CSV
// file per customer in a single directory.
package csvfile

import (
	"context"
	"customer_index/internal/domain"
	"customer_index/internal/repository"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const sourceExt = ".csv"

const (
	colCustomerID     = "customerId"
	colCreditLimit    = "creditLimit"
	colAcqCountry     = "acqCountry"
	colDateTime       = "transactionDateTime"
	colAvailableMoney = "availableMoney"
	colAmount         = "transactionAmount"
)

var requiredColumns = []string{colCustomerID, colDateTime, colAvailableMoney, colAmount}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var _ repository.RecordStore = (*Store)(nil)

type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// ListSources returns the ids (file names without extension) of every
// source in the directory, sorted lexicographically.
func (s *Store) ListSources(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: directory %s: %v", repository.ErrSourceNotFound, s.dir, err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), sourceExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	sort.Strings(ids)

	return ids, nil
}

func (s *Store) Load(ctx context.Context, sourceID string) ([]domain.TransactionRecord, error) {
	path, err := s.resolve(sourceID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: source %s", repository.ErrSourceNotFound, sourceID)
		}
		return nil, fmt.Errorf("open source %s: %w", sourceID, err)
	}
	defer f.Close()

	return parse(ctx, sourceID, f)
}

func (s *Store) resolve(sourceID string) (string, error) {
	if sourceID == "" || strings.ContainsAny(sourceID, `/\`) || sourceID == "." || sourceID == ".." {
		return "", fmt.Errorf("%w: invalid source id %q", repository.ErrSourceNotFound, sourceID)
	}

	path := filepath.Join(s.dir, sourceID+sourceExt)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	// ListSources matches the extension case-insensitively.
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("%w: directory %s: %v", repository.ErrSourceNotFound, s.dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(name), sourceExt) &&
			strings.TrimSuffix(name, filepath.Ext(name)) == sourceID {
			return filepath.Join(s.dir, name), nil
		}
	}

	return path, nil
}

func parse(ctx context.Context, sourceID string, r io.Reader) ([]domain.TransactionRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []domain.TransactionRecord{}, nil
	}
	if err != nil {
		return nil, malformed(sourceID, 0, "", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, malformed(sourceID, 0, name, errors.New("missing column"))
		}
	}

	records := []domain.TransactionRecord{}
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, malformed(sourceID, row, "", err)
		}

		rec, err := parseRow(fields, cols)
		if err == nil && row == 1 {
			err = parseStatic(&rec, fields, cols)
		}
		if err != nil {
			var fe *fieldError
			if errors.As(err, &fe) {
				return nil, malformed(sourceID, row, fe.column, fe.err)
			}
			return nil, malformed(sourceID, row, "", err)
		}
		if row > 1 {
			rec.CustomerID = records[0].CustomerID
			rec.CreditLimit = records[0].CreditLimit
			rec.AcqCountry = records[0].AcqCountry
		}
		records = append(records, rec)
	}

	return records, nil
}

type fieldError struct {
	column string
	err    error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.column, e.err)
}

func parseRow(row []string, cols map[string]int) (domain.TransactionRecord, error) {
	rec := domain.TransactionRecord{CustomerID: cell(row, cols, colCustomerID)}

	ts, err := ParseTimestamp(cell(row, cols, colDateTime))
	if err != nil {
		return rec, &fieldError{column: colDateTime, err: err}
	}
	rec.Timestamp = ts

	if rec.AvailableMoney, err = parseFloat(cell(row, cols, colAvailableMoney)); err != nil {
		return rec, &fieldError{column: colAvailableMoney, err: err}
	}
	if rec.Amount, err = parseFloat(cell(row, cols, colAmount)); err != nil {
		return rec, &fieldError{column: colAmount, err: err}
	}

	return rec, nil
}

// parseStatic reads the customer fields. Only the first row is consulted;
// later rows inherit its values. A missing column or empty cell falls back
// to the zero value.
func parseStatic(rec *domain.TransactionRecord, row []string, cols map[string]int) error {
	rec.AcqCountry = cell(row, cols, colAcqCountry)
	if raw := cell(row, cols, colCreditLimit); raw != "" {
		limit, err := parseFloat(raw)
		if err != nil {
			return &fieldError{column: colCreditLimit, err: err}
		}
		rec.CreditLimit = limit
	}
	return nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("empty value")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return v, nil
}

// ParseTimestamp accepts RFC 3339 and the common ISO-like layouts with or
// without a time part. Values are normalized to UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// malformed wraps a parse failure; row 0 is the header.
func malformed(sourceID string, row int, column string, err error) error {
	if column != "" {
		return fmt.Errorf("%w: source %s row %d column %s: %v", repository.ErrMalformedRecord, sourceID, row, column, err)
	}
	return fmt.Errorf("%w: source %s row %d: %v", repository.ErrMalformedRecord, sourceID, row, err)
}
