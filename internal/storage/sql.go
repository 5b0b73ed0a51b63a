package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS device_records (
		vendor     TEXT NOT NULL,
		device     TEXT NOT NULL,
		position   INTEGER NOT NULL,
		record     TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (vendor, device)
	)`,
	`CREATE TABLE IF NOT EXISTS document_texts (
		id         TEXT PRIMARY KEY,
		vendor     TEXT NOT NULL,
		device     TEXT NOT NULL,
		body       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS extraction_runs (
		id          TEXT PRIMARY KEY,
		vendor      TEXT NOT NULL,
		devices     INTEGER NOT NULL,
		fallbacks   INTEGER NOT NULL,
		failures    INTEGER NOT NULL,
		started_at  TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	)`,
}

// Open connects to a database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLStore keeps collections in SQLite or Postgres. Each device is one row holding
// the record JSON; position preserves collection order.
type SQLStore struct {
	db    DB
	close func() error
}

// NewSQLStore wraps an open database. Call Migrate before first use.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, close: db.Close}
}

func newMigratedSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Load reads a vendor's collection in stored order.
func (s *SQLStore) Load(ctx context.Context, vendor string) (*features.Collection, error) {
	query := `
		SELECT device, record FROM device_records
		WHERE vendor = $1
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, vendor)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	coll := features.NewCollection(vendor)
	for rows.Next() {
		var device, body string
		if err := rows.Scan(&device, &body); err != nil {
			return nil, err
		}
		r := features.NewRecord(device)
		if err := r.UnmarshalJSON([]byte(body)); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", device, err)
		}
		if err := coll.Add(r); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if coll.Len() == 0 {
		return nil, fmt.Errorf("%w: collection for vendor %s", ErrNotFound, vendor)
	}
	return coll, nil
}

// Save replaces the vendor's collection in one transaction.
func (s *SQLStore) Save(ctx context.Context, coll *features.Collection) error {
	if coll.Vendor == "" {
		return fmt.Errorf("%w: empty vendor", ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM device_records WHERE vendor = $1`, coll.Vendor); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	insert := `
		INSERT INTO device_records (vendor, device, position, record, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	now := time.Now().UTC()
	for i, r := range coll.Records() {
		body, err := r.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode record %s: %w", r.Device, err)
		}
		if _, err := tx.ExecContext(ctx, insert, coll.Vendor, r.Device, i, string(body), now); err != nil {
			return fmt.Errorf("insert record %s: %w", r.Device, err)
		}
	}
	return tx.Commit()
}

// ListVendors returns vendors with at least one record, sorted.
func (s *SQLStore) ListVendors(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT vendor FROM device_records ORDER BY vendor`)
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	vendors := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// SaveText stores cleaned document text.
func (s *SQLStore) SaveText(ctx context.Context, vendor, device, text string) error {
	query := `
		INSERT INTO document_texts (id, vendor, device, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query, uuid.New().String(), vendor, device, text, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert document text: %w", err)
	}
	return nil
}

// LatestText returns the most recently stored text for a device.
func (s *SQLStore) LatestText(ctx context.Context, vendor, device string) (string, error) {
	query := `
		SELECT body FROM document_texts
		WHERE vendor = $1 AND device = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var body string
	err := s.db.QueryRowContext(ctx, query, vendor, device).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return body, err
}

// RecordRun stores an extraction run summary, assigning an ID if missing.
func (s *SQLStore) RecordRun(ctx context.Context, run *ExtractionRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := `
		INSERT INTO extraction_runs (id, vendor, devices, fallbacks, failures, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		run.ID.String(), run.Vendor, run.Devices, run.Fallbacks, run.Failures,
		run.StartedAt.UTC(), run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert extraction run: %w", err)
	}
	return nil
}

// Runs returns a vendor's extraction runs, newest first.
func (s *SQLStore) Runs(ctx context.Context, vendor string) ([]*ExtractionRun, error) {
	query := `
		SELECT id, vendor, devices, fallbacks, failures, started_at, finished_at
		FROM extraction_runs
		WHERE vendor = $1
		ORDER BY started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, vendor)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*ExtractionRun
	for rows.Next() {
		var (
			id  string
			run ExtractionRun
		)
		if err := rows.Scan(&id, &run.Vendor, &run.Devices, &run.Fallbacks, &run.Failures, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
