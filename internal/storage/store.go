// Package storage persists vendor record collections and extraction artifacts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/config"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

// Common errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Store loads and saves one collection per vendor.
type Store interface {
	Load(ctx context.Context, vendor string) (*features.Collection, error)
	Save(ctx context.Context, coll *features.Collection) error
	ListVendors(ctx context.Context) ([]string, error)
	SaveText(ctx context.Context, vendor, device, text string) error
	RecordRun(ctx context.Context, run *ExtractionRun) error
	Close() error
}

// ExtractionRun summarizes one batch extraction.
type ExtractionRun struct {
	ID         uuid.UUID `json:"id"`
	Vendor     string    `json:"vendor"`
	Devices    int       `json:"devices"`
	Fallbacks  int       `json:"fallbacks"`
	Failures   int       `json:"failures"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// New opens the store selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFileStore(cfg.Root), nil
	case "sqlite":
		db, err := Open(ctx, "sqlite3", cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if cfg.SQLite.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.SQLite.MaxOpenConns)
		}
		return newMigratedSQLStore(ctx, db)
	case "postgres":
		db, err := Open(ctx, "postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Postgres.ConnMaxLifetime)
		return newMigratedSQLStore(ctx, db)
	}
	return nil, fmt.Errorf("%w: storage driver %q", ErrInvalidInput, cfg.Driver)
}
