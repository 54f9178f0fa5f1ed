package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"issuegrid/internal/config"
	"issuegrid/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes. Old caches are not
// migrated; they are discarded and refetched.
const schemaVersion = 1

// ErrSchemaMismatch reports a cache written by another schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	version, err := s.readVersion(ctx)
	if err != nil {
		return err
	}
	switch version {
	case 0:
		return s.createSchema(ctx)
	case schemaVersion:
		return nil
	default:
		return fmt.Errorf("%w: %s has version %d, want %d",
			ErrSchemaMismatch, s.path, version, schemaVersion)
	}
}

// readVersion returns 0 for a database without a schema_version table.
func (s *Store) readVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == nil:
		return version, nil
	case errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("read schema version: %s has an empty schema_version table", s.path)
	}

	var tables int
	if probeErr := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tables); probeErr != nil {
		return 0, fmt.Errorf("check schema_version table: %w", probeErr)
	}
	if tables == 0 {
		return 0, nil
	}
	return 0, fmt.Errorf("read schema version: %w", err)
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// OpenOrRebuild opens the cache and, when it was written by another schema
// version, deletes it and starts empty. Cached listings are refetched on the
// next refresh.
func OpenOrRebuild(cfg *config.Config, logger *slog.Logger) (*Store, error) {
	st, err := Open(cfg)
	if !errors.Is(err, ErrSchemaMismatch) {
		return st, err
	}
	path := cfg.DatabasePath()
	logging.WarnWithContext(logger, "discarding outdated issue cache", "cache_rebuilt",
		logging.Error(err),
		logging.String("path", path),
		logging.String(logging.FieldImpact, "issues are refetched on the next refresh"),
	)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if rmErr := os.Remove(path + suffix); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			return nil, fmt.Errorf("remove outdated cache: %w", rmErr)
		}
	}
	return OpenPath(path)
}
