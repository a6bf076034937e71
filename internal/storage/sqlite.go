package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures the run ledger tables exist. The path must be on local disk.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := validateSQLiteFilesystem(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
	} {
		if _, err := db.ExecContext(pctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS host_runs (
  id              TEXT PRIMARY KEY,
  binary_name     TEXT NOT NULL,
  l2_chain_id     INTEGER NOT NULL,
  l2_block_number INTEGER NOT NULL,
  l2_claim        TEXT NOT NULL,
  data_dir        TEXT,
  args            JSON NOT NULL,
  cache_mode      TEXT NOT NULL,
  status          TEXT NOT NULL,
  pid             INTEGER,
  exit_code       INTEGER,
  signal          TEXT,
  elapsed_ms      INTEGER,
  preimage_count  INTEGER,
  fingerprint     TEXT,
  last_error      TEXT,
  started_at      TEXT NOT NULL,
  completed_at    TEXT
);`,
		`CREATE INDEX IF NOT EXISTS host_runs_started_at_idx ON host_runs(started_at);`,
		`CREATE INDEX IF NOT EXISTS host_runs_chain_block_idx ON host_runs(l2_chain_id, l2_block_number);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}
