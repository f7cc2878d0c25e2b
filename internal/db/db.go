package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harms-haus/memoriae/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Init initializes the SQLite database at baseDir/memoriae.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.memoriae.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	// Explicit chmod (best-effort, may not work on all platforms)
	_ = os.Chmod(baseDir, 0700)

	// Open database with pragmas in connection string (applies to all connections)
	dbPath := filepath.Join(baseDir, "memoriae.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Set file permissions after file exists (best-effort)
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS seeds (
		  id         TEXT PRIMARY KEY,
		  user_id    TEXT NOT NULL,
		  created_at INTEGER NOT NULL,
		  deleted_at INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_seeds_user
		ON seeds(user_id, created_at DESC)
		WHERE deleted_at IS NULL;

		CREATE TABLE IF NOT EXISTS seed_transactions (
		  id           TEXT PRIMARY KEY,
		  seed_id      TEXT NOT NULL REFERENCES seeds(id),
		  tx_type      TEXT NOT NULL,
		  payload_json TEXT NOT NULL,
		  created_at   INTEGER NOT NULL,
		  seq          INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_seed_transactions_seed
		ON seed_transactions(seed_id, created_at, seq);

		CREATE TABLE IF NOT EXISTS categories (
		  id         TEXT PRIMARY KEY,
		  user_id    TEXT NOT NULL,
		  name       TEXT NOT NULL,
		  name_norm  TEXT NOT NULL,
		  path       TEXT NOT NULL,
		  parent_id  TEXT,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_user_path
		ON categories(user_id, path);

		CREATE INDEX IF NOT EXISTS idx_categories_parent
		ON categories(parent_id)
		WHERE parent_id IS NOT NULL;

		CREATE TABLE IF NOT EXISTS seed_categories (
		  seed_id     TEXT NOT NULL REFERENCES seeds(id),
		  category_id TEXT NOT NULL,
		  PRIMARY KEY (seed_id, category_id)
		);

		CREATE INDEX IF NOT EXISTS idx_seed_categories_category
		ON seed_categories(category_id);

		CREATE TABLE IF NOT EXISTS pressure_points (
		  seed_id       TEXT NOT NULL,
		  automation_id TEXT NOT NULL,
		  amount        REAL NOT NULL DEFAULT 0,
		  updated_at    INTEGER NOT NULL,
		  PRIMARY KEY (seed_id, automation_id)
		);

		CREATE TABLE IF NOT EXISTS jobs (
		  key           TEXT PRIMARY KEY,
		  automation_id TEXT NOT NULL,
		  seed_id       TEXT NOT NULL,
		  user_id       TEXT NOT NULL,
		  priority      INTEGER NOT NULL DEFAULT 0,
		  state         TEXT NOT NULL DEFAULT 'pending',
		  attempts      INTEGER NOT NULL DEFAULT 0,
		  last_error    TEXT,
		  run_after     INTEGER NOT NULL DEFAULT 0,
		  created_at    INTEGER NOT NULL,
		  updated_at    INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_jobs_ready
		ON jobs(state, run_after, priority DESC, created_at);

		CREATE TABLE IF NOT EXISTS user_settings (
		  user_id       TEXT PRIMARY KEY,
		  llm_base_url  TEXT,
		  llm_api_key   TEXT,
		  llm_model     TEXT,
		  updated_at    INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
