package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lachiem1/cyclecal/internal/auth"
	appLog "github.com/lachiem1/cyclecal/internal/log"
)

type Mode string

const (
	ModeSecure Mode = "secure"
	ModePlain  Mode = "plain"
)

const schemaVersion = 2

var errSecureUnsupported = errors.New(
	"secure mode requires a sqlcipher-enabled build; rebuild with '-tags sqlcipher'",
)

type Config struct {
	Mode Mode
	Path string
}

// Open resolves the database location from the environment and opens it.
// sqlcipher builds get an encrypted database keyed from the system keyring;
// other builds fall back to a plain modernc sqlite file.
func Open(ctx context.Context) (*sql.DB, Config, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return nil, Config{}, err
	}
	db, err := OpenWithConfig(ctx, cfg)
	if err != nil {
		return nil, Config{}, err
	}
	return db, cfg, nil
}

// OpenWithConfig opens the database at cfg.Path in cfg.Mode and migrates it.
func OpenWithConfig(ctx context.Context, cfg Config) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Mode {
	case ModeSecure:
		db, err = openSecure(cfg.Path)
	case ModePlain:
		db, err = openPlainSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openSecure(path string) (*sql.DB, error) {
	if !secureSQLiteSupported() {
		return nil, errSecureUnsupported
	}

	key, created, err := ensureDBKey()
	if err != nil {
		return nil, fmt.Errorf("ensure secure db key: %w", err)
	}
	if created {
		// A database encrypted under a lost key is unreadable; start over.
		existed, err := hasLocalDBFiles(path)
		if err != nil {
			return nil, err
		}
		if existed {
			appLog.Info("new db key created; discarding existing local cache", "path", path)
		}
		if err := resetLocalDBFiles(path); err != nil {
			return nil, fmt.Errorf("reset db after key creation: %w", err)
		}
	}
	return openSecureSQLite(path, key)
}

// Wipe removes local database files for the resolved DB path.
func Wipe() (Config, error) {
	cfg, err := configFromEnv()
	if err != nil {
		return Config{}, err
	}
	if err := resetLocalDBFiles(cfg.Path); err != nil {
		return Config{}, fmt.Errorf("wipe local db files: %w", err)
	}
	return cfg, nil
}

func configFromEnv() (Config, error) {
	mode := ModePlain
	if secureSQLiteSupported() {
		mode = ModeSecure
	}

	if dbPath := strings.TrimSpace(os.Getenv("CYCLECAL_DB_PATH")); dbPath != "" {
		return Config{
			Mode: mode,
			Path: dbPath,
		}, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve user config directory: %w", err)
	}

	return Config{
		Mode: mode,
		Path: filepath.Join(configDir, "cyclecal", "cyclecal.db"),
	}, nil
}

func ensureDBKey() (key string, created bool, err error) {
	key, err = auth.LoadDBKey()
	if err == nil && strings.TrimSpace(key) != "" {
		return key, false, nil
	}

	newKey, err := generateRandomKey()
	if err != nil {
		return "", false, err
	}

	if err := auth.SaveDBKey(newKey); err != nil {
		return "", false, err
	}
	return newKey, true, nil
}

func generateRandomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  version INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_migrations (id, version) VALUES (1, 1);
`
	if _, err := db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}

	var currentVersion int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE id = 1").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read sqlite schema version: %w", err)
	}

	if currentVersion > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, schemaVersion)
	}
	if currentVersion < 2 {
		if err := applyV2Migrations(ctx, db); err != nil {
			return err
		}
	}
	return nil
}

func applyV2Migrations(ctx context.Context, db *sql.DB) (err error) {
	const schema = `
CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
  source TEXT PRIMARY KEY,
  window_from TEXT,
  window_to TEXT,
  last_success_at TEXT,
  last_attempt_at TEXT,
  last_error TEXT
);

CREATE TABLE IF NOT EXISTS phase_forecasts (
  user_id TEXT NOT NULL,
  date TEXT NOT NULL,
  phase TEXT NOT NULL,
  confidence REAL NOT NULL DEFAULT 0,
  last_fetched_at TEXT NOT NULL,
  PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS cycle_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  date TEXT NOT NULL,
  event_type TEXT NOT NULL,
  last_fetched_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycle_events_user_date ON cycle_events(user_id, date);

CREATE TABLE IF NOT EXISTS symptom_logs (
  user_id TEXT NOT NULL,
  date TEXT NOT NULL,
  mood INTEGER,
  energy INTEGER,
  sleep INTEGER,
  cramps INTEGER,
  bloating INTEGER,
  headache INTEGER NOT NULL DEFAULT 0 CHECK (headache IN (0,1)),
  breast_tenderness INTEGER NOT NULL DEFAULT 0 CHECK (breast_tenderness IN (0,1)),
  nausea INTEGER NOT NULL DEFAULT 0 CHECK (nausea IN (0,1)),
  gas INTEGER NOT NULL DEFAULT 0 CHECK (gas IN (0,1)),
  toilet_issues INTEGER NOT NULL DEFAULT 0 CHECK (toilet_issues IN (0,1)),
  hot_flushes INTEGER NOT NULL DEFAULT 0 CHECK (hot_flushes IN (0,1)),
  chills INTEGER NOT NULL DEFAULT 0 CHECK (chills IN (0,1)),
  stress_headache INTEGER NOT NULL DEFAULT 0 CHECK (stress_headache IN (0,1)),
  dizziness INTEGER NOT NULL DEFAULT 0 CHECK (dizziness IN (0,1)),
  ovulation INTEGER NOT NULL DEFAULT 0 CHECK (ovulation IN (0,1)),
  bleeding_flow TEXT NOT NULL DEFAULT '',
  craving_types TEXT NOT NULL DEFAULT '[]',
  mood_states TEXT NOT NULL DEFAULT '[]',
  notes TEXT NOT NULL DEFAULT '',
  last_fetched_at TEXT NOT NULL,
  PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS training_logs (
  user_id TEXT NOT NULL,
  date TEXT NOT NULL,
  training_load TEXT NOT NULL DEFAULT '',
  soreness INTEGER,
  fatigue INTEGER,
  workout_types TEXT NOT NULL DEFAULT '[]',
  pb_type TEXT NOT NULL DEFAULT '',
  pb_value TEXT NOT NULL DEFAULT '',
  notes TEXT NOT NULL DEFAULT '',
  last_fetched_at TEXT NOT NULL,
  PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS reminder_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  user_id TEXT NOT NULL,
  occurred_at TEXT NOT NULL,
  status TEXT NOT NULL,
  channel TEXT NOT NULL DEFAULT '',
  last_fetched_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reminder_events_user_occurred ON reminder_events(user_id, occurred_at);
`
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v2 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run sqlite v2 migrations: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 2 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 2: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v2 migrations: %w", err)
	}
	return nil
}

func localDBFiles(path string) []string {
	return []string{
		path,
		path + "-wal",
		path + "-shm",
	}
}

func hasLocalDBFiles(path string) (bool, error) {
	for _, p := range localDBFiles(path) {
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("stat %s: %w", p, err)
		}
	}
	return false, nil
}

func resetLocalDBFiles(path string) error {
	for _, p := range localDBFiles(path) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
