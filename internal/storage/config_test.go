package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestConfigFromEnvOverridePath(t *testing.T) {
	t.Setenv("CYCLECAL_DB_PATH", "/tmp/cyclecal-custom.db")

	cfg, err := configFromEnv()
	if err != nil {
		t.Fatalf("configFromEnv() unexpected error: %v", err)
	}
	wantMode := ModePlain
	if secureSQLiteSupported() {
		wantMode = ModeSecure
	}
	if cfg.Mode != wantMode {
		t.Fatalf("cfg.Mode = %q, want %q", cfg.Mode, wantMode)
	}
	if cfg.Path != "/tmp/cyclecal-custom.db" {
		t.Fatalf("cfg.Path = %q, want %q", cfg.Path, "/tmp/cyclecal-custom.db")
	}
}

func TestOpenWithConfigRejectsUnknownMode(t *testing.T) {
	_, err := OpenWithConfig(context.Background(), Config{Mode: "fancy", Path: filepath.Join(t.TempDir(), "x.db")})
	if err == nil {
		t.Fatal("OpenWithConfig() error = nil, want non-nil")
	}
}

func TestOpenSecureWithoutSQLCipherBuild(t *testing.T) {
	if secureSQLiteSupported() {
		t.Skip("sqlcipher build")
	}
	_, err := OpenWithConfig(context.Background(), Config{Mode: ModeSecure, Path: filepath.Join(t.TempDir(), "x.db")})
	if !errors.Is(err, errSecureUnsupported) {
		t.Fatalf("OpenWithConfig() error = %v, want errSecureUnsupported", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cyclecal.db")

	db, err := OpenWithConfig(ctx, Config{Mode: ModePlain, Path: path})
	if err != nil {
		t.Fatalf("OpenWithConfig() unexpected error: %v", err)
	}
	db.Close()

	db, err = OpenWithConfig(ctx, Config{Mode: ModePlain, Path: path})
	if err != nil {
		t.Fatalf("reopen unexpected error: %v", err)
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("SELECT version FROM schema_migrations WHERE id = 1").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("schema version = %d, want %d", version, schemaVersion)
	}
}

func TestFreshSchemaIncludesPhaseConfidence(t *testing.T) {
	db := openTestDB(t)

	var version int
	if err := db.QueryRow("SELECT version FROM schema_migrations WHERE id = 1").Scan(&version); err != nil {
		t.Fatalf("read schema version: %v", err)
	}
	if version != 2 {
		t.Fatalf("schema version = %d, want 2", version)
	}
	if _, err := db.Exec(
		"INSERT INTO phase_forecasts (user_id, date, phase, confidence, last_fetched_at) VALUES ('u1', '2024-03-01', 'menstrual', 0.5, 'x')",
	); err != nil {
		t.Fatalf("insert phase with confidence: %v", err)
	}
}
