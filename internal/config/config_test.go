package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_EnvVarsPopulateConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("SEARCH_RATE_PER_SEC", "2.5")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Fatalf("unexpected database url: %q", cfg.DatabaseURL)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("expected MAX_ATTEMPTS=5, got %d", cfg.MaxAttempts)
	}
	if cfg.SearchRatePerSecond != 2.5 {
		t.Fatalf("expected SEARCH_RATE_PER_SEC=2.5, got %v", cfg.SearchRatePerSecond)
	}
	if cfg.MaxSearches != defaultMaxSearches {
		t.Fatalf("expected default MAX_SEARCHES, got %d", cfg.MaxSearches)
	}
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("MAX_ATTEMPTS", "5")

	cfg, err := Load([]string{"-max-attempts", "7"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxAttempts != 7 {
		t.Fatalf("expected flag to win with MAX_ATTEMPTS=7, got %d", cfg.MaxAttempts)
	}
}

func TestLoad_FileFillsGapsButNeverOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "researchd.yaml")
	contents := []byte(`
database:
  url: postgres://file/db
budgets:
  maxAttempts: 9
  baseDocs: 11
`)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("MAX_ATTEMPTS", "5")

	cfg, err := Load([]string{"-config", path})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://file/db" {
		t.Fatalf("expected file to fill unset DATABASE_URL, got %q", cfg.DatabaseURL)
	}
	if cfg.MaxAttempts != 5 {
		t.Fatalf("expected env MAX_ATTEMPTS=5 to win over file's 9, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseDocs != 11 {
		t.Fatalf("expected file BaseDocs=11 to fill the unset default, got %d", cfg.BaseDocs)
	}
}

func TestLoad_MissingDatabaseURLFails(t *testing.T) {
	if _, err := Load(nil); err == nil {
		t.Fatalf("expected error when DATABASE_URL is unset")
	}
}
