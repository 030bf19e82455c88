package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandeepkv93/lifeos/internal/storage"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.SaveRevert != 500*time.Millisecond || cfg.AutoSyncDebounce != 5*time.Second || cfg.ImportRevert != 2*time.Second {
		t.Fatalf("unexpected timer defaults: %+v", cfg)
	}
	if cfg.StoreBackend != storage.BackendSQLite || cfg.CloudBaseURL != "https://api.jsonbin.io/v3" {
		t.Fatalf("unexpected backend defaults: %+v", cfg)
	}
}

func TestLoadMissingFileDerivesPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LIFEOS_DATA_DIR", dir)
	cfg, err := Load(filepath.Join(dir, "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SQLitePath != filepath.Join(dir, "lifeos.db") || cfg.LogFile != filepath.Join(dir, "lifeos.log") {
		t.Fatalf("expected paths under data dir, got %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "data_dir: " + dir + "\n" +
		"store: memory\n" +
		"autosync_debounce: 2s\n" +
		"save_revert: 250ms\n" +
		"log_level: DEBUG\n" +
		"timer_buffer: 16\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LIFEOS_SAVE_REVERT", "100")
	t.Setenv("LIFEOS_DEBUG", "yes")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.StoreBackend != storage.BackendMemory || cfg.AutoSyncDebounce != 2*time.Second {
		t.Fatalf("expected file values, got %+v", cfg)
	}
	if cfg.SaveRevert != 100*time.Millisecond || !cfg.Debug {
		t.Fatalf("expected env overrides, got %+v", cfg)
	}
	if cfg.LogLevel != "debug" || cfg.TimerBuffer != 16 || cfg.ImportRevert != 2*time.Second {
		t.Fatalf("unexpected merged config: %+v", cfg)
	}
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv("LIFEOS_CONFIG", "/tmp/custom.yaml")
	if got := DefaultPath(); got != "/tmp/custom.yaml" {
		t.Fatalf("unexpected config path %q", got)
	}
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("LIFEOS_AUTOSYNC_DEBOUNCE", "soon")
	t.Setenv("LIFEOS_TIMER_BUFFER", "-4")
	t.Setenv("LIFEOS_DEBUG", "maybe")
	t.Setenv("LIFEOS_IMPORT_REVERT", "3s")

	cfg := FromEnv(Default())
	if cfg.AutoSyncDebounce != 5*time.Second || cfg.TimerBuffer != defaultTimerBuffer || cfg.Debug {
		t.Fatalf("expected invalid env values ignored, got %+v", cfg)
	}
	if cfg.ImportRevert != 3*time.Second {
		t.Fatalf("expected duration override, got %s", cfg.ImportRevert)
	}
}

func TestNormalizeRejectsBadLayouts(t *testing.T) {
	cfg := Default()
	cfg.StoreBackend = "postgres"
	if _, err := cfg.Normalize(); !errors.Is(err, ErrInvalidBackend) {
		t.Fatalf("expected ErrInvalidBackend, got %v", err)
	}

	cfg = Default()
	cfg.StoreBackend = storage.BackendRedis
	if _, err := cfg.Normalize(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for redis without url, got %v", err)
	}

	cfg = Default()
	cfg.ExportDir = "backups"
	cfg.WatchDir = "./backups/"
	if _, err := cfg.Normalize(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for shared dirs, got %v", err)
	}

	cfg = Default()
	cfg.SaveRevert = -time.Second
	cfg.LogMaxBackups = -1
	got, err := cfg.Normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.SaveRevert != 500*time.Millisecond || got.LogMaxBackups != 3 {
		t.Fatalf("expected defaults restored, got %+v", got)
	}
}
