// Package config resolves runtime settings from defaults, an optional YAML
// file and LIFEOS_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sandeepkv93/lifeos/internal/storage"
)

var (
	ErrInvalidBackend = errors.New("config: unknown store backend")
	ErrInvalidConfig  = errors.New("config: invalid configuration")
)

const (
	defaultDirName     = ".lifeos"
	defaultConfigName  = "config.yaml"
	defaultCloudURL    = "https://api.jsonbin.io/v3"
	defaultLogLevel    = "info"
	defaultTimerBuffer = 64
)

type Runtime struct {
	DataDir          string          `mapstructure:"data_dir"`
	StoreBackend     storage.Backend `mapstructure:"store"`
	SQLitePath       string          `mapstructure:"sqlite_path"`
	RedisURL         string          `mapstructure:"redis_url"`
	RedisPrefix      string          `mapstructure:"redis_prefix"`
	CloudBaseURL     string          `mapstructure:"cloud_base_url"`
	CloudTimeout     time.Duration   `mapstructure:"cloud_timeout"`
	SaveRevert       time.Duration   `mapstructure:"save_revert"`
	AutoSyncDebounce time.Duration   `mapstructure:"autosync_debounce"`
	ImportRevert     time.Duration   `mapstructure:"import_revert"`
	TimerBuffer      int             `mapstructure:"timer_buffer"`
	ExportDir        string          `mapstructure:"export_dir"`
	WatchDir         string          `mapstructure:"watch_dir"`
	LogFile          string          `mapstructure:"log_file"`
	LogLevel         string          `mapstructure:"log_level"`
	LogMaxSizeMB     int             `mapstructure:"log_max_size_mb"`
	LogMaxBackups    int             `mapstructure:"log_max_backups"`
	Debug            bool            `mapstructure:"debug"`
}

// Default leaves SQLitePath and LogFile empty; Load derives them from
// DataDir so that moving the data dir moves both.
func Default() Runtime {
	return Runtime{
		DataDir:          defaultDataDir(),
		StoreBackend:     storage.BackendSQLite,
		RedisPrefix:      storage.DefaultRedisPrefix,
		CloudBaseURL:     defaultCloudURL,
		CloudTimeout:     15 * time.Second,
		SaveRevert:       500 * time.Millisecond,
		AutoSyncDebounce: 5 * time.Second,
		ImportRevert:     2 * time.Second,
		TimerBuffer:      defaultTimerBuffer,
		ExportDir:        ".",
		LogLevel:         defaultLogLevel,
		LogMaxSizeMB:     10,
		LogMaxBackups:    3,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return defaultDirName
	}
	return filepath.Join(home, defaultDirName)
}

// DefaultPath is LIFEOS_CONFIG when set, otherwise ~/.lifeos/config.yaml.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv("LIFEOS_CONFIG")); p != "" {
		return p
	}
	return filepath.Join(defaultDataDir(), defaultConfigName)
}

// Load builds the runtime config. An empty path means DefaultPath; a missing
// file is not an error.
func Load(path string) (Runtime, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	if err := loadFile(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Runtime{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg = FromEnv(cfg)
	return cfg.Normalize()
}

func loadFile(path string, cfg *Runtime) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func FromEnv(base Runtime) Runtime {
	cfg := base
	setString(&cfg.DataDir, "LIFEOS_DATA_DIR")
	if v, ok := getEnvString("LIFEOS_STORE"); ok {
		cfg.StoreBackend = storage.Backend(strings.ToLower(v))
	}
	setString(&cfg.SQLitePath, "LIFEOS_SQLITE_PATH")
	setString(&cfg.RedisURL, "LIFEOS_REDIS_URL")
	setString(&cfg.RedisPrefix, "LIFEOS_REDIS_PREFIX")
	setString(&cfg.CloudBaseURL, "LIFEOS_CLOUD_URL")
	setDuration(&cfg.CloudTimeout, "LIFEOS_CLOUD_TIMEOUT")
	setDuration(&cfg.SaveRevert, "LIFEOS_SAVE_REVERT")
	setDuration(&cfg.AutoSyncDebounce, "LIFEOS_AUTOSYNC_DEBOUNCE")
	setDuration(&cfg.ImportRevert, "LIFEOS_IMPORT_REVERT")
	if v, ok := getEnvInt("LIFEOS_TIMER_BUFFER"); ok && v > 0 {
		cfg.TimerBuffer = v
	}
	setString(&cfg.ExportDir, "LIFEOS_EXPORT_DIR")
	setString(&cfg.WatchDir, "LIFEOS_WATCH_DIR")
	setString(&cfg.LogFile, "LIFEOS_LOG_FILE")
	setString(&cfg.LogLevel, "LIFEOS_LOG_LEVEL")
	if v, ok := getEnvInt("LIFEOS_LOG_MAX_SIZE_MB"); ok && v > 0 {
		cfg.LogMaxSizeMB = v
	}
	if v, ok := getEnvInt("LIFEOS_LOG_MAX_BACKUPS"); ok && v >= 0 {
		cfg.LogMaxBackups = v
	}
	if v, ok := getEnvBool("LIFEOS_DEBUG"); ok {
		cfg.Debug = v
	}
	return cfg
}

// Normalize fills derived paths and replaces out-of-range values with
// defaults. An unknown backend or an unusable directory layout is an error.
func (c Runtime) Normalize() (Runtime, error) {
	def := Default()
	c.DataDir = strings.TrimSpace(c.DataDir)
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	c.StoreBackend = storage.Backend(strings.ToLower(strings.TrimSpace(string(c.StoreBackend))))
	if c.StoreBackend == "" {
		c.StoreBackend = def.StoreBackend
	}
	if !c.StoreBackend.IsValid() {
		return Runtime{}, fmt.Errorf("%w: %q", ErrInvalidBackend, c.StoreBackend)
	}
	if c.StoreBackend == storage.BackendRedis && strings.TrimSpace(c.RedisURL) == "" {
		return Runtime{}, fmt.Errorf("%w: redis backend needs redis_url", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.SQLitePath) == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "lifeos.db")
	}
	if strings.TrimSpace(c.LogFile) == "" {
		c.LogFile = filepath.Join(c.DataDir, "lifeos.log")
	}
	if strings.TrimSpace(c.RedisPrefix) == "" {
		c.RedisPrefix = def.RedisPrefix
	}
	if strings.TrimSpace(c.CloudBaseURL) == "" {
		c.CloudBaseURL = def.CloudBaseURL
	}
	positive(&c.CloudTimeout, def.CloudTimeout)
	positive(&c.SaveRevert, def.SaveRevert)
	positive(&c.AutoSyncDebounce, def.AutoSyncDebounce)
	positive(&c.ImportRevert, def.ImportRevert)
	if c.TimerBuffer <= 0 {
		c.TimerBuffer = def.TimerBuffer
	}
	if strings.TrimSpace(c.ExportDir) == "" {
		c.ExportDir = def.ExportDir
	}
	if c.WatchDir != "" && samePath(c.WatchDir, c.ExportDir) {
		return Runtime{}, fmt.Errorf("%w: watch_dir must differ from export_dir", ErrInvalidConfig)
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogMaxSizeMB <= 0 {
		c.LogMaxSizeMB = def.LogMaxSizeMB
	}
	if c.LogMaxBackups < 0 {
		c.LogMaxBackups = def.LogMaxBackups
	}
	return c, nil
}

func (c Runtime) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.StoreBackend,
		SQLitePath:  c.SQLitePath,
		RedisURL:    c.RedisURL,
		RedisPrefix: c.RedisPrefix,
	}
}

func positive(d *time.Duration, fallback time.Duration) {
	if *d <= 0 {
		*d = fallback
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func setString(dst *string, name string) {
	if v, ok := getEnvString(name); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name string) {
	if v, ok := getEnvDuration(name); ok && v > 0 {
		*dst = v
	}
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// getEnvDuration accepts Go durations ("750ms") or bare milliseconds ("750").
func getEnvDuration(name string) (time.Duration, bool) {
	raw, ok := getEnvString(name)
	if !ok {
		return 0, false
	}
	if ms, err := strconv.Atoi(raw); err == nil {
		return time.Duration(ms) * time.Millisecond, true
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
