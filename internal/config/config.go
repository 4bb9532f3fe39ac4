// Package config loads the arbor.yaml configuration of the arbor binary.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the file read when --config is not given.
const DefaultPath = "arbor.yaml"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Export backends.
const (
	ExportFile = "file"
	ExportLoam = "loam"
)

// Config is the typed configuration of the arbor binary.
type Config struct {
	Port          int           `mapstructure:"port"`
	Locale        string        `mapstructure:"locale"`
	Catalog       string        `mapstructure:"catalog"`
	Collaboration bool          `mapstructure:"collaboration"`
	ZoomStep      float64       `mapstructure:"zoom_step"`
	Log           LogConfig     `mapstructure:"log"`
	Store         StoreConfig   `mapstructure:"store"`
	Redis         RedisConfig   `mapstructure:"redis"`
	Exports       ExportConfig  `mapstructure:"exports"`
	Metrics       MetricsConfig `mapstructure:"metrics"`
}

// LogConfig selects the log level and format ("text" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects where session snapshots live.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`

	// EncryptionKey enables AES-256 encryption of snapshots at rest when set.
	// Base64 of 32 bytes. FallbackKeys are accepted for decryption only.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
}

// RedisConfig configures the redis snapshot store and lock.
// A non-empty Addr implies the redis store backend.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// ExportConfig selects where downloaded artifacts are written.
type ExportConfig struct {
	Backend string `mapstructure:"backend"`
	Dir     string `mapstructure:"dir"`
}

// MetricsConfig controls the Prometheus endpoint. Port 0 serves /metrics on
// the main listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Port:     8080,
		Locale:   "en",
		ZoomStep: 0.1,
		Log:      LogConfig{Level: "info", Format: "text"},
		Store:    StoreConfig{Backend: StoreMemory, Dir: ".arbor/sessions"},
		Redis:    RedisConfig{Prefix: "arbor:session:", LockTTL: 30 * time.Second},
		Exports:  ExportConfig{Backend: ExportFile, Dir: ".arbor/exports"},
		Metrics:  MetricsConfig{Enabled: true},
	}
}

// Load reads a YAML (or, by extension, JSON) file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	raw := map[string]any{}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := Decode(raw, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Decode applies raw onto cfg. Keys absent from raw keep their current value;
// unknown keys are rejected.
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// StoreBackend resolves the effective snapshot store backend.
func (c Config) StoreBackend() string {
	if c.Redis.Addr != "" {
		return StoreRedis
	}
	return c.Store.Backend
}

// Validate checks value ranges and backend names.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.Metrics.Port)
	}
	if c.ZoomStep <= 0 {
		return fmt.Errorf("zoom_step must be positive, got %v", c.ZoomStep)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch c.StoreBackend() {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis store requires redis.addr")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	switch c.Exports.Backend {
	case ExportFile, ExportLoam:
	default:
		return fmt.Errorf("unknown export backend %q", c.Exports.Backend)
	}
	return nil
}
