package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/dshills/questlog/internal/logging"
	"github.com/dshills/questlog/internal/storage"
)

// DefaultParallelism bounds how many stores are opened at once on startup
const DefaultParallelism = 4

// Config is the questlog configuration file.
type Config struct {
	// DataDir overrides the platform data directory
	DataDir string `toml:"data_dir,omitempty"`
	// GameData is the catalog root; empty means <data dir>/gamedata
	GameData string `toml:"game_data,omitempty"`

	Store   StoreConfig   `toml:"store"`
	Startup StartupConfig `toml:"startup"`
	Log     LogConfig     `toml:"log"`
}

// StoreConfig mirrors storage.Options with durations in milliseconds.
type StoreConfig struct {
	MaxPoolSize      int    `toml:"max_pool_size"`
	BusyTimeoutMS    int    `toml:"busy_timeout_ms"`
	IdleTimeoutMS    int    `toml:"idle_timeout_ms"`
	AcquireTimeoutMS int    `toml:"acquire_timeout_ms"`
	JournalMode      string `toml:"journal_mode"`
	AutoVacuum       string `toml:"auto_vacuum"`
}

type StartupConfig struct {
	Parallelism int `toml:"parallelism"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Store: StoreConfig{
			MaxPoolSize:      storage.DefaultMaxPoolSize,
			BusyTimeoutMS:    int(storage.DefaultBusyTimeout / time.Millisecond),
			IdleTimeoutMS:    int(storage.DefaultIdleTimeout / time.Millisecond),
			AcquireTimeoutMS: int(storage.DefaultAcquireTimeout / time.Millisecond),
			JournalMode:      string(storage.JournalModeWAL),
			AutoVacuum:       string(storage.AutoVacuumIncremental),
		},
		Startup: StartupConfig{Parallelism: DefaultParallelism},
		Log:     LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("invalid config %s:\n%s", path, strict.String())
		}
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML.
func Save(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the configuration
func (c Config) Validate() error {
	if _, err := c.Store.Options(nil); err != nil {
		return err
	}
	if c.Startup.Parallelism < 1 {
		return fmt.Errorf("startup.parallelism must be at least 1, got %d", c.Startup.Parallelism)
	}
	if _, err := logging.New(c.Log.Level, c.Log.Format); err != nil {
		return err
	}
	return nil
}

// Options converts the store section into storage options.
func (s StoreConfig) Options(logger *zap.Logger) (storage.Options, error) {
	journal, err := storage.ParseJournalMode(s.JournalMode)
	if err != nil {
		return storage.Options{}, err
	}
	vacuum, err := storage.ParseAutoVacuum(s.AutoVacuum)
	if err != nil {
		return storage.Options{}, err
	}

	opts := storage.Options{
		MaxPoolSize:    s.MaxPoolSize,
		BusyTimeout:    time.Duration(s.BusyTimeoutMS) * time.Millisecond,
		IdleTimeout:    time.Duration(s.IdleTimeoutMS) * time.Millisecond,
		AcquireTimeout: time.Duration(s.AcquireTimeoutMS) * time.Millisecond,
		JournalMode:    journal,
		AutoVacuum:     vacuum,
		Logger:         logger,
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if err := opts.Validate(); err != nil {
		return storage.Options{}, err
	}
	return opts, nil
}
