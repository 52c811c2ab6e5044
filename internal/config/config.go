// Package config resolves tasktracker settings from .env, the optional
// <state>/config.yaml file and environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vthunder/tasktracker/internal/logging"
	"github.com/vthunder/tasktracker/internal/storage"
)

// FileName is the YAML config file looked up inside the state directory
const FileName = "config.yaml"

const (
	DefaultStatePath    = "state"
	DefaultPollInterval = 30 * time.Second
)

// DiscordConfig holds the optional Discord presenter settings
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// Enabled reports whether both token and channel are set
func (d DiscordConfig) Enabled() bool {
	return d.Token != "" && d.ChannelID != ""
}

// Config is the resolved configuration
type Config struct {
	StatePath        string        `yaml:"-"`
	Storage          string        `yaml:"storage"`
	Discord          DiscordConfig `yaml:"discord"`
	ExactAlarms      bool          `yaml:"exact_alarms"`
	NotifyOnComplete bool          `yaml:"notify_on_complete"`
	PollInterval     time.Duration `yaml:"-"`
	Debug            bool          `yaml:"debug"`
}

// fileConfig mirrors Config with pointer fields so absent keys keep
// their defaults.
type fileConfig struct {
	Storage          *string        `yaml:"storage"`
	Discord          *DiscordConfig `yaml:"discord"`
	ExactAlarms      *bool          `yaml:"exact_alarms"`
	NotifyOnComplete *bool          `yaml:"notify_on_complete"`
	PollInterval     *string        `yaml:"poll_interval"`
	Debug            *bool          `yaml:"debug"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		StatePath:        DefaultStatePath,
		Storage:          storage.BackendFile,
		ExactAlarms:      true,
		NotifyOnComplete: true,
		PollInterval:     DefaultPollInterval,
	}
}

// LoadDotEnv loads .env from the working directory if present. Existing
// environment variables win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		logging.Debug("config", "No .env file found, using environment variables")
	} else {
		logging.Debug("config", "Loaded .env file")
	}
}

// Load resolves the configuration. statePath overrides STATE_PATH when
// non-empty. A missing config.yaml is not an error.
func Load(statePath string) (Config, error) {
	cfg := Default()

	if statePath == "" {
		statePath = os.Getenv("STATE_PATH")
	}
	if statePath != "" {
		cfg.StatePath = statePath
	}

	if err := cfg.applyFile(filepath.Join(cfg.StatePath, FileName)); err != nil {
		return cfg, err
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if fc.Storage != nil {
		c.Storage = *fc.Storage
	}
	if fc.Discord != nil {
		c.Discord = *fc.Discord
	}
	if fc.ExactAlarms != nil {
		c.ExactAlarms = *fc.ExactAlarms
	}
	if fc.NotifyOnComplete != nil {
		c.NotifyOnComplete = *fc.NotifyOnComplete
	}
	if fc.PollInterval != nil {
		d, err := time.ParseDuration(*fc.PollInterval)
		if err != nil {
			return fmt.Errorf("%s: poll_interval: %w", path, err)
		}
		c.PollInterval = d
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}
	logging.Debug("config", "Loaded %s", path)
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TASKS_STORAGE"); v != "" {
		c.Storage = v
	}
	if v := os.Getenv("DISCORD_TOKEN"); v != "" {
		c.Discord.Token = v
	}
	if v := os.Getenv("DISCORD_CHANNEL_ID"); v != "" {
		c.Discord.ChannelID = v
	}
	if v := os.Getenv("EXACT_ALARMS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("EXACT_ALARMS: %w", err)
		}
		c.ExactAlarms = b
	}
	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
	return nil
}

// Validate checks the storage backend and poll interval
func (c Config) Validate() error {
	switch c.Storage {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
