package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the tunable runtime settings for the console.
type Config struct {
	// Default connection settings, used when a workspace does not
	// override them and by `/init` when no flags are given.
	DefaultHost string `yaml:"default_host"`
	DefaultNode string `yaml:"default_node"`
	TokenID     string `yaml:"token_id"`
	TokenSecret string `yaml:"token_secret"`

	InsecureSkipVerify    bool   `yaml:"insecure_skip_verify"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	HistoryPath           string `yaml:"history_path"`
	LogPath               string `yaml:"log_path"`
	LogJSON               bool   `yaml:"log_json"`
}

// GetConfigDir returns the per-user configuration directory.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".proxmox-mpc"
	}
	return filepath.Join(home, ".proxmox-mpc")
}

// EnsureDefaultConfig creates config.yaml with defaults if it doesn't exist.
func EnsureDefaultConfig() error {
	configDir := GetConfigDir()
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	return Save(defaults(), configPath)
}

func defaults() Config {
	dir := GetConfigDir()
	return Config{
		RequestTimeoutSeconds: 30,
		HistoryPath:           filepath.Join(dir, ".history"),
		LogPath:               filepath.Join(dir, "proxmox-mpc.log"),
	}
}

// LoadUserConfig loads config.yaml from the user configuration directory.
func LoadUserConfig() (Config, error) {
	return Load(filepath.Join(GetConfigDir(), "config.yaml"))
}

// Load reads and validates the configuration at path. A missing file
// yields defaults rather than an error so a fresh install works without
// any setup step.
func Load(path string) (Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories
// as needed.
func Save(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := defaults()
	if c.RequestTimeoutSeconds == 0 {
		c.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
	if c.HistoryPath == "" {
		c.HistoryPath = d.HistoryPath
	}
	if c.LogPath == "" {
		c.LogPath = d.LogPath
	}
}

func (c *Config) validate() error {
	if c.RequestTimeoutSeconds < 0 {
		return fmt.Errorf("request_timeout_seconds must be non-negative")
	}
	if c.RequestTimeoutSeconds > 600 {
		return fmt.Errorf("request_timeout_seconds cannot exceed 600")
	}
	return nil
}

// RequestTimeout converts the configured timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
