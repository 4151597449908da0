// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	appName        = "murmur"
	configFileName = "config.json"

	defaultModel = "whisper-1"
)

// Config represents the application configuration.
type Config struct {
	APIKey  string `json:"api_key,omitempty"`
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`

	// HistoryTTLDays controls how long transcripts are retained;
	// zero keeps the store default.
	HistoryTTLDays int `json:"history_ttl_days,omitempty"`
}

// Load reads the configuration from the user config directory, returning
// defaults when no file exists. A .env file in the working directory and
// the OPENAI_API_KEY environment variable are honored; the environment
// wins over the file.
func Load() (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	path, err := Path()
	if err != nil {
		return nil, fmt.Errorf("get config path: %w", err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		return nil, err
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.APIKey = key
	}
	return cfg, nil
}

// Save persists the configuration to disk.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}
	return c.saveTo(path)
}

// SaveAPIKey updates only the API key, preserving other settings.
func SaveAPIKey(key string) error {
	path, err := Path()
	if err != nil {
		return fmt.Errorf("get config path: %w", err)
	}

	cfg, err := loadFrom(path)
	if err != nil {
		return err
	}
	cfg.APIKey = key
	return cfg.saveTo(path)
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName, configFileName), nil
}

// DataDir returns the directory for local state such as the transcript
// history store.
func DataDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get user config dir: %w", err)
	}
	return filepath.Join(dir, appName), nil
}

func defaultConfig() *Config {
	return &Config{Model: defaultModel}
}

func loadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &cfg, nil
}

func (c *Config) saveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file holds an API key; keep it private to the user.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
