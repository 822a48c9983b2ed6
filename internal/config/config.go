// Package config loads and validates the baboard YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 8470
	DefaultDisplaySeconds = 1
	DefaultAlertSeconds   = 10
)

// Config is the root configuration structure.
type Config struct {
	Listen  ListenConfig `yaml:"listen"`
	DBPath  string       `yaml:"db_path"`
	LogFile string       `yaml:"log_file"`
	Ticks   TickConfig   `yaml:"ticks"`
	Alerts  AlertConfig  `yaml:"alerts"`
}

type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TickConfig sets the two monitoring intervals: the fast display refresh
// and the slower alert sweep.
type TickConfig struct {
	DisplaySeconds int `yaml:"display_seconds"`
	AlertSeconds   int `yaml:"alert_seconds"`
}

type AlertConfig struct {
	Console  bool           `yaml:"console"`
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

// Enabled reports whether the Telegram channel is configured at all.
func (t TelegramConfig) Enabled() bool {
	return t.Token != "" || t.ChatID != 0
}

// Default returns the configuration used when no config file exists:
// loopback listener, console alerts on.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Host: DefaultHost, Port: DefaultPort},
		Ticks: TickConfig{
			DisplaySeconds: DefaultDisplaySeconds,
			AlertSeconds:   DefaultAlertSeconds,
		},
		Alerts: AlertConfig{Console: true},
	}
}

// Load reads and validates a configuration file, applying defaults for
// fields left unset.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(cfg)

	if errors := Validate(cfg); len(errors) > 0 {
		return nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(errors, "\n"))
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Listen.Host == "" {
		cfg.Listen.Host = DefaultHost
	}
	if cfg.Listen.Port == 0 {
		cfg.Listen.Port = DefaultPort
	}
	if cfg.Ticks.DisplaySeconds == 0 {
		cfg.Ticks.DisplaySeconds = DefaultDisplaySeconds
	}
	if cfg.Ticks.AlertSeconds == 0 {
		cfg.Ticks.AlertSeconds = DefaultAlertSeconds
	}
}

// Validate checks a configuration and returns a list of problems, one per
// invalid field.
func Validate(cfg *Config) []string {
	var errors []string

	if cfg.Listen.Port < 1 || cfg.Listen.Port > 65535 {
		errors = append(errors, fmt.Sprintf("  - listen.port must be in [1, 65535], got %d", cfg.Listen.Port))
	}
	if cfg.Ticks.DisplaySeconds < 1 {
		errors = append(errors, fmt.Sprintf("  - ticks.display_seconds must be a positive integer, got %d", cfg.Ticks.DisplaySeconds))
	}
	if cfg.Ticks.AlertSeconds < 1 {
		errors = append(errors, fmt.Sprintf("  - ticks.alert_seconds must be a positive integer, got %d", cfg.Ticks.AlertSeconds))
	}
	if cfg.Ticks.AlertSeconds < cfg.Ticks.DisplaySeconds {
		errors = append(errors, "  - ticks.alert_seconds must not be shorter than ticks.display_seconds")
	}

	tg := cfg.Alerts.Telegram
	if tg.Enabled() {
		if tg.Token == "" {
			errors = append(errors, "  - alerts.telegram.token is required when chat_id is set")
		}
		if tg.ChatID == 0 {
			errors = append(errors, "  - alerts.telegram.chat_id is required when token is set")
		}
	}

	return errors
}

// DefaultPaths lists the locations searched for a config file when none is
// given on the command line.
func DefaultPaths(filename string) []string {
	paths := []string{filename}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "baboard", filename))
	}
	paths = append(paths, filepath.Join("/etc/baboard", filename))
	return paths
}

// FirstExisting returns the first path that exists, or "" when none do.
func FirstExisting(paths []string) string {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
