package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sandeepkv93/dosed/internal/dose"
)

type Config struct {
	DBPath                 string     `koanf:"db_path"`
	Log                    LogConfig  `koanf:"log"`
	Dose                   DoseConfig `koanf:"dose"`
	RefreshIntervalSeconds int        `koanf:"refresh_interval_seconds"`
	SchedulerBuffer        int        `koanf:"scheduler_buffer"`
	DesktopNotifications   bool       `koanf:"desktop_notifications"`
	HistoryDays            int        `koanf:"history_days"`
}

type LogConfig struct {
	File  string `koanf:"file"`
	Level string `koanf:"level"`
}

type DoseConfig struct {
	DueWindowMinutes        int `koanf:"due_window_minutes"`
	OverdueThresholdMinutes int `koanf:"overdue_threshold_minutes"`
	DueSoonMinutes          int `koanf:"due_soon_minutes"`
}

// Load layers defaults, then the YAML file at configPath if it exists, then
// DOSED_* environment variables. A double underscore in a variable name
// separates nested keys, so DOSED_LOG__LEVEL sets log.level.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = ExpandPath(configPath)
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.DBPath = ExpandPath(cfg.DBPath)
	cfg.Log.File = ExpandPath(cfg.Log.File)
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path is required")
	}
	if c.RefreshIntervalSeconds <= 0 {
		return fmt.Errorf("refresh_interval_seconds must be positive")
	}
	if c.SchedulerBuffer <= 0 {
		return fmt.Errorf("scheduler_buffer must be positive")
	}
	if c.HistoryDays <= 0 {
		return fmt.Errorf("history_days must be positive")
	}
	if err := c.Policy().Validate(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Policy() dose.Policy {
	return dose.Policy{
		DueWindow:        time.Duration(c.Dose.DueWindowMinutes) * time.Minute,
		OverdueThreshold: time.Duration(c.Dose.OverdueThresholdMinutes) * time.Minute,
		DueSoonWindow:    time.Duration(c.Dose.DueSoonMinutes) * time.Minute,
	}
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func (c *Config) ParseLogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
