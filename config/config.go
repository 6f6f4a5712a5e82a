package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in the config file.
const (
	TransportUnix      = "unix"
	TransportWebSocket = "websocket"
)

type Config struct {
	Version    string        `yaml:"version"`
	Transport  string        `yaml:"transport"`
	SocketPath string        `yaml:"socket_path"`
	URL        string        `yaml:"url"`
	TurnBudget time.Duration `yaml:"turn_timeout"` // 0 uses the engine's turnTime
	Log        LogConfig     `yaml:"log"`
	History    HistoryConfig `yaml:"history"`
	Watch      []WatchRule   `yaml:"watch"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty logs to stdout
	// Submission silences everything below ERROR, for tournament runs where
	// the log would only slow the bot down.
	Submission bool `yaml:"submission"`
}

type HistoryConfig struct {
	Path string `yaml:"path"` // empty disables the game history
}

// WatchRule is a diagnostic condition evaluated against every turn report.
type WatchRule struct {
	Name      string `yaml:"name"`
	Priority  int    `yaml:"priority"`
	Category  string `yaml:"category"`
	Exclusive bool   `yaml:"exclusive"`
	When      string `yaml:"when"`
	Message   string `yaml:"message"`
	Level     string `yaml:"level"` // defaults to info
	Every     int    `yaml:"every"` // minimum turns between firings
}

func Default() Config {
	return Config{
		Version:    "v0.1",
		Transport:  TransportUnix,
		SocketPath: "/tmp/colony.sock",
		URL:        "ws://localhost:2081/ws",
		Log: LogConfig{
			Level: "debug",
			File:  "bot.log",
		},
	}
}

// Load reads a YAML config over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportUnix:
		if c.SocketPath == "" {
			return fmt.Errorf("socket_path required for %s transport", c.Transport)
		}
	case TransportWebSocket:
		if c.URL == "" {
			return fmt.Errorf("url required for %s transport", c.Transport)
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.TurnBudget < 0 {
		return fmt.Errorf("turn_timeout must not be negative")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	for _, w := range c.Watch {
		if w.Name == "" || w.When == "" {
			return fmt.Errorf("watch rule needs name and when: %+v", w)
		}
	}
	return nil
}

// SlogLevel maps the configured level, forcing ERROR in submission mode.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	if l.Submission {
		return slog.LevelError, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return lvl, nil
}
