// Package config loads TOML configuration for an imapwire server: the
// listen address, log level, maximum literal size, and advertised
// capability set.
package config

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/toml"

	imap "github.com/corvid-im/imapwire"
)

// Config is the top-level configuration document.
type Config struct {
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig configures the listener and codec limits.
type ServerConfig struct {
	Listen string `toml:"listen"`

	// MaxLiteralSize bounds the size of a single literal the decoder will
	// buffer. 0 means no limit.
	MaxLiteralSize int64 `toml:"max_literal_size"`

	// Capabilities is the set of capability tokens to advertise, e.g.
	// "IMAP4rev1", "IDLE", "LITERAL+", "AUTH=PLAIN".
	Capabilities []string `toml:"capabilities"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string `toml:"level"`
}

// Load reads a TOML config file from path and validates it.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("config: server.listen is required")
	}
	if c.Server.MaxLiteralSize < 0 {
		return fmt.Errorf("config: server.max_literal_size cannot be negative")
	}
	for _, tok := range c.Server.Capabilities {
		if tok == "" {
			return fmt.Errorf("config: server.capabilities contains an empty entry")
		}
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// CapSet builds an imap.CapSet from the configured capability tokens. An
// empty list falls back to the IMAP4rev1/IDLE/LITERAL+ defaults.
func (c *Config) CapSet() *imap.CapSet {
	if len(c.Server.Capabilities) == 0 {
		return imap.NewCapSet(imap.CapIMAP4rev1, imap.CapIdle, imap.CapLiteralPlus)
	}
	caps := make([]imap.Cap, len(c.Server.Capabilities))
	for i, tok := range c.Server.Capabilities {
		caps[i] = imap.Cap(tok)
	}
	return imap.NewCapSet(caps...)
}

// SlogLevel maps the configured log level to a slog.Level, defaulting to
// slog.LevelInfo.
func (c *LogConfig) SlogLevel() slog.Level {
	switch c.Level {
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
