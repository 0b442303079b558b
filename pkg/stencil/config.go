package stencil

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by LoadConfig, e.g.
// STENCIL_STORE_CAPACITY or STENCIL_STRICT_MODE.
const EnvPrefix = "STENCIL_"

// Config contains all configuration options for the engine
type Config struct {
	// StoreCapacity is the maximum number of registered templates. 0 means unbounded.
	StoreCapacity int `koanf:"store_capacity"`
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string `koanf:"log_level"`
	// MaxRenderDepth bounds loop nesting and inheritance chain length
	MaxRenderDepth int `koanf:"max_render_depth"`
	// StrictMode turns every render warning into a failed result
	StrictMode bool `koanf:"strict_mode"`
	// DefaultTheme is used when a context names no theme
	DefaultTheme string `koanf:"default_theme"`
	// DefaultLocale is used when a context names no locale
	DefaultLocale string `koanf:"default_locale"`
	// HistorySize is the number of render results kept for History. 0 disables it.
	HistorySize int `koanf:"history_size"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		StoreCapacity:  100,
		LogLevel:       "info",
		MaxRenderDepth: 100,
		StrictMode:     false,
		DefaultTheme:   DefaultThemeName,
		DefaultLocale:  DefaultLocale,
		HistorySize:    50,
	}
}

func (c *Config) toMap() map[string]interface{} {
	return map[string]interface{}{
		"store_capacity":   c.StoreCapacity,
		"log_level":        c.LogLevel,
		"max_render_depth": c.MaxRenderDepth,
		"strict_mode":      c.StrictMode,
		"default_theme":    c.DefaultTheme,
		"default_locale":   c.DefaultLocale,
		"history_size":     c.HistorySize,
	}
}

// LoadConfig builds a configuration from the defaults, then the TOML file at
// path (skipped when path is empty or does not exist), then STENCIL_*
// environment variables. The result is validated.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(DefaultConfig().toMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", path, err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	if config.MaxRenderDepth == 0 {
		config.MaxRenderDepth = defaults.MaxRenderDepth
	}

	if config.DefaultTheme == "" {
		config.DefaultTheme = defaults.DefaultTheme
	}

	if config.DefaultLocale == "" {
		config.DefaultLocale = defaults.DefaultLocale
	}

	return &config
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
	"off":   true,
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.StoreCapacity < 0 {
		return errors.New("store capacity cannot be negative")
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	if c.MaxRenderDepth <= 0 {
		return errors.New("max render depth must be positive")
	}

	if c.HistorySize < 0 {
		return errors.New("history size cannot be negative")
	}

	return nil
}
