// Package config loads ziggurat settings from defaults, an optional YAML
// file and ZIGGURAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// ZIGGURAT_CHECK_CONCURRENCY.
const EnvPrefix = "ZIGGURAT"

// Config holds the complete application configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Server  ServerConfig  `mapstructure:"server"`
	Check   CheckConfig   `mapstructure:"check"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LogConfig controls commonlog.
type LogConfig struct {
	Verbosity int    `mapstructure:"verbosity"`
	File      string `mapstructure:"file"`
}

// ServerConfig holds language server settings.
type ServerConfig struct {
	Name string `mapstructure:"name"`
}

// CheckConfig holds settings for the check command.
type CheckConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	WatchInterval time.Duration `mapstructure:"watch_interval"`
	Format        string        `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.verbosity", 0)
	v.SetDefault("log.file", "")

	v.SetDefault("server.name", "ziggurat")

	v.SetDefault("check.concurrency", 4)
	v.SetDefault("check.watch_interval", "1s")
	v.SetDefault("check.format", "text")

	v.SetDefault("metrics.enabled", false)
}

// NewViper returns a viper instance with defaults and environment binding.
// When cfgFile is empty, ziggurat.yaml is looked up in the working
// directory.
func NewViper(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("ziggurat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. A missing default config file is not an
// error; a missing explicit one is.
func Load(cfgFile string) (*Config, error) {
	v := NewViper(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return New(v)
}

// New decodes and validates the configuration held by v.
func New(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Check.Concurrency < 1 {
		return errors.New("check.concurrency must be at least 1")
	}
	if c.Check.WatchInterval <= 0 {
		return errors.New("check.watch_interval must be positive")
	}
	if c.Log.Verbosity < 0 {
		return errors.New("log.verbosity must not be negative")
	}
	if c.Server.Name == "" {
		return errors.New("server.name is required")
	}
	switch c.Check.Format {
	case "text", "json", "yaml", "ast", "tree":
	default:
		return fmt.Errorf("check.format %q is not one of text, json, yaml, ast, tree", c.Check.Format)
	}
	return nil
}
