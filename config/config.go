// Package config loads client configuration from defaults, a YAML file and
// QL_ environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables read by Load.
// A double underscore separates nested keys: QL_LOG__LEVEL -> log.level.
const EnvPrefix = "QL_"

// Config holds the settings of the HTTP transport and the logger.
type Config struct {
	// Endpoint is the URL documents are posted to.
	Endpoint string `koanf:"endpoint"`
	// Headers are added to every request.
	Headers map[string]string `koanf:"headers"`
	// Timeout bounds each HTTP round trip. Zero means no timeout.
	Timeout time.Duration `koanf:"timeout"`
	// Debug attaches request and response bodies to transport errors.
	Debug bool `koanf:"debug"`
	// MutationKey is the envelope key of mutation documents: query or mutate.
	MutationKey string `koanf:"mutation_key"`

	Log LogConfig `koanf:"log"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `koanf:"level"`
	// Format: console or json
	Format string `koanf:"format"`
	// Outputs: stdout, stderr or file paths
	Outputs []string `koanf:"outputs"`
	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `koanf:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `koanf:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool `koanf:"enable"`
	MaxSizeMB  int  `koanf:"max_size_mb"`
	MaxBackups int  `koanf:"max_backups"`
	MaxAgeDays int  `koanf:"max_age_days"`
	Compress   bool `koanf:"compress"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		MutationKey: "query",
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
		},
	}
}

var defaults = map[string]any{
	"timeout":         "0s",
	"debug":           false,
	"mutation_key":    "query",
	"log.level":       "info",
	"log.format":      "console",
	"log.outputs":     []string{"stderr"},
	"log.development": false,
}

// Load reads the configuration. path may be empty, in which case only
// defaults and environment variables are used.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Transform: QL_LOG__LEVEL -> log.level
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that have a closed set of options.
func (c Config) Validate() error {
	switch c.MutationKey {
	case "query", "mutate":
	default:
		return fmt.Errorf("invalid mutation_key %q: must be query or mutate", c.MutationKey)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("invalid timeout %v: must not be negative", c.Timeout)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid log.format %q: must be console or json", c.Log.Format)
	}
	return nil
}
