package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/brunch/core/metrics"
	"github.com/kilianp07/brunch/core/runlog"
	"github.com/kilianp07/brunch/core/runsheet"
	"github.com/kilianp07/brunch/core/scheduler"
	"github.com/kilianp07/brunch/infra/bookingcsv"
	"github.com/kilianp07/brunch/pkg/export"
)

// EnvPrefix prefixes environment overrides, e.g. BRUNCH_VENUE__PRICE_PER_HEAD.
const EnvPrefix = "BRUNCH_"

type Config struct {
	LogLevel     string            `json:"log_level"`
	SettingsPath string            `json:"settings_path"`
	Venue        runsheet.Config   `json:"venue"`
	Import       bookingcsv.Config `json:"import"`
	Turnover     scheduler.Config  `json:"turnover"`
	Cards        export.CardConfig `json:"cards"`
	RunLog       runlog.Config     `json:"runlog"`
	Metrics      metrics.Config    `json:"metrics"`
	Sentry       SentryConfig      `json:"sentry"`
	Server       ServerConfig      `json:"server"`
}

// Load reads the configuration file at path, applies environment overrides
// and defaults. An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Venue.SetDefaults()
	c.Import.SetDefaults()
	c.Turnover.SetDefaults()
	c.Cards.SetDefaults()
	c.RunLog.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Venue.Validate(); err != nil {
		return fmt.Errorf("venue: %w", err)
	}
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	if err := c.Turnover.Validate(); err != nil {
		return fmt.Errorf("turnover: %w", err)
	}
	if err := c.Cards.Validate(); err != nil {
		return fmt.Errorf("cards: %w", err)
	}
	if err := c.RunLog.Validate(); err != nil {
		return fmt.Errorf("runlog: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
