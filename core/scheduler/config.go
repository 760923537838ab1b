package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default turnover policy values.
const (
	DefaultServiceMinutes      = 90
	DefaultImmediateGapMinutes = 15
	DefaultShortGapMinutes     = 30
	DefaultShortBufferMinutes  = 10
	DefaultLeadMinutes         = 30
)

// Config defines the turnover policy.
type Config struct {
	// ServiceMinutes is the fixed length of every booking.
	ServiceMinutes int `json:"service_minutes" yaml:"service_minutes"`
	// ImmediateGapMinutes is the largest gap for which the table is turned
	// as soon as the booking ends.
	ImmediateGapMinutes int `json:"immediate_gap_minutes" yaml:"immediate_gap_minutes"`
	// ShortGapMinutes is the largest gap that still gets a fixed cushion
	// after the booking ends.
	ShortGapMinutes int `json:"short_gap_minutes" yaml:"short_gap_minutes"`
	// ShortBufferMinutes is the cushion added for short gaps.
	ShortBufferMinutes int `json:"short_buffer_minutes" yaml:"short_buffer_minutes"`
	// LeadMinutes is how long before the next arrival a table with plenty
	// of slack must be ready.
	LeadMinutes int `json:"lead_minutes" yaml:"lead_minutes"`
}

// DefaultConfig returns the policy used by the venue.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.ServiceMinutes == 0 {
		c.ServiceMinutes = DefaultServiceMinutes
	}
	if c.ImmediateGapMinutes == 0 {
		c.ImmediateGapMinutes = DefaultImmediateGapMinutes
	}
	if c.ShortGapMinutes == 0 {
		c.ShortGapMinutes = DefaultShortGapMinutes
	}
	if c.ShortBufferMinutes == 0 {
		c.ShortBufferMinutes = DefaultShortBufferMinutes
	}
	if c.LeadMinutes == 0 {
		c.LeadMinutes = DefaultLeadMinutes
	}
}

// Validate checks the policy is coherent.
func (c Config) Validate() error {
	if c.ServiceMinutes <= 0 {
		return fmt.Errorf("service_minutes must be positive")
	}
	if c.ImmediateGapMinutes < 0 || c.ShortBufferMinutes < 0 || c.LeadMinutes < 0 {
		return fmt.Errorf("turnover minutes must not be negative")
	}
	if c.ShortGapMinutes < c.ImmediateGapMinutes {
		return fmt.Errorf("short_gap_minutes (%d) below immediate_gap_minutes (%d)", c.ShortGapMinutes, c.ImmediateGapMinutes)
	}
	return nil
}

// Service returns the booking length as a duration.
func (c Config) Service() time.Duration {
	return time.Duration(c.ServiceMinutes) * time.Minute
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return DecodeConfig(f, strings.TrimPrefix(filepath.Ext(path), "."))
}

// DecodeConfig reads from r to decode a Config.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, cfg.Validate()
}
