package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `log_level: debug
venue:
  price_per_head: 42
  last_orders_minutes: 60
import:
  table_aliases:
    "3": "STAGE"
    "9": "BAR"
turnover:
  service_minutes: 120
cards:
  double_sided: true
runlog:
  backend: sqlite
metrics:
  sinks:
    - type: "nop"
  prometheus_addr: ":9100"
server:
  addr: ":8080"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"log_level", cfg.LogLevel, "debug"},
		{"venue.price_per_head", cfg.Venue.PricePerHead, 42.0},
		{"venue.currency", cfg.Venue.Currency, "£"},
		{"venue.last_orders_minutes", cfg.Venue.LastOrdersMinutes, 60},
		{"import.table_aliases", cfg.Import.TableAliases["9"], "BAR"},
		{"turnover.service_minutes", cfg.Turnover.ServiceMinutes, 120},
		{"turnover.lead_minutes", cfg.Turnover.LeadMinutes, 30},
		{"cards.double_sided", cfg.Cards.DoubleSided, true},
		{"cards.max_width_mm", cfg.Cards.MaxWidthMM, 157.5},
		{"runlog.backend", cfg.RunLog.Backend, "sqlite"},
		{"runlog.path", cfg.RunLog.Path, "brunch-runs.db"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"server.addr", cfg.Server.Addr, ":8080"},
		{"server.cache_size", cfg.Server.CacheSize, 32},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BRUNCH_VENUE__PRICE_PER_HEAD", "35.5")
	t.Setenv("BRUNCH_SERVER__MAX_UPLOAD_MB", "2")
	t.Setenv("BRUNCH_SETTINGS_PATH", "/tmp/paths.toml")
	t.Setenv("BRUNCH_TURNOVER__SERVICE_MINUTES", "60")
	t.Setenv("BRUNCH_RUNLOG__BACKEND", "none")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 35.5, cfg.Venue.PricePerHead)
	assert.Equal(t, 2, cfg.Server.MaxUploadMB)
	assert.Equal(t, "/tmp/paths.toml", cfg.SettingsPath)
	assert.Equal(t, 60, cfg.Turnover.ServiceMinutes)
	assert.Equal(t, "none", cfg.RunLog.Backend)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("turnover:\n  service_minutes: 120\n  lead_minutes: 20\n"), 0o644))
	t.Setenv("BRUNCH_TURNOVER__SERVICE_MINUTES", "75")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Turnover.ServiceMinutes)
	assert.Equal(t, 20, cfg.Turnover.LeadMinutes, "sibling keys from the file survive")
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "config.ini"))
	assert.Error(t, err)

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("turnover:\n  short_gap_minutes: 5\n  immediate_gap_minutes: 10\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "turnover")

	path = filepath.Join(dir, "bad_regex.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"import":{"area_prefix":"(oops"}}`), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "import")

	path = filepath.Join(dir, "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server":{"hash_key":"abc"}}`), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "server")
}

func TestServerKeys(t *testing.T) {
	hash := base64.StdEncoding.EncodeToString(make([]byte, 64))
	block := base64.StdEncoding.EncodeToString(make([]byte, 32))

	h, b, err := ServerConfig{HashKey: hash, BlockKey: block}.Keys()
	require.NoError(t, err)
	assert.Len(t, h, 64)
	assert.Len(t, b, 32)

	keyFile := filepath.Join(t.TempDir(), "block.key")
	require.NoError(t, os.WriteFile(keyFile, []byte(block+"\n"), 0o600))
	_, b, err = ServerConfig{HashKey: hash, BlockKey: keyFile}.Keys()
	require.NoError(t, err)
	assert.Len(t, b, 32)

	_, _, err = ServerConfig{HashKey: hash, BlockKey: base64.StdEncoding.EncodeToString(make([]byte, 7))}.Keys()
	assert.Error(t, err)

	h, b, err = ServerConfig{}.Keys()
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.Nil(t, b)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, 90, cfg.Turnover.ServiceMinutes)
}
