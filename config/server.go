package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// ServerConfig holds settings for the upload web server.
type ServerConfig struct {
	Addr string `json:"addr"`
	// HashKey and BlockKey are base64 keys for the download cookie. Either
	// may point to a file holding the key. Random keys are generated when
	// both are empty.
	HashKey  string `json:"hash_key"`
	BlockKey string `json:"block_key"`
	// MaxUploadMB limits the size of an uploaded export.
	MaxUploadMB int `json:"max_upload_mb"`
	// CacheSize is how many generated runs are kept for download.
	CacheSize int `json:"cache_size"`
	// APIToken protects GET /api/runs with a bearer token when set.
	APIToken string `json:"api_token"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8501"
	}
	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 10
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 32
	}
}

func (c ServerConfig) Validate() error {
	if (c.HashKey == "") != (c.BlockKey == "") {
		return fmt.Errorf("hash_key and block_key must be set together")
	}
	return nil
}

// Keys decodes the cookie keys. Both are nil when unset.
func (c ServerConfig) Keys() (hash, block []byte, err error) {
	if c.HashKey == "" {
		return nil, nil, nil
	}
	if hash, err = decodeKey(c.HashKey); err != nil {
		return nil, nil, fmt.Errorf("hash_key: %w", err)
	}
	if block, err = decodeKey(c.BlockKey); err != nil {
		return nil, nil, fmt.Errorf("block_key: %w", err)
	}
	switch len(block) {
	case 16, 24, 32:
	default:
		return nil, nil, fmt.Errorf("block_key must decode to 16, 24 or 32 bytes (got %d)", len(block))
	}
	return hash, block, nil
}

func decodeKey(v string) ([]byte, error) {
	if b, err := os.ReadFile(v); err == nil {
		// allow pointing to a mounted secret file
		v = string(b)
	}
	v = strings.TrimSpace(v)
	if b, err := base64.StdEncoding.DecodeString(v); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(v)
}
