// Package settings remembers the paths used in the last formatter run.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is created in the user's home directory.
const DefaultFileName = ".brunch_formatter_paths.json"

// ErrMissingPaths is returned when a run has no input or output path.
var ErrMissingPaths = errors.New("input, excel and pdf paths are required")

// Paths holds the last used locations and card layout.
type Paths struct {
	Input       string `json:"input,omitempty" yaml:"input,omitempty" toml:"input,omitempty"`
	Excel       string `json:"excel,omitempty" yaml:"excel,omitempty" toml:"excel,omitempty"`
	PDF         string `json:"pdf,omitempty" yaml:"pdf,omitempty" toml:"pdf,omitempty"`
	DoubleSided bool   `json:"double_sided" yaml:"double_sided" toml:"double_sided"`
}

// Complete checks that every path is set.
func (p Paths) Complete() error {
	if p.Input == "" || p.Excel == "" || p.PDF == "" {
		return ErrMissingPaths
	}
	return nil
}

// Merge returns p with every non-empty path of o applied on top. The
// double-sided flag is left to the caller.
func (p Paths) Merge(o Paths) Paths {
	if o.Input != "" {
		p.Input = o.Input
	}
	if o.Excel != "" {
		p.Excel = o.Excel
	}
	if o.PDF != "" {
		p.PDF = o.PDF
	}
	return p
}

// DefaultPath returns the settings file in the home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Load reads the settings at path. A missing file yields empty settings.
func Load(path string) (Paths, error) {
	var p Paths
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".toml":
		_, err = toml.Decode(string(data), &p)
	case ".json", "":
		err = json.Unmarshal(data, &p)
	default:
		return p, fmt.Errorf("unsupported settings format: %s", ext)
	}
	if err != nil {
		return Paths{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path in the format given by its extension.
func Save(path string, p Paths) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(p)
	case ".toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(p)
		data = buf.Bytes()
	case ".json", "":
		data, err = json.MarshalIndent(p, "", "  ")
	default:
		return fmt.Errorf("unsupported settings format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}

// Clear removes the settings file. A missing file is not an error.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
