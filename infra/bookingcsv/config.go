package bookingcsv

import (
	"fmt"
	"regexp"
)

// DefaultAreaPrefix matches the venue's area names, e.g. "Wilson's 4".
const DefaultAreaPrefix = `(?:Wilsons?|Wilson's)`

// Config controls how areas and deposits are read from an export.
type Config struct {
	// AreaPrefix is a regular expression matched before a table number in
	// the Area column.
	AreaPrefix string `json:"area_prefix"`
	// TableAliases renames extracted table numbers, e.g. 3 -> STAGE.
	TableAliases map[string]string `json:"table_aliases"`
	// Currency is the symbol preceding deposit amounts.
	Currency string `json:"currency"`
}

func (c *Config) SetDefaults() {
	if c.AreaPrefix == "" {
		c.AreaPrefix = DefaultAreaPrefix
	}
	if c.TableAliases == nil {
		c.TableAliases = map[string]string{"3": "STAGE"}
	}
	if c.Currency == "" {
		c.Currency = "£"
	}
}

func (c Config) Validate() error {
	if _, err := c.tablePattern(); err != nil {
		return fmt.Errorf("area_prefix: %w", err)
	}
	return nil
}

func (c Config) tablePattern() (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)` + c.AreaPrefix + `\s*(\d+[a-zA-Z]?)`)
}

func (c Config) depositPattern() *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(c.Currency) + `\s?(\d+(?:\.\d{1,2})?)`)
}
