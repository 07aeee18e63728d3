package datajud

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBaseURL is the public DataJud endpoint operated by the CNJ
const DefaultBaseURL = "https://api-publica.datajud.cnj.jus.br"

// Config holds the connection settings for one tribunal index
type Config struct {
	BaseURL string
	APIKey  string
	// Tribunal is the acronym, e.g. "TJMT"; the index alias is derived from it
	Tribunal string
	// PageSize is the hits-per-request size (the API caps around a few thousand)
	PageSize int
	// MaxPages bounds the search_after pagination loop
	MaxPages int
	// RequestsPerMinute throttles calls against the public API
	RequestsPerMinute int
	Timeout           time.Duration
	MaxRetries        int
}

// DefaultConfig returns sensible settings for the public API
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		PageSize:          500,
		MaxPages:          20,
		RequestsPerMinute: 30,
		Timeout:           60 * time.Second,
		MaxRetries:        3,
	}
}

// Validate checks that the config can produce requests
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("datajud: API key is required")
	}
	if c.Tribunal == "" {
		return fmt.Errorf("datajud: tribunal is required")
	}
	if c.PageSize <= 0 || c.MaxPages <= 0 {
		return fmt.Errorf("datajud: page size and max pages must be positive")
	}
	return nil
}

// SearchURL builds the _search endpoint for the configured tribunal
func (c Config) SearchURL() string {
	alias := "api_publica_" + strings.ToLower(c.Tribunal)
	return fmt.Sprintf("%s/%s/_search", c.BaseURL, alias)
}
