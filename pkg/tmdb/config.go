package tmdb

import (
	"strings"
	"time"

	"github.com/sanonone/castchain/pkg/errs"
)

// PlaceholderAPIKey is the value shipped in example env files. It is treated
// the same as a missing key.
const PlaceholderAPIKey = "your_api_key_here"

// Config holds the connection settings for the filmography provider.
// It is designed to be embedded in the YAML configuration file and
// overridden from the environment.
type Config struct {
	// BaseURL is the API root, without trailing slash.
	BaseURL string `yaml:"base_url" json:"base_url" env:"TMDB_BASE_URL"`

	// APIKey is the v3 API credential, sent as the api_key query parameter.
	APIKey string `yaml:"api_key" json:"api_key" env:"TMDB_API_KEY"`

	// Language is forwarded as the language query parameter when set (e.g. "en-US").
	Language string `yaml:"language" json:"language" env:"TMDB_LANGUAGE"`

	// Timeout bounds a single request including retries.
	Timeout time.Duration `yaml:"timeout" json:"timeout" env:"TMDB_TIMEOUT"`

	// MaxRetries is the number of retries after the first attempt for
	// idempotent requests that hit a network error, 429 or 502/503/504.
	MaxRetries int `yaml:"max_retries" json:"max_retries" env:"TMDB_MAX_RETRIES"`

	// RetryBackoff is the initial backoff interval between retries.
	RetryBackoff time.Duration `yaml:"retry_backoff" json:"retry_backoff" env:"TMDB_RETRY_BACKOFF"`
}

// DefaultConfig returns the public TMDb endpoint with conservative retry settings.
// APIKey is left empty and must be provided.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://api.themoviedb.org/3",
		Timeout:      10 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 250 * time.Millisecond,
	}
}

// Validate rejects a missing or placeholder credential.
func (c Config) Validate() error {
	key := strings.TrimSpace(c.APIKey)
	if key == "" || key == PlaceholderAPIKey {
		return errs.Configuration("TMDb API key not configured")
	}
	if strings.TrimSpace(c.BaseURL) == "" {
		return errs.Configuration("TMDb base URL not configured")
	}
	return nil
}
