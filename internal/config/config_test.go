package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanonone/castchain/pkg/errs"
	"github.com/sanonone/castchain/pkg/tmdb"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 200, cfg.Pool.TargetSize)
	assert.Equal(t, 40, cfg.Pool.MaxPages)
	assert.Equal(t, 24*time.Hour, cfg.Pool.TTL)
	assert.Equal(t, 10, cfg.Oracle.RecentWindow)
	assert.Equal(t, 8, cfg.Selector.InitialAttempts)
	assert.Equal(t, 5, cfg.Selector.ReplayAttempts)
}

func TestLoadYAMLExpandsEnv(t *testing.T) {
	t.Setenv("MY_TMDB_KEY", "from-yaml-env")
	path := writeFile(t, "castchain.yaml", `
http_addr: ":9000"
tmdb:
  api_key: ${MY_TMDB_KEY}
  timeout: 3s
pool:
  ttl: 1h
oracle:
  recent_window: 6
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "from-yaml-env", cfg.TMDb.APIKey)
	assert.Equal(t, 3*time.Second, cfg.TMDb.Timeout)
	assert.Equal(t, time.Hour, cfg.Pool.TTL)
	assert.Equal(t, 6, cfg.Oracle.RecentWindow)
	// Untouched keys keep their defaults.
	assert.Equal(t, 200, cfg.Pool.TargetSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "castchain.yaml", "tmdb:\n  apikey: typo\n")
	_, err := Load(path, "")
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeFile(t, "castchain.yaml", "tmdb:\n  api_key: yaml-key\npool:\n  target_size: 50\n")
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("POOL_TARGET_SIZE", "120")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.TMDb.APIKey)
	assert.Equal(t, 120, cfg.Pool.TargetSize)
}

func TestDotEnvFile(t *testing.T) {
	// Registered so that the variable set by godotenv is cleared after the test.
	t.Setenv("SELECTOR_REPLAY_ATTEMPTS", "")
	os.Unsetenv("SELECTOR_REPLAY_ATTEMPTS")
	dotenv := writeFile(t, ".env", "SELECTOR_REPLAY_ATTEMPTS=3\n")

	cfg, err := Load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Selector.ReplayAttempts)

	_, err = Load("", filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestYAMLExpandsDotEnvValues(t *testing.T) {
	t.Setenv("DOTENV_ONLY_KEY", "")
	os.Unsetenv("DOTENV_ONLY_KEY")
	dotenv := writeFile(t, ".env", "DOTENV_ONLY_KEY=secret-from-dotenv\n")
	path := writeFile(t, "castchain.yaml", "tmdb:\n  api_key: ${DOTENV_ONLY_KEY}\n")

	cfg, err := Load(path, dotenv)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-dotenv", cfg.TMDb.APIKey)
}

func TestLoadNormalisesLogSettings(t *testing.T) {
	path := writeFile(t, "castchain.yaml", "log_level: \" WARN \"\nlog_format: JSON\n")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.TMDb.APIKey = "k"
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Config){
		"missing key":     func(c *Config) { c.TMDb.APIKey = "" },
		"placeholder key": func(c *Config) { c.TMDb.APIKey = tmdb.PlaceholderAPIKey },
		"zero pool":       func(c *Config) { c.Pool.TargetSize = 0 },
		"negative window": func(c *Config) { c.Oracle.RecentWindow = -1 },
		"zero attempts":   func(c *Config) { c.Selector.InitialAttempts = 0 },
		"bad log format":  func(c *Config) { c.LogFormat = "xml" },
		"bad log level":   func(c *Config) { c.LogLevel = "loud" },
		"empty addr":      func(c *Config) { c.HTTPAddr = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), errs.ErrConfiguration)
		})
	}
}
