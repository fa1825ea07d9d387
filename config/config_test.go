package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Fetcher.MinDomainInterval)
	assert.Equal(t, 3, cfg.Fetcher.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Len(t, cfg.Fetcher.UserAgents, len(DefaultUserAgents))
	assert.Equal(t, []string{"chrome-tls", "http"}, cfg.Fetcher.Engines)
	assert.True(t, cfg.Discovery.RespectRobots)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rivalscope.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fetcher:
  min_domain_interval: 500ms
  max_attempts: 5
discovery:
  default_max_pages: 4
log:
  format: text
`), 0o600))

	t.Setenv("RIVALSCOPE_CONFIG", path)
	t.Setenv("RIVALSCOPE_MAX_ATTEMPTS", "2")
	t.Setenv("RIVALSCOPE_USER_AGENTS", "agent-a/1.0 (X, Y)|agent-b/2.0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Fetcher.MinDomainInterval)
	assert.Equal(t, 2, cfg.Fetcher.MaxAttempts, "env overrides file")
	assert.Equal(t, 4, cfg.Discovery.DefaultMaxPages)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, []string{"agent-a/1.0 (X, Y)", "agent-b/2.0"}, cfg.Fetcher.UserAgents)
	// untouched sections keep their defaults
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("RIVALSCOPE_MAX_ATTEMPTS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_attempts")
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("RIVALSCOPE_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
}
