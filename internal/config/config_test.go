package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.NotEmpty(t, cfg.TokenDir)
}

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	content := "apiUrl: https://api.ambio.example\ntokenDir: /tmp/ambio-tokens\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://api.ambio.example", cfg.APIURL)
	assert.Equal(t, "/tmp/ambio-tokens", cfg.TokenDir)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("apiUrl: [unclosed"), 0600))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("apiUrl: https://file.example\n"), 0600))
	t.Setenv(APIURLEnvVar, "https://env.example")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example", cfg.APIURL)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(configPath, []byte("apiUrl: https://one.example\n"), 0600))

	var reloaded atomic.Value
	watcher := NewWatcher(dir, func(cfg Config) {
		reloaded.Store(cfg.APIURL)
	})
	require.NoError(t, watcher.Start())
	t.Cleanup(watcher.Stop)

	require.NoError(t, os.WriteFile(configPath, []byte("apiUrl: https://two.example\n"), 0600))

	assert.Eventually(t, func() bool {
		v, ok := reloaded.Load().(string)
		return ok && v == "https://two.example"
	}, 5*time.Second, 50*time.Millisecond)
}
