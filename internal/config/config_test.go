package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"BOOX_TABLET_URL", "BOOX_TABLET_IP", "BOOX_TABLET_PORT", "MANGADEX_API_KEY"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestBooxBaseURLWithExplicitURL(t *testing.T) {
	cfg := Config{Publish: PublishConfig{Boox: BooxConfig{URL: "http://192.168.1.10:8085", Port: 8085}}}

	baseURL, err := cfg.BooxBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.10:8085", baseURL)
}

func TestBooxBaseURLFromIP(t *testing.T) {
	cfg := Config{Publish: PublishConfig{Boox: BooxConfig{IP: "192.168.1.5", Port: 8085}}}

	baseURL, err := cfg.BooxBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.5:8085", baseURL)
}

func TestBooxBaseURLRequiresValue(t *testing.T) {
	cfg := Config{Publish: PublishConfig{Boox: BooxConfig{Port: 8085}}}

	_, err := cfg.BooxBaseURL()
	assert.Error(t, err)
	assert.False(t, cfg.BooxConfigured())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "./downloads", cfg.DownloadDir)
	assert.Equal(t, "./temp", cfg.TempDir)
	assert.Equal(t, 3, cfg.Attempts)
	assert.Equal(t, time.Second, cfg.Backoff)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.ChapterDelay)
	assert.Equal(t, 0, cfg.Concurrency)
	assert.Equal(t, defaultBooxPort, cfg.Publish.Boox.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadMergesFileAndEnvironment(t *testing.T) {
	dir := isolate(t)
	configPath := filepath.Join(dir, "custom.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{
		"download_dir": "/srv/manga",
		"chapter_delay": "500ms",
		"concurrency": 4,
		"publish": {"boox": {"ip": "10.0.0.2"}}
	}`), 0o644))

	t.Setenv("MANGADL_CONCURRENCY", "8")
	t.Setenv("MANGADL_PUBLISH_BUCKET_URL", "mem://")
	t.Setenv("MANGADEX_API_KEY", "legacy-key")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "/srv/manga", cfg.DownloadDir)
	assert.Equal(t, 500*time.Millisecond, cfg.ChapterDelay)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "mem://", cfg.Publish.BucketURL)
	assert.Equal(t, "legacy-key", cfg.Providers.MangaDexAPIKey)

	baseURL, err := cfg.BooxBaseURL()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:8085", baseURL)
}

func TestLoadReadsEnvFileFromConfigDir(t *testing.T) {
	isolate(t)
	envPath, err := EnvPath()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(envPath), 0o755))
	require.NoError(t, os.WriteFile(envPath, []byte("MANGADL_TEST_ENV_FILE=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MANGADL_TEST_ENV_FILE") })

	_, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", os.Getenv("MANGADL_TEST_ENV_FILE"))
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := isolate(t)
	configPath := filepath.Join(dir, "mangadl", "config.json")

	cfg := DefaultConfig()
	cfg.DownloadDir = "/tmp/out"
	cfg.ChapterDelay = 3 * time.Second
	cfg.Publish.Boox.URL = "boox.local"
	require.NoError(t, SaveConfigTo(configPath, cfg))

	loaded, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Concurrency = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Attempts = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Publish.Boox.URL = "http://"
	assert.Error(t, cfg.Validate())
}
