package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoadDefaults(t *testing.T) {
	reset(t)
	viper.Set("tmdb_api_key", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.TmdbApiKey)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TmdbBaseURL)
	assert.Equal(t, 10*time.Second, cfg.TmdbTimeout)
	assert.Equal(t, "US", cfg.TmdbRegion)
	assert.Equal(t, "127.0.0.1:8000", cfg.ListenAddr)
	assert.Equal(t, 50, cfg.LogMaxSize)
}

func TestLoadRequiresApiKey(t *testing.T) {
	reset(t)

	_, err := Load()
	require.ErrorContains(t, err, "tmdb_api_key is required")
}

func TestLoadFromEnv(t *testing.T) {
	reset(t)
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()

	t.Setenv("WHIST_TMDB_API_KEY", "from-env")
	t.Setenv("WHIST_TMDB_TIMEOUT", "3s")
	t.Setenv("WHIST_TMDB_REGION", "gb")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TmdbApiKey)
	assert.Equal(t, 3*time.Second, cfg.TmdbTimeout)
	assert.Equal(t, "GB", cfg.TmdbRegion)
}

func TestLoadFromFile(t *testing.T) {
	reset(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tmdb_api_key: from-file
data_dir: /var/lib/whist
log_file: whist.log
discord_webhook_url: https://discord.example/webhook
`), 0644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TmdbApiKey)
	assert.Equal(t, "/var/lib/whist", cfg.DataDir)
	assert.Equal(t, "whist.log", cfg.LogFile)
	assert.Equal(t, "https://discord.example/webhook", cfg.DiscordWebhookURL)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]struct {
		key   string
		value any
		want  string
	}{
		"timeout":   {"tmdb_timeout", "-1s", "invalid tmdb_timeout"},
		"region":    {"tmdb_region", "USA", "invalid tmdb_region"},
		"data dir":  {"data_dir", "", "data_dir must not be empty"},
		"log level": {"log_level", "loud", "invalid log_level"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			reset(t)
			viper.Set("tmdb_api_key", "secret")
			viper.Set(tc.key, tc.value)

			_, err := Load()
			require.ErrorContains(t, err, tc.want)
		})
	}
}
