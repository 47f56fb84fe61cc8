package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/varoOP/whist/internal/domain"
)

// EnvPrefix namespaces environment overrides, e.g. WHIST_TMDB_API_KEY.
const EnvPrefix = "WHIST"

func setDefaults() {
	viper.SetDefault("tmdb_api_key", "")
	viper.SetDefault("tmdb_base_url", "https://api.themoviedb.org/3")
	viper.SetDefault("tmdb_timeout", 10*time.Second)
	viper.SetDefault("tmdb_region", "US")
	viper.SetDefault("data_dir", ".")
	viper.SetDefault("listen_addr", "127.0.0.1:8000")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", "")
	viper.SetDefault("log_max_size", 50)
	viper.SetDefault("log_max_backups", 3)
	viper.SetDefault("log_max_age", 28)
	viper.SetDefault("discord_webhook_url", "")
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (WHIST_*)
// 3. Command line flags bound to viper keys
func Load() (*domain.Config, error) {
	setDefaults()

	cfg := &domain.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.TmdbRegion = strings.ToUpper(strings.TrimSpace(cfg.TmdbRegion))

	// Validate required fields
	if cfg.TmdbApiKey == "" {
		return nil, fmt.Errorf("tmdb_api_key is required (set via config.yaml or %s_TMDB_API_KEY environment variable)", EnvPrefix)
	}
	if cfg.TmdbTimeout <= 0 {
		return nil, fmt.Errorf("invalid tmdb_timeout: %s (must be positive)", cfg.TmdbTimeout)
	}
	if len(cfg.TmdbRegion) != 2 {
		return nil, fmt.Errorf("invalid tmdb_region: %q (must be a two-letter country code)", cfg.TmdbRegion)
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("data_dir must not be empty")
	}
	if cfg.LogLevel != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid log_level: %s (must be trace, debug, info, warn or error)", cfg.LogLevel)
		}
	}

	return cfg, nil
}
