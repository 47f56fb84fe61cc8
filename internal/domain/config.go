package domain

import "time"

type Config struct {
	TmdbApiKey        string        `mapstructure:"tmdb_api_key"`
	TmdbBaseURL       string        `mapstructure:"tmdb_base_url"`
	TmdbTimeout       time.Duration `mapstructure:"tmdb_timeout"`
	TmdbRegion        string        `mapstructure:"tmdb_region"`
	DataDir           string        `mapstructure:"data_dir"`
	ListenAddr        string        `mapstructure:"listen_addr"`
	LogLevel          string        `mapstructure:"log_level"`
	LogFile           string        `mapstructure:"log_file"`
	LogMaxSize        int           `mapstructure:"log_max_size"`
	LogMaxBackups     int           `mapstructure:"log_max_backups"`
	LogMaxAge         int           `mapstructure:"log_max_age"`
	DiscordWebhookURL string        `mapstructure:"discord_webhook_url"`
}
