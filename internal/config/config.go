package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultAPIBaseURL is the same-host backend used when nothing is configured.
const DefaultAPIBaseURL = "http://127.0.0.1:8000"

// Config represents the complete application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Filters  FiltersConfig  `mapstructure:"filters"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig holds the betting backend connection settings
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	FeedLimit int           `mapstructure:"feed_limit"`
}

// FiltersConfig holds the initial filter/sort state of a view
type FiltersConfig struct {
	Match     string `mapstructure:"match"`
	Bookmaker string `mapstructure:"bookmaker"`
	Scope     string `mapstructure:"scope"`
	SortKey   string `mapstructure:"sort_key"`
	SortDir   string `mapstructure:"sort_dir"`
	OddsMin   string `mapstructure:"odds_min"`
	OddsMax   string `mapstructure:"odds_max"`
	LastN     int    `mapstructure:"last_n"`
}

// WatchConfig holds the polling digest behavior
type WatchConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	TopK         int           `mapstructure:"top_k"`
	Cooldown     time.Duration `mapstructure:"cooldown"`
	MinEdge      float64       `mapstructure:"min_edge"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the snapshot database configuration
type StorageConfig struct {
	DBPath       string `mapstructure:"db_path"`
	MaxSnapshots int    `mapstructure:"max_snapshots"`
}

// ServerConfig holds the local view API configuration
type ServerConfig struct {
	HTTPAddr    string   `mapstructure:"http_addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// PROPBOARD_API_BASE_URL, PROPBOARD_TELEGRAM_BOT_TOKEN, ...
	v.SetEnvPrefix("PROPBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The web frontend's variable names are honored too.
	if err := v.BindEnv("api.base_url", "PROPBOARD_API_BASE_URL", "NEXT_PUBLIC_API_BASE_URL", "NEXT_PUBLIC_API_BASE"); err != nil {
		return nil, fmt.Errorf("failed to bind api base url env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.BaseURL = NormalizeBaseURL(cfg.API.BaseURL)

	return &cfg, nil
}

// NormalizeBaseURL trims whitespace and trailing slashes, falling back to
// DefaultAPIBaseURL when empty.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	if s == "" {
		return DefaultAPIBaseURL
	}
	return s
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", DefaultAPIBaseURL)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.feed_limit", 2000)

	// Filter defaults
	v.SetDefault("filters.match", "upcoming")
	v.SetDefault("filters.bookmaker", "all")
	v.SetDefault("filters.scope", "ALL")
	v.SetDefault("filters.sort_key", "L15")
	v.SetDefault("filters.sort_dir", "desc")
	v.SetDefault("filters.odds_min", "1.40")
	v.SetDefault("filters.odds_max", "3.00")
	v.SetDefault("filters.last_n", 15)

	// Watch defaults
	v.SetDefault("watch.poll_interval", "10m")
	v.SetDefault("watch.top_k", 10)
	v.SetDefault("watch.cooldown", "2h")
	v.SetDefault("watch.min_edge", 5.0)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.db_path", "./data/propboard.db")
	v.SetDefault("storage.max_snapshots", 20)

	// Server defaults
	v.SetDefault("server.http_addr", "127.0.0.1:8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate API config
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("api.base_url must start with http:// or https://")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.API.FeedLimit < 1 {
		return fmt.Errorf("api.feed_limit must be at least 1")
	}

	// Validate Filters config
	validScopes := map[string]bool{"MAIN": true, "ALT": true, "ALL": true}
	if !validScopes[strings.ToUpper(c.Filters.Scope)] {
		return fmt.Errorf("filters.scope must be one of: MAIN, ALT, ALL")
	}
	validSortKeys := map[string]bool{
		"L5": true, "L10": true, "L15": true, "L20": true,
		"vL5": true, "vL10": true, "vL15": true, "vL20": true,
	}
	if !validSortKeys[c.Filters.SortKey] {
		return fmt.Errorf("filters.sort_key must be one of: L5, L10, L15, L20, vL5, vL10, vL15, vL20")
	}
	if c.Filters.SortDir != "asc" && c.Filters.SortDir != "desc" {
		return fmt.Errorf("filters.sort_dir must be one of: asc, desc")
	}
	validWindows := map[int]bool{5: true, 10: true, 15: true, 20: true}
	if !validWindows[c.Filters.LastN] {
		return fmt.Errorf("filters.last_n must be one of: 5, 10, 15, 20")
	}

	// Validate Watch config
	if c.Watch.PollInterval < 1*time.Minute {
		return fmt.Errorf("watch.poll_interval must be at least 1 minute")
	}
	if c.Watch.TopK < 1 {
		return fmt.Errorf("watch.top_k must be at least 1")
	}
	if c.Watch.Cooldown < 0 {
		return fmt.Errorf("watch.cooldown must not be negative")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required")
	}
	if c.Storage.MaxSnapshots < 1 {
		return fmt.Errorf("storage.max_snapshots must be at least 1")
	}

	// Validate Server config
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
