package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
api:
  base_url: "http://bets.local:8000/"
  timeout: 20s
  feed_limit: 500

filters:
  match: "all"
  bookmaker: "Novibet"
  scope: "MAIN"
  sort_key: "vL10"
  sort_dir: "asc"
  odds_min: "1,50"
  odds_max: "2.50"
  last_n: 10

watch:
  poll_interval: 5m
  top_k: 5
  cooldown: 1h

telegram:
  bot_token: "test_token"
  chat_id: "12345"
  enabled: true

storage:
  db_path: "./data/test.db"
  max_snapshots: 5

logging:
  level: "debug"
  format: "text"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.API.BaseURL != "http://bets.local:8000" {
		t.Errorf("Expected trailing slash trimmed, got %s", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 20*time.Second {
		t.Errorf("Unexpected timeout: %v", cfg.API.Timeout)
	}
	if cfg.Filters.SortKey != "vL10" {
		t.Errorf("Unexpected sort key: %s", cfg.Filters.SortKey)
	}
	if cfg.Filters.OddsMin != "1,50" {
		t.Errorf("Expected odds_min kept as raw string, got %s", cfg.Filters.OddsMin)
	}
	if cfg.Watch.TopK != 5 {
		t.Errorf("Expected top_k 5, got %d", cfg.Watch.TopK)
	}
	// Defaults still apply for omitted keys
	if cfg.Server.HTTPAddr != "127.0.0.1:8080" {
		t.Errorf("Expected default http addr, got %s", cfg.Server.HTTPAddr)
	}
	if cfg.Telegram.MaxRetries != 3 {
		t.Errorf("Expected default max_retries 3, got %d", cfg.Telegram.MaxRetries)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("PROPBOARD_API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE", "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultAPIBaseURL {
		t.Errorf("Expected %s, got %s", DefaultAPIBaseURL, cfg.API.BaseURL)
	}
	if cfg.API.FeedLimit != 2000 {
		t.Errorf("Expected feed limit 2000, got %d", cfg.API.FeedLimit)
	}
	if cfg.Filters.Match != "upcoming" || cfg.Filters.Bookmaker != "all" || cfg.Filters.Scope != "ALL" {
		t.Errorf("Unexpected filter defaults: %+v", cfg.Filters)
	}
	if cfg.Filters.SortKey != "L15" || cfg.Filters.SortDir != "desc" {
		t.Errorf("Unexpected sort defaults: %s %s", cfg.Filters.SortKey, cfg.Filters.SortDir)
	}
	if cfg.Filters.OddsMin != "1.40" || cfg.Filters.OddsMax != "3.00" {
		t.Errorf("Unexpected odds defaults: %s-%s", cfg.Filters.OddsMin, cfg.Filters.OddsMax)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults should validate: %v", err)
	}
}

func TestLoadBaseURLFromEnv(t *testing.T) {
	t.Setenv("PROPBOARD_API_BASE_URL", "")
	t.Setenv("NEXT_PUBLIC_API_BASE", "")
	t.Setenv("NEXT_PUBLIC_API_BASE_URL", "https://api.example.com///")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Errorf("Expected env base url, got %s", cfg.API.BaseURL)
	}

	t.Setenv("PROPBOARD_API_BASE_URL", "http://10.0.0.2:9000")
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.2:9000" {
		t.Errorf("Expected PROPBOARD_ variable to win, got %s", cfg.API.BaseURL)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultAPIBaseURL},
		{"   ", DefaultAPIBaseURL},
		{"http://x:8000/", "http://x:8000"},
		{"http://x:8000", "http://x:8000"},
	}
	for _, tt := range tests {
		if got := NormalizeBaseURL(tt.in); got != tt.want {
			t.Errorf("NormalizeBaseURL(%q) = %s, expected %s", tt.in, got, tt.want)
		}
	}
}

func validConfig() *Config {
	return &Config{
		API: APIConfig{BaseURL: "http://127.0.0.1:8000", Timeout: 30 * time.Second, FeedLimit: 2000},
		Filters: FiltersConfig{
			Match: "upcoming", Bookmaker: "all", Scope: "ALL",
			SortKey: "L15", SortDir: "desc", OddsMin: "1.40", OddsMax: "3.00", LastN: 15,
		},
		Watch:   WatchConfig{PollInterval: 10 * time.Minute, TopK: 10, Cooldown: time.Hour},
		Storage: StorageConfig{DBPath: "./data/test.db", MaxSnapshots: 10},
		Server:  ServerConfig{HTTPAddr: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing telegram token when enabled", mutate: func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "1" }, wantErr: true},
		{name: "missing telegram chat when enabled", mutate: func(c *Config) { c.Telegram.Enabled = true; c.Telegram.BotToken = "t" }, wantErr: true},
		{name: "bad base url", mutate: func(c *Config) { c.API.BaseURL = "localhost:8000" }, wantErr: true},
		{name: "bad scope", mutate: func(c *Config) { c.Filters.Scope = "PRIMARY" }, wantErr: true},
		{name: "bad sort key", mutate: func(c *Config) { c.Filters.SortKey = "L7" }, wantErr: true},
		{name: "bad sort dir", mutate: func(c *Config) { c.Filters.SortDir = "up" }, wantErr: true},
		{name: "bad last n", mutate: func(c *Config) { c.Filters.LastN = 12 }, wantErr: true},
		{name: "poll interval too short", mutate: func(c *Config) { c.Watch.PollInterval = 30 * time.Second }, wantErr: true},
		{name: "top k zero", mutate: func(c *Config) { c.Watch.TopK = 0 }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.Storage.DBPath = "" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
