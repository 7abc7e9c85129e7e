package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	Server struct {
		Addr         string        `yaml:"addr"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"server"`

	DataSource struct {
		// Provider is one of yahoo, alpaca, rest or mock.
		Provider  string        `yaml:"provider"`
		BaseURL   string        `yaml:"base_url"`
		APIKey    string        `yaml:"api_key"`
		APISecret string        `yaml:"api_secret"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`

	Dashboard struct {
		Tickers      []string `yaml:"tickers"`
		DefaultStart string   `yaml:"default_start"`
		MaxYears     int      `yaml:"max_years"`
	} `yaml:"dashboard"`

	Forecast struct {
		// Model is additive or goforecaster.
		Model            string  `yaml:"model"`
		IntervalWidth    float64 `yaml:"interval_width"`
		ChangepointCount int     `yaml:"changepoint_count"`
	} `yaml:"forecast"`

	Cache struct {
		// Backend is memory or redis.
		Backend    string        `yaml:"backend"`
		MaxEntries int           `yaml:"max_entries"`
		TTL        time.Duration `yaml:"ttl"`
		RedisAddr  string        `yaml:"redis_addr"`
		RedisDB    int           `yaml:"redis_db"`
	} `yaml:"cache"`

	// Schedule.DigestCron only runs when Telegram is configured.
	Schedule struct {
		SweepCron   string   `yaml:"sweep_cron"`
		PrewarmCron string   `yaml:"prewarm_cron"`
		DigestCron  string   `yaml:"digest_cron"`
		Watchlist   []string `yaml:"watchlist"`
	} `yaml:"schedule"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Proxy string `yaml:"proxy"`
}

// Load reads .env, the YAML file at path (missing file is fine), then applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STOCKCAST_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("STOCKCAST_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("STOCKCAST_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("STOCKCAST_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("STOCKCAST_TICKERS"); v != "" {
		cfg.Dashboard.Tickers = splitList(v)
	}
	if v := os.Getenv("STOCKCAST_FORECAST_MODEL"); v != "" {
		cfg.Forecast.Model = v
	}
	if v := os.Getenv("STOCKCAST_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("STOCKCAST_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxEntries = n
		}
	}
	if v := os.Getenv("REST_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.DataSource.APISecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
		cfg.Cache.Backend = "redis"
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "production"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 2 * time.Minute
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if len(cfg.Dashboard.Tickers) == 0 {
		cfg.Dashboard.Tickers = []string{"GOOG", "AAPL", "MSFT", "GME"}
	}
	for i, t := range cfg.Dashboard.Tickers {
		cfg.Dashboard.Tickers[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if cfg.Dashboard.DefaultStart == "" {
		cfg.Dashboard.DefaultStart = "2012-01-01"
	}
	if cfg.Dashboard.MaxYears == 0 {
		cfg.Dashboard.MaxYears = 4
	}
	if cfg.Forecast.Model == "" {
		cfg.Forecast.Model = "additive"
	}
	if cfg.Forecast.IntervalWidth == 0 {
		cfg.Forecast.IntervalWidth = 0.95
	}
	if cfg.Forecast.ChangepointCount == 0 {
		cfg.Forecast.ChangepointCount = 25
	}
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "memory"
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 256
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 6 * time.Hour
	}
	if cfg.Schedule.SweepCron == "" {
		cfg.Schedule.SweepCron = "0 */10 * * * *"
	}
	if cfg.Schedule.PrewarmCron == "" {
		cfg.Schedule.PrewarmCron = "0 30 22 * * 1-5"
	}
	if cfg.Schedule.DigestCron == "" {
		cfg.Schedule.DigestCron = "0 0 8 * * 1-5"
	}
	if len(cfg.Schedule.Watchlist) == 0 {
		cfg.Schedule.Watchlist = append([]string(nil), cfg.Dashboard.Tickers...)
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/stockcast.db"
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "alpaca":
		if c.DataSource.APIKey == "" || c.DataSource.APISecret == "" {
			return fmt.Errorf("data_source.api_key and data_source.api_secret are required for alpaca")
		}
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for rest")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if _, err := time.Parse("2006-01-02", c.Dashboard.DefaultStart); err != nil {
		return fmt.Errorf("dashboard.default_start: %w", err)
	}
	if c.Dashboard.MaxYears < 1 {
		return fmt.Errorf("dashboard.max_years must be positive")
	}
	if c.Forecast.Model != "additive" && c.Forecast.Model != "goforecaster" {
		return fmt.Errorf("forecast.model %q is not supported", c.Forecast.Model)
	}
	if c.Forecast.IntervalWidth <= 0 || c.Forecast.IntervalWidth >= 1 {
		return fmt.Errorf("forecast.interval_width must be in (0, 1)")
	}
	if c.Cache.Backend == "redis" && c.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required for the redis backend")
	}
	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive")
	}
	return nil
}

// NotificationsEnabled reports whether Telegram is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
