package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full serpd configuration, assembled from defaults, an
// optional YAML file, and SERPD_-prefixed environment variables
// (SERPD_PORT, SERPD_SCRAPE_DELAY, ...).
type Config struct {
	Port        int    `mapstructure:"port"`
	Dev         bool   `mapstructure:"dev"`
	MetricsPort int    `mapstructure:"metrics_port"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	CORS    CORSConfig    `mapstructure:"cors"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	History HistoryConfig `mapstructure:"history"`
}

// CORSConfig controls the CORS middleware on the API server.
type CORSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Origin  string `mapstructure:"origin"`
}

// ScrapeConfig tunes the page fetch engine.
type ScrapeConfig struct {
	Concurrency   int           `mapstructure:"concurrency"`
	MaxRetries    int           `mapstructure:"max_retries"`
	Delay         time.Duration `mapstructure:"delay"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxPages      int           `mapstructure:"max_pages"`
	Fingerprint   string        `mapstructure:"fingerprint"`
	RespectRobots bool          `mapstructure:"respect_robots"`
	Proxies       []string      `mapstructure:"proxies"`
	ProxyFile     string        `mapstructure:"proxy_file"`
}

// HistoryConfig selects the search audit backend: none, sqlite,
// postgres, or jsonl.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"`
	DSN     string `mapstructure:"dsn"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("dev", false)
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.origin", "*")

	v.SetDefault("scrape.concurrency", 2)
	v.SetDefault("scrape.max_retries", 2)
	v.SetDefault("scrape.delay", 5*time.Second)
	v.SetDefault("scrape.timeout", 15*time.Second)
	v.SetDefault("scrape.max_pages", 10)
	v.SetDefault("scrape.fingerprint", "chrome")
	v.SetDefault("scrape.respect_robots", false)
	v.SetDefault("scrape.proxies", []string{})
	v.SetDefault("scrape.proxy_file", "")

	v.SetDefault("history.backend", "none")
	v.SetDefault("history.dsn", "")
}

// Load reads configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SERPD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.validate()
	return &cfg, nil
}

// validate clamps out-of-range values back to sane defaults rather than
// failing startup.
func (c *Config) validate() {
	if c.Port <= 0 || c.Port > 65535 {
		c.Port = 8080
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		c.MetricsPort = 9090
	}
	if c.Scrape.Concurrency <= 0 {
		c.Scrape.Concurrency = 2
	}
	if c.Scrape.MaxRetries < 0 {
		c.Scrape.MaxRetries = 2
	}
	if c.Scrape.Delay < 0 {
		c.Scrape.Delay = 5 * time.Second
	}
	if c.Scrape.Timeout <= 0 {
		c.Scrape.Timeout = 15 * time.Second
	}
	if c.Scrape.MaxPages <= 0 {
		c.Scrape.MaxPages = 10
	}
	if c.Scrape.Fingerprint == "" {
		c.Scrape.Fingerprint = "chrome"
	}

	switch c.History.Backend {
	case "none", "sqlite", "postgres", "jsonl":
	default:
		c.History.Backend = "none"
	}
}
