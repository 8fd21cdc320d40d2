// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob loaded from file, env, or defaults.
type Config struct {
	SiteFile string         `mapstructure:"site_file"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// FetchConfig controls the HTTP fetcher.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// DispatchConfig governs batched dispatch of the starting queue.
type DispatchConfig struct {
	BatchSize      int  `mapstructure:"batch_size"`
	KeepAllBundles bool `mapstructure:"keep_all_bundles"`
}

// CrawlConfig bounds the breadth-first crawler.
type CrawlConfig struct {
	StartURL string `mapstructure:"start_url"`
	MaxPages int    `mapstructure:"max_pages"`
	MaxDepth int    `mapstructure:"max_depth"`
	Workers  int    `mapstructure:"workers"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk and environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SITEGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site_file", "site.yaml")
	v.SetDefault("fetch.user_agent", "sitegraph-crawler/0.1")
	v.SetDefault("fetch.timeout_seconds", 15)
	v.SetDefault("dispatch.batch_size", 10)
	v.SetDefault("dispatch.keep_all_bundles", false)
	v.SetDefault("crawl.max_pages", 50)
	v.SetDefault("crawl.max_depth", 2)
	v.SetDefault("crawl.workers", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Dispatch.BatchSize <= 0 {
		return fmt.Errorf("dispatch.batch_size must be > 0")
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages must be > 0")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.Crawl.Workers <= 0 {
		return fmt.Errorf("crawl.workers must be > 0")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// FetchTimeout converts the configured timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}
