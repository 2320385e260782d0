// Package config loads engine configuration from defaults, an optional
// YAML file, and KNOW_* environment variables, in that order of
// precedence (later wins).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Usage     UsageConfig     `yaml:"usage"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	APIToken string `yaml:"api_token"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type CrawlerConfig struct {
	MaxPages         int  `yaml:"max_pages"`
	PageTimeoutSecs  int  `yaml:"page_timeout_secs"`
	DeadlineSecs     int  `yaml:"deadline_secs"`
	DisableRendering bool `yaml:"disable_rendering"`
}

type RetrievalConfig struct {
	Limit int `yaml:"limit"`
}

type UsageConfig struct {
	DefaultMessageLimit int `yaml:"default_message_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Crawler: CrawlerConfig{
			MaxPages:        10,
			PageTimeoutSecs: 15,
			DeadlineSecs:    300,
		},
		Retrieval: RetrievalConfig{
			Limit: 3,
		},
		Usage: UsageConfig{
			DefaultMessageLimit: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "knowledge")
	}
	return ".knowledge"
}

// Load reads configuration: defaults, then the YAML file at path (skipped
// when path is empty or the file does not exist), then KNOW_* environment
// variables.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
			}
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	setInt("KNOW_PORT", &cfg.Server.Port)
	setString("KNOW_API_TOKEN", &cfg.Server.APIToken)
	setString("KNOW_DATA_DIR", &cfg.Storage.DataDir)
	setInt("KNOW_CRAWL_MAX_PAGES", &cfg.Crawler.MaxPages)
	setInt("KNOW_CRAWL_PAGE_TIMEOUT_SECS", &cfg.Crawler.PageTimeoutSecs)
	setInt("KNOW_CRAWL_DEADLINE_SECS", &cfg.Crawler.DeadlineSecs)
	setBool("KNOW_CRAWL_DISABLE_RENDERING", &cfg.Crawler.DisableRendering)
	setInt("KNOW_RETRIEVAL_LIMIT", &cfg.Retrieval.Limit)
	setInt("KNOW_DEFAULT_MESSAGE_LIMIT", &cfg.Usage.DefaultMessageLimit)
	setString("KNOW_LOG_LEVEL", &cfg.Log.Level)
}

func validate(cfg Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	if cfg.Crawler.MaxPages <= 0 {
		return fmt.Errorf("crawler max_pages must be positive, got %d", cfg.Crawler.MaxPages)
	}
	return nil
}
