package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// EnvPrefix scopes the environment variables read by Load, e.g. STEAM_BROWSER_HTTP_PORT
const EnvPrefix = "STEAM_BROWSER_"

type Config struct {
	StorageDriver     StorageDriver `koanf:"storage_driver"`
	StoragePath       string        `koanf:"storage_path"`
	HTTPPort          string        `koanf:"http_port"`
	StoreAPIURL       string        `koanf:"store_api_url"`
	WebAPIURL         string        `koanf:"web_api_url"`
	SteamAPIKey       string        `koanf:"steam_api_key"`
	CountryCode       string        `koanf:"country_code"`
	Language          string        `koanf:"language"`
	RequestTimeout    int           `koanf:"request_timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	MaxParallel       int           `koanf:"max_parallel"`
	SearchLimit       int           `koanf:"search_limit"`
	RankingPool       int           `koanf:"ranking_pool"`
	RankingLimit      int           `koanf:"ranking_limit"`
	TelegramBotToken  string        `koanf:"telegram_bot_token"`
	TelegramAPIURL    string        `koanf:"telegram_api_url"`
	AppEnv            AppEnv        `koanf:"app_env"`
	LogLevel          string        `koanf:"log_level"`
}

var defaults = map[string]any{
	"storage_driver":      "file",
	"storage_path":        "./data",
	"http_port":           "8080",
	"store_api_url":       "https://store.steampowered.com",
	"web_api_url":         "https://api.steampowered.com",
	"country_code":        "US",
	"language":            "english",
	"request_timeout":     15,
	"requests_per_second": 10,
	"max_parallel":        8,
	"search_limit":        10,
	"ranking_pool":        100,
	"ranking_limit":       10,
	"telegram_api_url":    "https://api.telegram.org",
	"app_env":             "production",
	"log_level":           "info",
}

// Load builds the configuration from an optional config file, a .env file and
// the process environment. An empty configFile falls back to config.{yaml,yml,json,toml}
// in the working directory.
func Load(configFile string) (*Config, error) {
	k := koanf.New(".")

	// .env values become regular environment variables; a missing file is fine
	_ = godotenv.Load()

	if configFile == "" {
		candidates := []string{
			"config.yaml",
			"config.yml",
			"config.json",
			"config.toml",
		}
		configFile, _ = lo.Find(candidates, func(file string) bool {
			_, err := os.Stat(file)
			return err == nil
		})
	}

	if configFile != "" {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Environment variables override config file values
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	driver, err := ParseStorageDriver(k.String("storage_driver"))
	if err != nil {
		return nil, oops.With("storage_driver", k.String("storage_driver")).Wrap(err)
	}
	cfg.StorageDriver = driver

	if appEnv, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = appEnv
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	cfg.StoreAPIURL = strings.TrimRight(cfg.StoreAPIURL, "/")
	cfg.WebAPIURL = strings.TrimRight(cfg.WebAPIURL, "/")

	if cfg.MaxParallel < 1 {
		cfg.MaxParallel = 1
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, oops.With("requests_per_second", cfg.RequestsPerSecond).Errorf("requests_per_second must be positive")
	}

	return &cfg, nil
}

// Timeout returns the per-request HTTP timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// BotEnabled reports whether the Telegram front end should start
func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}

// SlogLevel parses LogLevel, falling back to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
