package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "VIDEOSNAP"

// defaults lists every configuration key with its default value. Registering
// all keys lets viper resolve environment overrides during Unmarshal.
var defaults = map[string]interface{}{
	"server.port":                     8080,
	"server.log_level":                "info",
	"server.api_key_hash":             "",
	"server.shutdown_timeout_seconds": 30,

	"database.url":            "",
	"database.auto_migrate":   false,
	"database.max_open_conns": 10,

	"redis.enabled":              false,
	"redis.addr":                 "localhost:6379",
	"redis.password":             "",
	"redis.db":                   0,
	"redis.snapshot_ttl_seconds": 3600,
	"redis.lock_ttl_seconds":     60,

	"assets.root": "./resource",

	"llm.backend":             "gemini",
	"llm.gemini_api_key":      "",
	"llm.gemini_model":        "gemini-2.0-flash",
	"llm.openai_api_key":      "",
	"llm.openai_model":        "gpt-4o",
	"llm.azure_endpoint":      "",
	"llm.azure_api_version":   "",
	"llm.temperature":         1.0,
	"llm.max_image_dimension": 1280,
	"llm.max_retries":         3,

	"video.default_provider":            "minimax/video-01",
	"video.minimax.api_key":             "",
	"video.minimax.base_url":            "https://api.minimaxi.chat/v1",
	"video.minimax.model":               "video-01",
	"video.minimax.callback_url":        "",
	"video.minimax.requests_per_second": 2.0,
	"video.minimax.timeout_seconds":     30,
	"video.minimax.max_retries":         3,

	"task.worker_count":           4,
	"task.queue_size":             100,
	"task.sweep_interval_seconds": 30,
	"task.stuck_task_age_minutes": 10,
	"task.poll_timeout_minutes":   60,
	"task.max_check_failures":     5,
	"task.status_concurrency":     8,
	"task.sweep_batch_size":       50,
}

// Load configuration from an optional env file, an optional config file and
// environment variables. Environment variables take precedence over values
// from config files.
//
// The env file is named by ENV_FILE (default ".env"); the config file by
// VIDEOSNAP_CONFIG_FILE, otherwise config.yaml in the working directory.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	return LoadFile(os.Getenv(EnvPrefix + "_CONFIG_FILE"))
}

// LoadFile loads configuration from the given YAML file (if non-empty) and
// environment variables.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case configPath == "" && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}
