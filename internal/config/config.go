package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Assets   AssetsConfig   `mapstructure:"assets" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Video    VideoConfig    `mapstructure:"video" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// APIKeyHash is the bcrypt hash of the API key required on /i2v routes.
	// Authentication is disabled when empty.
	APIKeyHash             string `mapstructure:"api_key_hash"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	AutoMigrate  bool   `mapstructure:"auto_migrate"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// RedisConfig configures the optional snapshot cache and reconcile lock.
type RedisConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Addr               string `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db" validate:"gte=0"`
	SnapshotTTLSeconds int    `mapstructure:"snapshot_ttl_seconds" validate:"gte=1"`
	LockTTLSeconds     int    `mapstructure:"lock_ttl_seconds" validate:"gte=1"`
}

// AssetsConfig configures where image and video blobs are stored.
type AssetsConfig struct {
	Root string `mapstructure:"root" validate:"required"`
}

// LLMConfig contains all prompt generation settings.
type LLMConfig struct {
	Backend           string  `mapstructure:"backend" validate:"required,oneof=gemini openai"`
	GeminiAPIKey      string  `mapstructure:"gemini_api_key" validate:"required_if=Backend gemini"`
	GeminiModel       string  `mapstructure:"gemini_model" validate:"required_if=Backend gemini"`
	OpenAIAPIKey      string  `mapstructure:"openai_api_key" validate:"required_if=Backend openai"`
	OpenAIModel       string  `mapstructure:"openai_model" validate:"required_if=Backend openai"`
	AzureEndpoint     string  `mapstructure:"azure_endpoint" validate:"omitempty,url"`
	AzureAPIVersion   string  `mapstructure:"azure_api_version"`
	Temperature       float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxImageDimension int     `mapstructure:"max_image_dimension" validate:"gte=64"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// VideoConfig configures the video generation providers.
type VideoConfig struct {
	DefaultProvider string        `mapstructure:"default_provider" validate:"required"`
	Minimax         MinimaxConfig `mapstructure:"minimax" validate:"required"`
}

// MinimaxConfig holds the MiniMax video generation API settings.
type MinimaxConfig struct {
	APIKey            string  `mapstructure:"api_key" validate:"required"`
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	Model             string  `mapstructure:"model" validate:"required"`
	CallbackURL       string  `mapstructure:"callback_url" validate:"omitempty,url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=1"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// TaskConfig configures background execution and reconciliation.
type TaskConfig struct {
	WorkerCount          int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize            int `mapstructure:"queue_size" validate:"gte=1"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds" validate:"gte=1"`
	StuckTaskAgeMinutes  int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
	PollTimeoutMinutes   int `mapstructure:"poll_timeout_minutes" validate:"gte=1"`
	MaxCheckFailures     int `mapstructure:"max_check_failures" validate:"gte=1"`
	StatusConcurrency    int `mapstructure:"status_concurrency" validate:"gte=1"`
	SweepBatchSize       int `mapstructure:"sweep_batch_size" validate:"gte=1"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// SnapshotTTL returns how long terminal task snapshots stay cached.
func (c RedisConfig) SnapshotTTL() time.Duration {
	return time.Duration(c.SnapshotTTLSeconds) * time.Second
}

// LockTTL returns the expiry of a per-task reconcile lock.
func (c RedisConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// Timeout returns the per-request HTTP timeout towards MiniMax.
func (c MinimaxConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SweepInterval returns the period of the background sweeper.
func (c TaskConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// StuckTaskAge returns how long an idle or prompt_generated task may sit
// before the sweeper resubmits it.
func (c TaskConfig) StuckTaskAge() time.Duration {
	return time.Duration(c.StuckTaskAgeMinutes) * time.Minute
}

// PollTimeout returns how long a submitted task may be polled before it fails.
func (c TaskConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutMinutes) * time.Minute
}
