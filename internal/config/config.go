package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Completion CompletionConfig `yaml:"completion"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Auth       AuthConfig       `yaml:"auth"`
	Covers     CoversConfig     `yaml:"covers"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CompletionConfig contains completion service settings.
type CompletionConfig struct {
	APIKey           string   `yaml:"-"` // env-only, never in YAML
	Model            string   `yaml:"model"`
	MinInterval      Duration `yaml:"min_interval"`
	MaxAttempts      int      `yaml:"max_attempts"`
	OverloadCooldown Duration `yaml:"overload_cooldown"`
	RetryBackoff     Duration `yaml:"retry_backoff"`
	// FailFastAuth stops retrying when the provider rejects the credentials
	// instead of consuming retry attempts on an unrecoverable error.
	FailFastAuth bool `yaml:"fail_fast_auth"`
}

// RecommendConfig contains recommendation engine settings.
type RecommendConfig struct {
	CacheTTL        Duration `yaml:"cache_ttl"`
	MaxResults      int      `yaml:"max_results"`
	MinAIResults    int      `yaml:"min_ai_results"`
	PipelineTimeout Duration `yaml:"pipeline_timeout"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// CoversConfig contains S3-compatible cover image storage settings.
// Covers storage is optional; an empty bucket keeps the system local-only.
type CoversConfig struct {
	Endpoint  string   `yaml:"endpoint"`
	Bucket    string   `yaml:"bucket"`
	AccessKey string   `yaml:"access_key"`
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	Region    string   `yaml:"region"`
	UseSSL    *bool    `yaml:"use_ssl"`
	URLExpiry Duration `yaml:"url_expiry"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("SHELFWISE_CONFIG_PATH", "config/shelfwise.yaml")

	// Load YAML file if it exists (missing file is not an error)
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8080,
			ReadTimeout: Duration(30 * time.Second),
			// Must outlast recommend.pipeline_timeout or the degraded
			// answer is dropped at the connection after a retry storm.
			WriteTimeout:    Duration(2 * time.Minute),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/shelfwise.db",
		},
		Completion: CompletionConfig{
			Model:            "gpt-4o-mini",
			MinInterval:      Duration(5 * time.Second),
			MaxAttempts:      3,
			OverloadCooldown: Duration(60 * time.Second),
			RetryBackoff:     Duration(2 * time.Second),
			FailFastAuth:     false,
		},
		Recommend: RecommendConfig{
			CacheTTL:        Duration(1 * time.Hour),
			MaxResults:      5,
			MinAIResults:    3,
			PipelineTimeout: Duration(90 * time.Second),
		},
		Covers: CoversConfig{
			URLExpiry: Duration(15 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
// Missing file is not an error; we just use defaults.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("SHELFWISE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SHELFWISE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SHELFWISE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SHELFWISE_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("SHELFWISE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Completion (OPENAI_API_KEY is industry convention)
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Completion.APIKey = v
	}
	if v := os.Getenv("SHELFWISE_COMPLETION_MODEL"); v != "" {
		cfg.Completion.Model = v
	}
	if v := os.Getenv("SHELFWISE_COMPLETION_MIN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Completion.MinInterval = Duration(d)
		}
	}
	if v := os.Getenv("SHELFWISE_COMPLETION_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Completion.MaxAttempts = n
		}
	}
	if v := os.Getenv("SHELFWISE_COMPLETION_FAIL_FAST_AUTH"); v != "" {
		cfg.Completion.FailFastAuth = v == "true" || v == "1"
	}

	// Recommend
	if v := os.Getenv("SHELFWISE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recommend.CacheTTL = Duration(d)
		}
	}
	if v := os.Getenv("SHELFWISE_PIPELINE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Recommend.PipelineTimeout = Duration(d)
		}
	}

	// Auth
	if v := os.Getenv("SHELFWISE_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Covers
	if v := os.Getenv("SHELFWISE_COVERS_ENDPOINT"); v != "" {
		cfg.Covers.Endpoint = v
	}
	if v := os.Getenv("SHELFWISE_COVERS_BUCKET"); v != "" {
		cfg.Covers.Bucket = v
	}
	if v := os.Getenv("SHELFWISE_COVERS_ACCESS_KEY"); v != "" {
		cfg.Covers.AccessKey = v
	}
	if v := os.Getenv("SHELFWISE_COVERS_SECRET_KEY"); v != "" {
		cfg.Covers.SecretKey = v
	}
	if v := os.Getenv("SHELFWISE_COVERS_REGION"); v != "" {
		cfg.Covers.Region = v
	}

	// Log
	if v := os.Getenv("SHELFWISE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SHELFWISE_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (SHELFWISE_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.Completion.MaxAttempts < 1 {
		return errors.New("completion.max_attempts must be at least 1")
	}
	if c.Recommend.MaxResults < 1 {
		return errors.New("recommend.max_results must be at least 1")
	}
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.Recommend.PipelineTimeout {
		return errors.New("server.write_timeout must exceed recommend.pipeline_timeout")
	}

	// Dev mode bypasses API key validation
	if os.Getenv("SHELFWISE_DEV_MODE") == "true" {
		return nil
	}

	if c.Completion.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if c.Auth.APIKey == "" {
		return errors.New("SHELFWISE_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
