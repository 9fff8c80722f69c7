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
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Research ResearchConfig `yaml:"research"`
	News     NewsConfig     `yaml:"news"`
	Static   StaticConfig   `yaml:"static"`
	Backup   BackupConfig   `yaml:"backup"`
	Log      LogConfig      `yaml:"log"`
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

// SupabaseConfig contains identity provider settings.
type SupabaseConfig struct {
	URL       string   `yaml:"url"`
	AnonKey   string   `yaml:"-"` // env-only, never in YAML
	JWTSecret string   `yaml:"-"` // env-only, never in YAML
	Timeout   Duration `yaml:"timeout"`
}

// ResearchConfig contains completion provider settings.
type ResearchConfig struct {
	APIKey  string   `yaml:"-"` // env-only, never in YAML
	Model   string   `yaml:"model"`
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// NewsConfig contains news provider settings.
type NewsConfig struct {
	APIKey  string   `yaml:"-"` // env-only, never in YAML
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// StaticConfig contains static asset serving settings.
type StaticConfig struct {
	Dir string `yaml:"dir"`
}

// BackupConfig contains database backup settings.
type BackupConfig struct {
	Interval Duration            `yaml:"interval"`
	Storage  BackupStorageConfig `yaml:"storage"`
}

// BackupStorageConfig contains S3-compatible backup storage settings.
// An empty bucket disables uploads.
type BackupStorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"-"` // env-only, never in YAML
	SecretKey string `yaml:"-"` // env-only, never in YAML
	UseSSL    *bool  `yaml:"use_ssl"`
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

	configPath := getEnv("STOCKIN_CONFIG_PATH", "config/stockin.yaml")

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
			Port:        8000,
			ReadTimeout: Duration(30 * time.Second),
			// Write timeout must exceed the research provider timeout,
			// or a slow completion truncates the response.
			WriteTimeout:    Duration(90 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/stockin.db",
		},
		Supabase: SupabaseConfig{
			Timeout: Duration(10 * time.Second),
		},
		Research: ResearchConfig{
			Model:   "llama-3.1-8b-instant",
			BaseURL: "https://api.groq.com/openai/v1",
			Timeout: Duration(40 * time.Second),
		},
		News: NewsConfig{
			BaseURL: "https://newsapi.org/v2",
			Timeout: Duration(15 * time.Second),
		},
		Static: StaticConfig{
			Dir: "web",
		},
		Backup: BackupConfig{
			Interval: Duration(1 * time.Hour),
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
	if v := os.Getenv("STOCKIN_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STOCKIN_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("STOCKIN_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("STOCKIN_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("STOCKIN_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Identity provider (conventional Supabase variable names)
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Supabase.AnonKey = v
	}
	if v := os.Getenv("SUPABASE_JWT_SECRET"); v != "" {
		cfg.Supabase.JWTSecret = v
	}

	// Completion provider (GROQ_API_KEY is the provider's convention)
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.Research.APIKey = v
	}
	if v := os.Getenv("STOCKIN_RESEARCH_MODEL"); v != "" {
		cfg.Research.Model = v
	}
	if v := os.Getenv("STOCKIN_RESEARCH_BASE_URL"); v != "" {
		cfg.Research.BaseURL = v
	}
	if v := os.Getenv("STOCKIN_RESEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Research.Timeout = Duration(d)
		}
	}

	// News provider
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.News.APIKey = v
	}
	if v := os.Getenv("STOCKIN_NEWS_BASE_URL"); v != "" {
		cfg.News.BaseURL = v
	}

	// Static assets
	if v := os.Getenv("STOCKIN_STATIC_DIR"); v != "" {
		cfg.Static.Dir = v
	}

	// Backup
	if v := os.Getenv("STOCKIN_BACKUP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Backup.Interval = Duration(d)
		}
	}
	if v := os.Getenv("STOCKIN_BACKUP_ENDPOINT"); v != "" {
		cfg.Backup.Storage.Endpoint = v
	}
	if v := os.Getenv("STOCKIN_BACKUP_BUCKET"); v != "" {
		cfg.Backup.Storage.Bucket = v
	}
	if v := os.Getenv("STOCKIN_BACKUP_REGION"); v != "" {
		cfg.Backup.Storage.Region = v
	}
	if v := os.Getenv("STOCKIN_BACKUP_ACCESS_KEY"); v != "" {
		cfg.Backup.Storage.AccessKey = v
	}
	if v := os.Getenv("STOCKIN_BACKUP_SECRET_KEY"); v != "" {
		cfg.Backup.Storage.SecretKey = v
	}

	// Log
	if v := os.Getenv("STOCKIN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STOCKIN_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (STOCKIN_DEV_MODE=true), identity provider validation is
// skipped; completion and news keys are always optional since their absence
// only degrades responses.
func (c *Config) validate() error {
	if os.Getenv("STOCKIN_DEV_MODE") == "true" {
		return nil
	}

	if c.Supabase.URL == "" {
		return errors.New("SUPABASE_URL is required")
	}
	if c.Supabase.AnonKey == "" {
		return errors.New("SUPABASE_ANON_KEY is required")
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
