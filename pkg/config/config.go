package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable the downloader reads
const EnvPrefix = "RDSCRAPER_"

// Config holds all configuration options for the downloader
type Config struct {
	Reddit     RedditConfig     `yaml:"reddit" json:"reddit"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit" json:"rate_limit"`
	Output     OutputConfig     `yaml:"output" json:"output"`
	Download   DownloadConfig   `yaml:"download" json:"download"`
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
}

// RedditConfig holds settings for the listing and item endpoints
type RedditConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	// Cookie is an optional raw Cookie header value. Stored sessions
	// (see "rdscraper auth login") take precedence when present.
	Cookie string `yaml:"cookie" json:"cookie"`
}

// RateLimitConfig paces outgoing requests. It never triggers retries.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	Burst             int `yaml:"burst" json:"burst"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	CreateArchive bool   `yaml:"create_archive" json:"create_archive"`
}

// DownloadConfig holds per-request settings
type DownloadConfig struct {
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	PageSize int           `yaml:"page_size" json:"page_size"`
}

// CheckpointConfig locates the checkpoint file and the optional listing cache.
// Empty paths resolve to the platform data directory.
type CheckpointConfig struct {
	Path          string `yaml:"path" json:"path"`
	CacheListings bool   `yaml:"cache_listings" json:"cache_listings"`
	CachePath     string `yaml:"cache_path" json:"cache_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Reddit: RedditConfig{
			BaseURL:   "https://www.reddit.com",
			UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             5,
		},
		Output: OutputConfig{
			BaseDirectory: "./downloads",
			CreateArchive: true,
		},
		Download: DownloadConfig{
			Timeout:  30 * time.Second,
			PageSize: 100,
		},
		Checkpoint: CheckpointConfig{
			CacheListings: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.Reddit.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.Reddit.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "COOKIE"); v != "" {
		c.Reddit.Cookie = v
	}

	if v := os.Getenv(EnvPrefix + "REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_MINUTE: %w", EnvPrefix, err))
		} else {
			c.RateLimit.RequestsPerMinute = n
		}
	}

	if v := os.Getenv(EnvPrefix + "OUTPUT_DIR"); v != "" {
		c.Output.BaseDirectory = v
	}
	if v := os.Getenv(EnvPrefix + "CREATE_ARCHIVE"); v != "" {
		c.Output.CreateArchive = strings.ToLower(v) == "true"
	}

	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.Download.Timeout = d
		}
	}

	if v := os.Getenv(EnvPrefix + "CHECKPOINT_PATH"); v != "" {
		c.Checkpoint.Path = v
	}
	if v := os.Getenv(EnvPrefix + "CACHE_LISTINGS"); v != "" {
		c.Checkpoint.CacheListings = strings.ToLower(v) == "true"
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".rdscraper.yaml",
		".rdscraper.yml",
		filepath.Join(home, ".config", "rdscraper", "config.yaml"),
		filepath.Join(home, ".config", "rdscraper", "config.yml"),
		filepath.Join(home, ".rdscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if u, err := url.Parse(c.Reddit.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid base URL %q", c.Reddit.BaseURL))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}
	if c.RateLimit.RequestsPerMinute > 0 && c.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("burst must be positive"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.PageSize <= 0 || c.Download.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 1 and 100"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Keys match the long flag names of the CLI.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["no-archive"].(bool); ok && v {
		c.Output.CreateArchive = false
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerMinute = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Download.Timeout = v
	}
	if v, ok := flags["checkpoint"].(string); ok && v != "" {
		c.Checkpoint.Path = v
	}
	if v, ok := flags["cache-listings"].(bool); ok && v {
		c.Checkpoint.CacheListings = true
	}
	if v, ok := flags["user-agent"].(string); ok && v != "" {
		c.Reddit.UserAgent = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".rdscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
