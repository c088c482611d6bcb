// Package config loads the acquisition core's runtime configuration from
// YAML with environment-variable overrides, following the teacher's
// viper + gopkg.in/yaml.v3 configuration pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for thorlearn.
type Config struct {
	DataDir    string           `mapstructure:"data_dir" yaml:"data_dir"`
	Workers    int              `mapstructure:"workers" yaml:"workers"`
	Interval   int              `mapstructure:"interval_seconds" yaml:"interval_seconds"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler" yaml:"scheduler"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" yaml:"rate_limit"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Search     SearchConfig     `mapstructure:"search" yaml:"search"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle" yaml:"lifecycle"`
}

// SchedulerConfig controls the Topic Scheduler's mixed-source policy.
type SchedulerConfig struct {
	DictionaryPath  string  `mapstructure:"dictionary_path" yaml:"dictionary_path"`
	WeightDictionary float64 `mapstructure:"weight_dictionary" yaml:"weight_dictionary"`
	WeightUserQuery  float64 `mapstructure:"weight_user_query" yaml:"weight_user_query"`
	WeightTrending   float64 `mapstructure:"weight_trending" yaml:"weight_trending"`
	WeightDiscovered float64 `mapstructure:"weight_discovered" yaml:"weight_discovered"`
}

// RateLimitConfig sets per-source minimum request intervals, in
// milliseconds, for the politeness gate.
type RateLimitConfig struct {
	DefaultMinIntervalMs int            `mapstructure:"default_min_interval_ms" yaml:"default_min_interval_ms"`
	PerSourceMs          map[string]int `mapstructure:"per_source_ms" yaml:"per_source_ms"`
}

// LoggingConfig holds logging settings. The thorlearn CLI does not read
// these fields: it builds its logger from ~/.thorlearn/logs, console
// output, and the --verbose flag.
type LoggingConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Level   string `mapstructure:"level" yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

// SearchConfig holds retrieval sizing values. It carries no adapter
// credentials, and the retriever does not read these fields: it uses its
// own built-in K values and the normalizer its own minimum content length.
type SearchConfig struct {
	DefaultK           int `mapstructure:"default_k" yaml:"default_k"`
	ComparisonK        int `mapstructure:"comparison_k" yaml:"comparison_k"`
	MinContentChars    int `mapstructure:"min_content_chars" yaml:"min_content_chars"`
}

// LifecycleConfig controls worker-pool backoff and claim recovery.
type LifecycleConfig struct {
	MaxConsecutiveErrors  int `mapstructure:"max_consecutive_errors" yaml:"max_consecutive_errors"`
	StaleClaimMinutes     int `mapstructure:"stale_claim_minutes" yaml:"stale_claim_minutes"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// Default returns the built-in configuration used to seed a first-run file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".thorlearn")

	return &Config{
		DataDir:  dataDir,
		Workers:  4,
		Interval: 5,
		Scheduler: SchedulerConfig{
			DictionaryPath:   filepath.Join(dataDir, "dictionary.yaml"),
			WeightDictionary: 0.50,
			WeightUserQuery:  0.30,
			WeightTrending:   0.15,
			WeightDiscovered: 0.05,
		},
		RateLimit: RateLimitConfig{
			DefaultMinIntervalMs: 500,
			PerSourceMs:          map[string]int{},
		},
		Logging: LoggingConfig{
			Dir:     filepath.Join(dataDir, "logs"),
			Level:   "info",
			Console: true,
		},
		Search: SearchConfig{
			DefaultK:        6,
			ComparisonK:     8,
			MinContentChars: 40,
		},
		Lifecycle: LifecycleConfig{
			MaxConsecutiveErrors:   5,
			StaleClaimMinutes:      30,
			ShutdownTimeoutSeconds: 30,
		},
	}
}

// Load reads configuration from ~/.thorlearn/config.yaml, creating it with
// defaults on first run, and merges THOR_-prefixed environment overrides.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home directory: %w", err)
	}
	return LoadFromPath(filepath.Join(homeDir, ".thorlearn", "config.yaml"))
}

// LoadFromPath reads configuration from path, creating it with defaults if
// absent.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("THOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.Logging.Dir = expandPath(cfg.Logging.Dir)
	cfg.Scheduler.DictionaryPath = expandPath(cfg.Scheduler.DictionaryPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks range and enum constraints.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Interval < 1 {
		return fmt.Errorf("interval_seconds must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	weightSum := c.Scheduler.WeightDictionary + c.Scheduler.WeightUserQuery +
		c.Scheduler.WeightTrending + c.Scheduler.WeightDiscovered
	if weightSum <= 0 {
		return fmt.Errorf("scheduler weights must sum to a positive value")
	}

	if c.Lifecycle.MaxConsecutiveErrors < 1 {
		return fmt.Errorf("lifecycle.max_consecutive_errors must be at least 1")
	}

	return nil
}

// Save writes cfg back to its config file location.
func (c *Config) Save(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return writeConfigFile(path, c)
}

func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
