// Package config handles configuration loading and management for agentdesk.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectFile is the per-project override file searched upward from the cwd.
const ProjectFile = ".agentdesk.yaml"

// EnvPrefix prefixes environment overrides, e.g. AGENTDESK_SERVER_ADDR.
const EnvPrefix = "AGENTDESK"

// ErrUnknownKey is returned for a dotted key outside the config schema.
var ErrUnknownKey = errors.New("unknown config key")

// Config holds all configuration for agentdesk.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Workflows    WorkflowsConfig    `mapstructure:"workflows"`
	Coordination CoordinationConfig `mapstructure:"coordination"`
	Events       EventsConfig       `mapstructure:"events"`
	Anthropic    AnthropicConfig    `mapstructure:"anthropic"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig locates the coordination store.
type DatabaseConfig struct {
	// Path is the SQLite file. Empty means $XDG_DATA_HOME/agentdesk/agentdesk.db.
	Path string `mapstructure:"path"`
}

// WorkflowsConfig points at extra workflow template files.
type WorkflowsConfig struct {
	// Dir holds *.yaml templates merged over the built-ins. Empty disables it.
	Dir string `mapstructure:"dir"`
}

// CoordinationConfig holds task deadline settings.
type CoordinationConfig struct {
	// TaskTimeout is the deadline given to records entering in_progress. Zero disables it.
	TaskTimeout time.Duration `mapstructure:"task_timeout"`
	// SweepInterval is how often overdue records are failed. Zero disables the sweeper.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// EventsConfig holds NATS publishing settings.
type EventsConfig struct {
	// NATSURL enables event publishing when set.
	NATSURL       string `mapstructure:"nats_url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	MaxTokens  int64  `mapstructure:"max_tokens"`
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// defaults is the single source of every key and its default value.
var defaults = map[string]any{
	"server.addr":                 ":8080",
	"server.read_timeout":         "15s",
	"server.write_timeout":        "30s",
	"server.shutdown_timeout":     "10s",
	"database.path":               "",
	"workflows.dir":               "",
	"coordination.task_timeout":   "0s",
	"coordination.sweep_interval": "1m",
	"events.nats_url":             "",
	"events.subject_prefix":       "agentdesk.coordination",
	"anthropic.api_key":           "",
	"anthropic.model":             "claude-sonnet-4-20250514",
	"anthropic.max_tokens":        4096,
	"anthropic.use_bedrock":       false,
	"anthropic.aws_region":        "",
	"anthropic.aws_profile":       "",
	"log.level":                   "info",
	"log.format":                  "text",
}

// Keys returns every config key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// IsKey reports whether key is part of the schema.
func IsKey(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (AGENTDESK_SECTION_KEY, ANTHROPIC_API_KEY)
// 2. Project config (.agentdesk.yaml in current directory or parent)
// 3. User config (~/.config/agentdesk/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v, err := load()
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Settings returns the merged value of every key, for display.
func Settings() (map[string]any, error) {
	v, err := load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(defaults))
	for k := range defaults {
		out[k] = v.Get(k)
	}
	return out, nil
}

func load() (*viper.Viper, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}
	return v, nil
}

// LoadFromPath loads configuration from a specific file plus defaults and env.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return decode(v)
}

// newViper returns a viper with defaults and environment bindings.
func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("anthropic.api_key", EnvPrefix+"_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", c.Log.Format)
	}
	if c.Coordination.TaskTimeout < 0 || c.Coordination.SweepInterval < 0 {
		return errors.New("coordination: durations must not be negative")
	}
	if c.Anthropic.MaxTokens <= 0 {
		return fmt.Errorf("anthropic.max_tokens: must be positive, got %d", c.Anthropic.MaxTokens)
	}
	return nil
}

// Save writes every key of cfg to the user config file.
func Save(cfg *Config) error {
	v := viper.New()
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.read_timeout", cfg.Server.ReadTimeout.String())
	v.Set("server.write_timeout", cfg.Server.WriteTimeout.String())
	v.Set("server.shutdown_timeout", cfg.Server.ShutdownTimeout.String())
	v.Set("database.path", cfg.Database.Path)
	v.Set("workflows.dir", cfg.Workflows.Dir)
	v.Set("coordination.task_timeout", cfg.Coordination.TaskTimeout.String())
	v.Set("coordination.sweep_interval", cfg.Coordination.SweepInterval.String())
	v.Set("events.nats_url", cfg.Events.NATSURL)
	v.Set("events.subject_prefix", cfg.Events.SubjectPrefix)
	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.model", cfg.Anthropic.Model)
	v.Set("anthropic.max_tokens", cfg.Anthropic.MaxTokens)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)
	return write(v)
}

// Set updates one key in the user config file, keeping the others.
func Set(key, value string) error {
	if !IsKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if key == "anthropic.api_key" && !strings.HasPrefix(value, "${") {
		if err := ValidateAPIKey(value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}

	v := viper.New()
	v.SetConfigFile(GetUserConfigPath())
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading user config: %w", err)
		}
	}
	v.Set(key, value)

	// Reject values that would make the next Load fail.
	check := newViper()
	if err := check.MergeConfigMap(v.AllSettings()); err != nil {
		return err
	}
	if _, err := decode(check); err != nil {
		return fmt.Errorf("%s=%q: %w", key, value, err)
	}
	return write(v)
}

func write(v *viper.Viper) error {
	dir := getUserConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return v.WriteConfigAs(GetUserConfigPath())
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// getUserConfigDir returns the XDG config directory for agentdesk.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentdesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentdesk")
	}
	return filepath.Join(home, ".config", "agentdesk")
}

// findProjectConfig searches for .agentdesk.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		configPath := filepath.Join(cwd, ProjectFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return ""
		}
		cwd = parent
	}
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Coordination: CoordinationConfig{
			SweepInterval: time.Minute,
		},
		Events: EventsConfig{
			SubjectPrefix: "agentdesk.coordination",
		},
		Anthropic: AnthropicConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
