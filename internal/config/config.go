// Package config loads and validates curio configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	Queue     QueueConfig     `mapstructure:"queue"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Synthesis SynthesisConfig `mapstructure:"synthesis"`
	Forum     ForumConfig     `mapstructure:"forum"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Backfill  BackfillConfig  `mapstructure:"backfill"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port            int `mapstructure:"port"`
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	ImportDelayMs   int `mapstructure:"import_delay_ms"`
	ShutdownSeconds int `mapstructure:"shutdown_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// DBConfig controls access to the recommendation database.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	LifetimeMinutes int    `mapstructure:"lifetime_minutes"`
}

// QueueConfig sizes the in-process submission queue.
type QueueConfig struct {
	Depth int `mapstructure:"depth"`
}

// PubSubConfig enables the Pub/Sub submission source.
type PubSubConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	ProjectID    string `mapstructure:"project_id"`
	Subscription string `mapstructure:"subscription"`
}

// FetchConfig governs the probe fetcher.
type FetchConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// HeadlessConfig configures the headless fallback fetcher.
type HeadlessConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	NavTimeoutSec int  `mapstructure:"nav_timeout_seconds"`
}

// SynthesisConfig points at the hosted completion service.
type SynthesisConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	APIKey         string `mapstructure:"api_key"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ForumConfig points at the destination forum.
type ForumConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	Username string `mapstructure:"username"`
}

// ChatConfig authenticates the channel history client.
type ChatConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	BotToken string `mapstructure:"bot_token"`
}

// ArchiveConfig selects raw-content archival. An empty bucket keeps
// archival in memory.
type ArchiveConfig struct {
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// PipelineConfig bounds retry behavior and source links.
type PipelineConfig struct {
	MaxAttempts    int    `mapstructure:"max_attempts"`
	SourceLinkBase string `mapstructure:"source_link_base"`
}

// BackfillConfig drives the reconciliation sweep.
type BackfillConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	ChannelID     string  `mapstructure:"channel_id"`
	BotUserID     string  `mapstructure:"bot_user_id"`
	BatchSize     int     `mapstructure:"batch_size"`
	MaxMessages   int     `mapstructure:"max_messages"`
	RatePerSecond float64 `mapstructure:"rate_per_second"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CURIO")
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.timeout_seconds", 60)
	v.SetDefault("server.import_delay_ms", 1000)
	v.SetDefault("server.shutdown_seconds", 15)
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("db.lifetime_minutes", 30)
	v.SetDefault("queue.depth", 64)
	v.SetDefault("fetch.user_agent", "curio-bot/0.1")
	v.SetDefault("fetch.timeout_seconds", 20)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.nav_timeout_seconds", 25)
	v.SetDefault("synthesis.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("synthesis.model", "gpt-4o-mini")
	v.SetDefault("synthesis.timeout_seconds", 60)
	v.SetDefault("pipeline.max_attempts", 3)
	v.SetDefault("backfill.batch_size", 100)
	v.SetDefault("backfill.max_messages", 1000)
	v.SetDefault("backfill.rate_per_second", 1)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Queue.Depth <= 0 {
		return fmt.Errorf("queue.depth must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Synthesis.Endpoint == "" {
		return fmt.Errorf("synthesis.endpoint must be set")
	}
	if c.Synthesis.Model == "" {
		return fmt.Errorf("synthesis.model must be set")
	}
	if c.Pipeline.MaxAttempts <= 0 {
		return fmt.Errorf("pipeline.max_attempts must be > 0")
	}
	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.Subscription == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.subscription must be set when pubsub is enabled")
	}
	if c.Backfill.Enabled && c.Backfill.ChannelID == "" {
		return fmt.Errorf("backfill.channel_id must be set when backfill is enabled")
	}
	return nil
}

// RequestTimeout converts the server timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// ImportDelay converts the import pacing knob into a duration.
func (c Config) ImportDelay() time.Duration {
	return time.Duration(c.Server.ImportDelayMs) * time.Millisecond
}
