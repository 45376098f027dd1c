// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// UpstreamConfig governs outbound fetches against the preview host.
type UpstreamConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	UserAgent             string `mapstructure:"user_agent"`
	AcceptLanguage        string `mapstructure:"accept_language"`
	ChannelTimeoutSeconds int    `mapstructure:"channel_timeout_seconds"`
	EmbedTimeoutSeconds   int    `mapstructure:"embed_timeout_seconds"`
}

// FeedConfig bounds the returned page of posts.
type FeedConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// ResolverConfig governs the embed-page video resolution fan-out.
type ResolverConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TGPARSE")
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
	v.SetDefault("server.port", 3000)
	v.SetDefault("upstream.base_url", "https://t.me")
	v.SetDefault("upstream.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122 Safari/537.36")
	v.SetDefault("upstream.accept_language", "en-US,en;q=0.9,ru;q=0.8")
	v.SetDefault("upstream.channel_timeout_seconds", 20)
	v.SetDefault("upstream.embed_timeout_seconds", 12)
	v.SetDefault("feed.default_limit", 20)
	v.SetDefault("feed.max_limit", 100)
	v.SetDefault("resolver.concurrency", 4)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url must be set")
	}
	if c.Upstream.ChannelTimeoutSeconds <= 0 || c.Upstream.EmbedTimeoutSeconds <= 0 {
		return fmt.Errorf("upstream timeouts must be > 0")
	}
	if c.Feed.MaxLimit <= 0 {
		return fmt.Errorf("feed.max_limit must be > 0")
	}
	if c.Feed.DefaultLimit <= 0 || c.Feed.DefaultLimit > c.Feed.MaxLimit {
		return fmt.Errorf("feed.default_limit must be in [1, feed.max_limit]")
	}
	if c.Resolver.Concurrency <= 0 {
		return fmt.Errorf("resolver.concurrency must be > 0")
	}
	return nil
}

// ChannelTimeout returns the preview-page fetch timeout as a duration.
func (c Config) ChannelTimeout() time.Duration {
	return time.Duration(c.Upstream.ChannelTimeoutSeconds) * time.Second
}

// EmbedTimeout returns the embed-page fetch timeout as a duration.
func (c Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Upstream.EmbedTimeoutSeconds) * time.Second
}
