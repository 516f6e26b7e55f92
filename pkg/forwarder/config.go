// Copyright 2024-2026 Aiku AI

package forwarder

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed example-config.yaml
var ExampleConfig string

// TwitterConfig holds the stream source credentials and endpoint.
type TwitterConfig struct {
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	AccessToken    string `yaml:"access_token"`
	AccessSecret   string `yaml:"access_secret"`
	// StreamURL overrides the statuses/filter endpoint. Empty means the
	// production endpoint.
	StreamURL string `yaml:"stream_url"`
}

// DiscordConfig maps channel IDs to webhook URLs for delivery.
type DiscordConfig struct {
	Webhooks map[string]string `yaml:"webhooks"`
}

// Config is the daemon configuration.
type Config struct {
	Twitter TwitterConfig `yaml:"twitter"`
	Discord DiscordConfig `yaml:"discord"`

	// SubscriptionsPath is the YAML subscription file.
	SubscriptionsPath string `yaml:"subscriptions_path"`

	// PingHashtag triggers a broadcast-attention message, matched
	// case-insensitively. Defaults to "qtweet".
	PingHashtag string `yaml:"ping_hashtag"`

	// Reconnection tuning, all in milliseconds.
	ReconnectMinMS    int `yaml:"reconnect_min_ms"`
	ReconnectMaxMS    int `yaml:"reconnect_max_ms"`
	RateLimitWaitMS   int `yaml:"rate_limit_wait_ms"`
	WatchdogTimeoutMS int `yaml:"watchdog_timeout_ms"`

	// UnfurlPreviews enables link preview enrichment for text posts.
	UnfurlPreviews bool `yaml:"unfurl_previews"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig Config
	return node.Decode((*rawConfig)(c))
}

// PostProcess fills defaults and validates the required fields.
func (c *Config) PostProcess() error {
	if c.SubscriptionsPath == "" {
		c.SubscriptionsPath = "subscriptions.yaml"
	}
	if c.PingHashtag == "" {
		c.PingHashtag = "qtweet"
	}
	if c.ReconnectMinMS <= 0 {
		c.ReconnectMinMS = 2000
	}
	if c.ReconnectMaxMS <= 0 {
		c.ReconnectMaxMS = 16000
	}
	if c.ReconnectMaxMS < c.ReconnectMinMS {
		return fmt.Errorf("reconnect_max_ms (%d) below reconnect_min_ms (%d)", c.ReconnectMaxMS, c.ReconnectMinMS)
	}
	if c.RateLimitWaitMS <= 0 {
		c.RateLimitWaitMS = 30000
	}
	if c.WatchdogTimeoutMS < 0 {
		return fmt.Errorf("watchdog_timeout_ms must not be negative")
	}
	if c.WatchdogTimeoutMS == 0 {
		c.WatchdogTimeoutMS = int((10 * time.Minute).Milliseconds())
	}
	return nil
}

// ReconnectMin returns the minimum reconnect delay.
func (c *Config) ReconnectMin() time.Duration {
	return time.Duration(c.ReconnectMinMS) * time.Millisecond
}

// ReconnectMax returns the maximum reconnect delay.
func (c *Config) ReconnectMax() time.Duration {
	return time.Duration(c.ReconnectMaxMS) * time.Millisecond
}

// RateLimitWait returns the fixed cooldown applied on rate-limit errors.
func (c *Config) RateLimitWait() time.Duration {
	return time.Duration(c.RateLimitWaitMS) * time.Millisecond
}

// WatchdogTimeout returns the silence deadline that forces a reconnect.
func (c *Config) WatchdogTimeout() time.Duration {
	return time.Duration(c.WatchdogTimeoutMS) * time.Millisecond
}

// LoadConfig reads and validates the config file at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.PostProcess(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
