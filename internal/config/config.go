// Package config loads service configuration from defaults and
// QOTD_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "QOTD_"

// Config holds all configuration for both binaries.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	API      APIConfig      `koanf:"api"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Webhook  WebhookConfig  `koanf:"webhook"`
	Notify   NotifyConfig   `koanf:"notify"`
}

type ServerConfig struct {
	Port string `koanf:"port"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

// APIConfig carries the optional write-side API key. Empty means the
// deployment does not require one.
type APIConfig struct {
	Key string `koanf:"key"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Sender   string `koanf:"sender"`
}

// WebhookConfig locates the chat webhook's secret URL: either inline
// (URL) or in a secret file read at run time (File). File wins.
type WebhookConfig struct {
	URL  string `koanf:"url"`
	File string `koanf:"file"`
}

type NotifyConfig struct {
	Subject   string `koanf:"subject"`
	Workers   int    `koanf:"workers"`
	RateLimit int    `koanf:"ratelimit"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"server.port":      "8080",
		"database.url":     "",
		"redis.url":        "",
		"api.key":          "",
		"smtp.host":        "localhost",
		"smtp.port":        25,
		"smtp.username":    "",
		"smtp.password":    "",
		"smtp.sender":      "quotes@localhost",
		"webhook.url":      "",
		"webhook.file":     "",
		"notify.subject":   "Your Daily Motivation!",
		"notify.workers":   4,
		"notify.ratelimit": 10,
	}
}

// Load reads configuration: defaults first, then QOTD_* environment
// variables (QOTD_DATABASE_URL -> database.url).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"_",
			".",
		)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("QOTD_DATABASE_URL is required")
	}

	return &cfg, nil
}
