// Package config loads the runner's configuration: required connection
// inputs from the environment, optional tuning from a TOML file.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config is everything cmd/shard needs to assemble a running process. The
// core gateway.Shard never reads any of this itself; it is all passed in at
// construction.
type Config struct {
	// Required.
	Token       string
	ShardNumber int
	ShardTotal  int
	Intents     uint64

	// Optional integrations; empty means disabled.
	DatabaseURL string
	RedisAddr   string
	AMQPURL     string
	WebhookURL  string
	MetricsAddr string

	// SessionPath is where the file-backed session store keeps its state
	// when neither Postgres nor Redis is configured.
	SessionPath string

	Tuning Tuning
}

// Load reads the environment and, if TUNING_PATH points at a file, merges
// the TOML tuning layer on top of the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Token:       os.Getenv("DISCORD_TOKEN"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		WebhookURL:  os.Getenv("DISCORD_WEBHOOK_URL"),
		MetricsAddr: getEnvOrDefault("METRICS_ADDR", ""),
		SessionPath: getEnvOrDefault("SESSION_PATH", "session.json"),
		ShardTotal:  1,
		Tuning:      DefaultTuning(),
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("config: DISCORD_TOKEN is required")
	}

	var err error
	if cfg.ShardNumber, err = getEnvInt("SHARD_NUMBER", 0); err != nil {
		return nil, err
	}
	if cfg.ShardTotal, err = getEnvInt("SHARD_TOTAL", 1); err != nil {
		return nil, err
	}
	if cfg.ShardTotal < 1 {
		return nil, fmt.Errorf("config: SHARD_TOTAL must be at least 1, got %d", cfg.ShardTotal)
	}
	if cfg.ShardNumber < 0 || cfg.ShardNumber >= cfg.ShardTotal {
		return nil, fmt.Errorf("config: SHARD_NUMBER %d is out of range for SHARD_TOTAL %d", cfg.ShardNumber, cfg.ShardTotal)
	}

	intents, err := getEnvUint("GATEWAY_INTENTS", 0)
	if err != nil {
		return nil, err
	}
	cfg.Intents = intents

	if path := os.Getenv("TUNING_PATH"); path != "" {
		tuning, err := LoadTuning(path)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = tuning
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
