// Package config loads server settings from an optional YAML file
// with environment variable overrides. Env always wins.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               int    `yaml:"port"`
	DatabaseURL        string `yaml:"database_url"`
	RedisURL           string `yaml:"redis_url"`
	AMQPURL            string `yaml:"amqp_url"`
	SQLitePath         string `yaml:"sqlite_path"`
	AuthMode           string `yaml:"auth_mode"`
	AuthSecret         string `yaml:"auth_secret"`
	AllowOrigins       string `yaml:"allow_origins"`
	RateRPS            int    `yaml:"rate_rps"`
	RateBurst          int    `yaml:"rate_burst"`
	WebhookMaxAttempts int    `yaml:"webhook_max_attempts"`
	SimTickMS          int    `yaml:"sim_tick_ms"`
	AnalyticsTickMS    int    `yaml:"analytics_tick_ms"`
}

func defaults() Config {
	return Config{
		Port:               8080,
		AuthMode:           "dev",
		AllowOrigins:       "*",
		RateRPS:            50,
		RateBurst:          100,
		WebhookMaxAttempts: 5,
		SimTickMS:          3000,
		AnalyticsTickMS:    5000,
	}
}

// Load builds the effective config: defaults, then the YAML file named
// by CONFIG_FILE (if any), then environment overrides.
func Load() Config {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Printf("config: read %s: %v", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: parse %s: %v", path, err)
		}
	}
	overrideStr(&cfg.DatabaseURL, "DATABASE_URL")
	overrideStr(&cfg.RedisURL, "REDIS_URL")
	overrideStr(&cfg.AMQPURL, "AMQP_URL")
	overrideStr(&cfg.SQLitePath, "SQLITE_PATH")
	overrideStr(&cfg.AuthMode, "AUTH_MODE")
	overrideStr(&cfg.AuthSecret, "AUTH_SECRET")
	overrideStr(&cfg.AllowOrigins, "ALLOW_ORIGINS")
	overrideInt(&cfg.Port, "PORT")
	overrideInt(&cfg.RateRPS, "RATE_RPS")
	overrideInt(&cfg.RateBurst, "RATE_BURST")
	overrideInt(&cfg.WebhookMaxAttempts, "WEBHOOK_MAX_ATTEMPTS")
	overrideInt(&cfg.SimTickMS, "SIM_TICK_MS")
	overrideInt(&cfg.AnalyticsTickMS, "ANALYTICS_TICK_MS")
	return cfg
}

func overrideStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" { *dst = v }
}

func overrideInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" { return }
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("config: %s=%q is not a number, keeping %d", key, v, *dst)
		return
	}
	*dst = n
}

func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c Config) SimTick() time.Duration {
	if c.SimTickMS <= 0 { return 3 * time.Second }
	return time.Duration(c.SimTickMS) * time.Millisecond
}

func (c Config) AnalyticsTick() time.Duration {
	if c.AnalyticsTickMS <= 0 { return 5 * time.Second }
	return time.Duration(c.AnalyticsTickMS) * time.Millisecond
}
