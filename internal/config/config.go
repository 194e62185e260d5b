package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the reminder engine.
type Config struct {
	TelegramToken   string  `yaml:"telegram_token"`
	DatabaseURL     string  `yaml:"database_url"`
	TickMinutes     int     `yaml:"tick_interval_minutes"`
	DigestWeekdayN  int     `yaml:"digest_weekday"`
	DigestHour      int     `yaml:"digest_hour"`
	Epsilon         float64 `yaml:"bandit_epsilon"`
	DispatchWorkers int     `yaml:"dispatch_workers"`
	DispatchSeconds int     `yaml:"dispatch_timeout_seconds"`
	CheckinBaseURL  string  `yaml:"checkin_base_url"`
}

// TickInterval is the reminder tick cadence.
func (c Config) TickInterval() time.Duration {
	return time.Duration(c.TickMinutes) * time.Minute
}

// DigestWeekday is the weekly digest day.
func (c Config) DigestWeekday() time.Weekday {
	return time.Weekday(c.DigestWeekdayN)
}

// DispatchTimeout bounds one outbound notification call.
func (c Config) DispatchTimeout() time.Duration {
	return time.Duration(c.DispatchSeconds) * time.Second
}

// Load builds configuration from an optional YAML file (REMINDERD_CONFIG)
// overridden by environment variables, with sane defaults.
func Load() (Config, error) {
	return LoadFrom(strings.TrimSpace(os.Getenv("REMINDERD_CONFIG")))
}

// LoadFrom is Load with an explicit config file path, for tests.
func LoadFrom(path string) (Config, error) {
	cfg := Config{
		TickMinutes:     15,
		DigestWeekdayN:  int(time.Sunday),
		DigestHour:      18,
		Epsilon:         0.1,
		DispatchWorkers: 4,
		DispatchSeconds: 8,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "habit_reminder.db"
	}
	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if cfg.TickMinutes <= 0 {
		return cfg, fmt.Errorf("tick interval %d must be positive", cfg.TickMinutes)
	}
	if cfg.Epsilon < 0 || cfg.Epsilon > 1 {
		return cfg, fmt.Errorf("bandit epsilon %v out of [0,1]", cfg.Epsilon)
	}
	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		return cfg, fmt.Errorf("digest hour %d out of [0,23]", cfg.DigestHour)
	}
	if cfg.DigestWeekdayN < 0 || cfg.DigestWeekdayN > 6 {
		return cfg, fmt.Errorf("digest weekday %d out of [0,6]", cfg.DigestWeekdayN)
	}
	if cfg.DispatchWorkers <= 0 || cfg.DispatchSeconds <= 0 {
		return cfg, fmt.Errorf("dispatch workers/timeout must be positive")
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")); v != "" {
		cfg.TelegramToken = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("CHECKIN_BASE_URL")); v != "" {
		cfg.CheckinBaseURL = v
	}
	setInt(&cfg.TickMinutes, "TICK_INTERVAL_MINUTES")
	setInt(&cfg.DigestWeekdayN, "DIGEST_WEEKDAY")
	setInt(&cfg.DigestHour, "DIGEST_HOUR")
	setInt(&cfg.DispatchWorkers, "DISPATCH_WORKERS")
	setInt(&cfg.DispatchSeconds, "DISPATCH_TIMEOUT_SECONDS")
	if v := strings.TrimSpace(os.Getenv("BANDIT_EPSILON")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Epsilon = f
		}
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
