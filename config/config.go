package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"

	DatabaseDriverPostgres = "postgres"
	DatabaseDriverMemory   = "memory"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Booking  BookingConfig  `yaml:"booking"`
	Chat     ChatConfig     `yaml:"chat"`
	Session  SessionConfig  `yaml:"session"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address       string `yaml:"address"`
	RatePerMinute int    `yaml:"rate_per_minute"`
	RateBurst     int    `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	NightlyRate float64 `yaml:"nightly_rate"`
}

// ChatConfig selects the dialogue mode. DevMode picks the rule-based engine;
// otherwise the live completion engine is used and APIKey is mandatory.
type ChatConfig struct {
	DevMode                  bool    `yaml:"dev_mode"`
	APIKey                   string  `yaml:"api_key"`
	BaseURL                  string  `yaml:"base_url"`
	Model                    string  `yaml:"model"`
	Temperature              float32 `yaml:"temperature"`
	CompletionTimeoutSeconds int     `yaml:"completion_timeout_seconds"`
	HistoryLimit             int     `yaml:"history_limit"`
}

func (c ChatConfig) CompletionTimeout() time.Duration {
	return time.Duration(c.CompletionTimeoutSeconds) * time.Second
}

type SessionConfig struct {
	Backend              string `yaml:"backend"`
	TTLMinutes           int    `yaml:"ttl_minutes"`
	SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
}

func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLMinutes) * time.Minute
}

func (s SessionConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalMinutes) * time.Minute
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used for any field the YAML file leaves unset.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Address:       ":8080",
			RatePerMinute: 120,
			RateBurst:     20,
		},
		Database: DatabaseConfig{
			Driver:  DatabaseDriverPostgres,
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Booking: BookingConfig{
			NightlyRate: 120.0,
		},
		Chat: ChatConfig{
			DevMode:                  true,
			Model:                    "gpt-4o-mini",
			Temperature:              0.3,
			CompletionTimeoutSeconds: 30,
			HistoryLimit:             40,
		},
		Session: SessionConfig{
			Backend:              SessionBackendMemory,
			TTLMinutes:           120,
			SweepIntervalMinutes: 10,
		},
		Log: LogConfig{Level: "info"},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv lets DEV_MODE and OPENAI_API_KEY override the file, so the
// credential never has to be written to disk.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("DEV_MODE"); ok && v != "" {
		devMode, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("failed to parse DEV_MODE: %w", err)
		}
		c.Chat.DevMode = devMode
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Chat.APIKey = v
	}
	return nil
}

func (c *Config) Validate() error {
	if !c.Chat.DevMode && strings.TrimSpace(c.Chat.APIKey) == "" {
		return errors.New("OPENAI_API_KEY not set in environment")
	}
	if c.Booking.NightlyRate <= 0 {
		return errors.New("booking.nightly_rate must be positive")
	}
	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	default:
		return fmt.Errorf("unknown session backend %q", c.Session.Backend)
	}
	switch c.Database.Driver {
	case DatabaseDriverPostgres, DatabaseDriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	return nil
}
