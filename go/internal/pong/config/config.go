package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/pong/go/internal/pong/game"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration shared by the relay and the client
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Game     game.Field     `yaml:"game"`
	Client   ClientConfig   `yaml:"client"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Store is "memory" or "postgres"
	Store string `yaml:"store"`
}

type ClientConfig struct {
	RelayURL   string `yaml:"relay_url"`
	UpdateRate int    `yaml:"update_rate"`
	TickRate   int    `yaml:"tick_rate"`
	// Codec is "json" (text frames) or "msgpack" (binary frames)
	Codec string `yaml:"codec"`
}

type NATSConfig struct {
	Enabled       bool          `yaml:"enabled"`
	URL           string        `yaml:"url"`
	SubjectPrefix string        `yaml:"subject_prefix"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the Postgres connection URL
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
	// File enables a rotating log file when set
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "8081",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 10 * time.Second,
			Store:           "memory",
		},
		Game: game.DefaultField(),
		Client: ClientConfig{
			RelayURL:   "http://localhost:8081",
			UpdateRate: 60,
			TickRate:   60,
			Codec:      "json",
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			SubjectPrefix: "pong.sessions",
			ReconnectWait: 2 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "pong",
			SSLMode:  "disable",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Console:    true,
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the relay or client cannot run with
func (c *Config) Validate() error {
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("invalid game section: %w", err)
	}
	if c.Client.UpdateRate <= 0 || c.Client.TickRate <= 0 {
		return fmt.Errorf("%w: update_rate %d, tick_rate %d", ErrInvalidRate, c.Client.UpdateRate, c.Client.TickRate)
	}
	switch c.Client.Codec {
	case "json", "msgpack":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCodec, c.Client.Codec)
	}
	switch c.Server.Store {
	case "memory", "postgres":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStore, c.Server.Store)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PONG_PORT", c.Server.Port)
	c.Server.Store = getEnv("PONG_STORE", c.Server.Store)
	if origins := os.Getenv("PONG_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Client.RelayURL = getEnv("PONG_RELAY_URL", c.Client.RelayURL)
	c.Client.UpdateRate = getEnvAsInt("PONG_UPDATE_RATE", c.Client.UpdateRate)
	c.Client.TickRate = getEnvAsInt("PONG_TICK_RATE", c.Client.TickRate)
	c.Client.Codec = getEnv("PONG_CODEC", c.Client.Codec)

	if url := os.Getenv("NATS_URL"); url != "" {
		c.NATS.URL = url
		c.NATS.Enabled = true
	}

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)

	c.Logging.Level = getEnv("PONG_LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("PONG_LOG_FILE", c.Logging.File)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
