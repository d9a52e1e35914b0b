package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mcdev12/pizzeria/go/internal/kitchen"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration: defaults, then the optional YAML file
// named by CONFIG_FILE, then environment variables.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	Game     GameConfig     `yaml:"game"`
	NATS     NATSConfig     `yaml:"nats"`
	Database DatabaseConfig `yaml:"database"`
}

type ServerConfig struct {
	Port           string        `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

type GameConfig struct {
	TickInterval     time.Duration `yaml:"tick_interval"`
	CookingTimeout   time.Duration `yaml:"cooking_timeout"`
	CustomerPatience time.Duration `yaml:"customer_patience"`
	RevivalDelay     time.Duration `yaml:"revival_delay"`
	Penalty          int           `yaml:"penalty"`
	MaxCodeAttempts  int           `yaml:"max_code_attempts"`
}

// NATSConfig configures the room event feed. An empty URL disables it.
type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// DatabaseConfig holds Postgres connection settings for the results store.
// The store is disabled unless URL or Host is set.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	rules := kitchen.DefaultRules()
	return Config{
		LogLevel: "info",
		Server: ServerConfig{
			Port:           "3000",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			IdleTimeout:    120 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 8192,
		},
		Game: GameConfig{
			TickInterval:     rules.TickInterval,
			CookingTimeout:   rules.CookingTimeout,
			CustomerPatience: rules.CustomerPatience,
			RevivalDelay:     rules.RevivalDelay,
			Penalty:          rules.Penalty,
			MaxCodeAttempts:  rules.MaxCodeAttempts,
		},
		NATS: NATSConfig{
			SubjectPrefix: "kitchen.rooms",
		},
		Database: DatabaseConfig{
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Database: "pizzeria",
			SSLMode:  "disable",
		},
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	c.Game.TickInterval = getEnvAsDuration("TICK_INTERVAL", c.Game.TickInterval)
	c.Game.CookingTimeout = getEnvAsDuration("COOKING_TIMEOUT", c.Game.CookingTimeout)
	c.Game.CustomerPatience = getEnvAsDuration("CUSTOMER_PATIENCE", c.Game.CustomerPatience)
	c.Game.RevivalDelay = getEnvAsDuration("REVIVAL_DELAY", c.Game.RevivalDelay)
	c.Game.Penalty = getEnvAsInt("PENALTY", c.Game.Penalty)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.SSLMode = getEnv("DB_SSLMODE", c.Database.SSLMode)
}

// Validate rejects settings the hub cannot run with
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.Game.TickInterval)
	}
	if c.Game.CookingTimeout <= 0 || c.Game.CustomerPatience <= 0 {
		return fmt.Errorf("cooking timeout and customer patience must be positive")
	}
	if c.Game.RevivalDelay < 0 {
		return fmt.Errorf("revival delay must not be negative, got %s", c.Game.RevivalDelay)
	}
	if c.Game.MaxCodeAttempts < 1 {
		return fmt.Errorf("max code attempts must be at least 1, got %d", c.Game.MaxCodeAttempts)
	}
	return nil
}

// Rules converts the game settings for the hub
func (g GameConfig) Rules() kitchen.Rules {
	return kitchen.Rules{
		TickInterval:     g.TickInterval,
		CookingTimeout:   g.CookingTimeout,
		CustomerPatience: g.CustomerPatience,
		RevivalDelay:     g.RevivalDelay,
		Penalty:          g.Penalty,
		MaxCodeAttempts:  g.MaxCodeAttempts,
	}
}

// Enabled reports whether a results database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != ""
}

// DSN returns the Postgres connection URL
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Database, d.SSLMode,
	)
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
