package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"pos_tables_backend/pkg/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheBackendMemory   = "memory"
	CacheBackendRedis    = "redis"
	CacheBackendPostgres = "postgres"
)

// Config is the whole service configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Gateway GatewayConfig `yaml:"gateway"`
	Cache   CacheConfig   `yaml:"cache"`
	Session SessionConfig `yaml:"session"`
	Print   PrintConfig   `yaml:"print"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type GatewayConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	APISecret  string        `yaml:"api_secret"`
	Timeout    time.Duration `yaml:"timeout"`
	RetryCount int           `yaml:"retry_count"`
}

type CacheConfig struct {
	Backend  string         `yaml:"backend"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PostgresConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	Name       string `yaml:"name"`
	SSLMode    string `yaml:"sslmode"`
	SchemaPath string `yaml:"schema_path"`
}

type SessionConfig struct {
	Secret        string        `yaml:"secret"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type PrintConfig struct {
	AgentPort    string        `yaml:"agent_port"`
	AgentTimeout time.Duration `yaml:"agent_timeout"`
	MarkAttempts int           `yaml:"mark_attempts"`
	MarkBackoff  time.Duration `yaml:"mark_backoff"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		Log: LogConfig{Level: "info"},
		Gateway: GatewayConfig{
			BaseURL:    "http://localhost:8000",
			Timeout:    15 * time.Second,
			RetryCount: 2,
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    "5432",
				User:    "pos_user",
				Name:    "pos_cache_db",
				SSLMode: "disable",
			},
		},
		Session: SessionConfig{
			TTL:           12 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Print: PrintConfig{
			AgentPort:    "8182",
			AgentTimeout: 10 * time.Second,
			MarkAttempts: 3,
			MarkBackoff:  300 * time.Millisecond,
		},
	}
}

// Load reads an optional .env file, an optional YAML file (POS_CONFIG_PATH),
// then applies environment overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv("POS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = utils.Getenv("PORT", cfg.Server.Port)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	cfg.Log.Level = utils.Getenv("LOG_LEVEL", cfg.Log.Level)

	cfg.Gateway.BaseURL = utils.Getenv("GATEWAY_BASE_URL", cfg.Gateway.BaseURL)
	cfg.Gateway.APIKey = utils.Getenv("GATEWAY_API_KEY", cfg.Gateway.APIKey)
	cfg.Gateway.APISecret = utils.Getenv("GATEWAY_API_SECRET", cfg.Gateway.APISecret)
	cfg.Gateway.Timeout = utils.GetenvDuration("GATEWAY_TIMEOUT", cfg.Gateway.Timeout)
	cfg.Gateway.RetryCount = utils.GetenvInt("GATEWAY_RETRY_COUNT", cfg.Gateway.RetryCount)

	cfg.Cache.Backend = strings.ToLower(utils.Getenv("CACHE_BACKEND", cfg.Cache.Backend))
	cfg.Cache.Redis.Addr = utils.Getenv("REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = utils.Getenv("REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = utils.GetenvInt("REDIS_DB", cfg.Cache.Redis.DB)
	cfg.Cache.Postgres.Host = utils.Getenv("DB_HOST", cfg.Cache.Postgres.Host)
	cfg.Cache.Postgres.Port = utils.Getenv("DB_PORT", cfg.Cache.Postgres.Port)
	cfg.Cache.Postgres.User = utils.Getenv("DB_USER", cfg.Cache.Postgres.User)
	cfg.Cache.Postgres.Password = utils.Getenv("DB_PASSWORD", cfg.Cache.Postgres.Password)
	cfg.Cache.Postgres.Name = utils.Getenv("DB_NAME", cfg.Cache.Postgres.Name)
	cfg.Cache.Postgres.SSLMode = utils.Getenv("DB_SSLMODE", cfg.Cache.Postgres.SSLMode)
	cfg.Cache.Postgres.SchemaPath = utils.Getenv("DB_SCHEMA_PATH", cfg.Cache.Postgres.SchemaPath)

	cfg.Session.Secret = utils.Getenv("SESSION_SECRET", cfg.Session.Secret)
	cfg.Session.TTL = utils.GetenvDuration("SESSION_TTL", cfg.Session.TTL)
	cfg.Session.SweepInterval = utils.GetenvDuration("SESSION_SWEEP_INTERVAL", cfg.Session.SweepInterval)

	cfg.Print.AgentPort = utils.Getenv("PRINT_AGENT_PORT", cfg.Print.AgentPort)
	cfg.Print.AgentTimeout = utils.GetenvDuration("PRINT_AGENT_TIMEOUT", cfg.Print.AgentTimeout)
	cfg.Print.MarkAttempts = utils.GetenvInt("PRINT_MARK_ATTEMPTS", cfg.Print.MarkAttempts)
	cfg.Print.MarkBackoff = utils.GetenvDuration("PRINT_MARK_BACKOFF", cfg.Print.MarkBackoff)
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendPostgres:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("GATEWAY_BASE_URL is required")
	}
	return nil
}
