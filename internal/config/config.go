package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Redis    RedisConfig    `yaml:"redis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Recipes  RecipesConfig  `yaml:"recipes"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	MaxConns int32  `yaml:"max_conns"`
}

type RabbitMQConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type StoreConfig struct {
	Backend     string        `yaml:"backend"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type MetricsConfig struct {
	KitchenTarget  time.Duration `yaml:"kitchen_target"`
	KitchenCeiling time.Duration `yaml:"kitchen_ceiling"`
}

type RecipesConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default is the configuration used for anything the file leaves out.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "orderboard", Database: "orderboard", MaxConns: 10},
		RabbitMQ: RabbitMQConfig{Host: "localhost", Port: 5672, User: "guest", Password: "guest"},
		HTTP:     HTTPConfig{Port: 3000, ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second, IdleTimeout: 60 * time.Second},
		Store:    StoreConfig{Backend: BackendMemory, Timeout: 5 * time.Second, MaxAttempts: 5},
		Metrics:  MetricsConfig{KitchenTarget: 15 * time.Minute, KitchenCeiling: 180 * time.Minute},
		Recipes:  RecipesConfig{Timeout: 2 * time.Second, CacheTTL: 5 * time.Minute},
		Log:      LogConfig{Level: "info"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("invalid store backend %q", c.Store.Backend)
	}
	if c.Store.MaxAttempts < 1 {
		return fmt.Errorf("store.max_attempts must be at least 1")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store.timeout must be positive")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"ORDERBOARD_DB_HOST":       &cfg.Database.Host,
		"ORDERBOARD_DB_USER":       &cfg.Database.User,
		"ORDERBOARD_DB_PASSWORD":   &cfg.Database.Password,
		"ORDERBOARD_DB_NAME":       &cfg.Database.Database,
		"ORDERBOARD_RABBITMQ_HOST": &cfg.RabbitMQ.Host,
		"ORDERBOARD_REDIS_ADDR":    &cfg.Redis.Addr,
		"ORDERBOARD_RECIPES_URL":   &cfg.Recipes.BaseURL,
		"ORDERBOARD_STORE":         &cfg.Store.Backend,
		"ORDERBOARD_LOG_LEVEL":     &cfg.Log.Level,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv("ORDERBOARD_DB_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ORDERBOARD_DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}
	if v, ok := os.LookupEnv("ORDERBOARD_RABBITMQ_ENABLED"); ok {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ORDERBOARD_RABBITMQ_ENABLED: %w", err)
		}
		cfg.RabbitMQ.Enabled = enabled
	}
	return nil
}
