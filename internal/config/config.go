package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Importer ImporterConfig `mapstructure:"importer"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds catalog database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds Redis cache configuration.
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	RedisURL   string `mapstructure:"redis_url"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
}

// ImporterConfig holds dataset import configuration. The minimum-votes
// filter is applied by the importer, not by the query path.
type ImporterConfig struct {
	MinVotes int `mapstructure:"min_votes"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./data/filmpuan.db",
		},
		Cache: CacheConfig{
			Enabled:    true,
			RedisURL:   "redis://localhost:6379",
			TTLSeconds: 3600,
		},
		Importer: ImporterConfig{
			MinVotes: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a .env file, config file and environment
// variables. Priority: environment variables > config file > defaults.
func Load(configPath string) (*Config, error) {
	// Local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.filmpuan")
	}

	v.SetEnvPrefix("FILMPUAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults + env vars
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.path", "./data/filmpuan.db")

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.redis_url", "redis://localhost:6379")
	v.SetDefault("cache.ttl_seconds", 3600)

	v.SetDefault("importer.min_votes", 1000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// TTL returns the default cache TTL as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}
