package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config is the main structure mapping the entire application
// configuration. Keys map from YAML via mapstructure tags and can be
// overridden with environment variables (SERVER_PORT, REDIS_ADDR, ...).
type Config struct {
	// Server configuration for the HTTP listener
	Server struct {
		Port    int    `mapstructure:"port"`     // HTTP server port
		BaseURL string `mapstructure:"base_url"` // Base URL used when rendering short links
	} `mapstructure:"server"`

	// Database configuration for SQLite
	Database struct {
		Name string `mapstructure:"name"` // SQLite database file name
	} `mapstructure:"database"`

	// Redis is the shared counting backend for rate limiting and security
	// events. An empty address selects the in-process fallbacks.
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	// Analytics configuration for asynchronous click recording
	Analytics struct {
		BufferSize  int `mapstructure:"buffer_size"`  // Click event channel buffer
		WorkerCount int `mapstructure:"worker_count"` // Worker goroutines persisting clicks
	} `mapstructure:"analytics"`

	// Security configuration for the admission gate
	Security struct {
		SlowRequestSeconds int `mapstructure:"slow_request_seconds"` // Threshold for slow_request events
	} `mapstructure:"security"`

	// Monitor configuration for target-URL health checking
	Monitor struct {
		IntervalMinutes int `mapstructure:"interval_minutes"`
	} `mapstructure:"monitor"`
}

// LoadConfig loads the application configuration using Viper: defaults,
// then configs/config.yaml if present, then environment overrides.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.AddConfigPath("./configs")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.base_url", "http://localhost:8080")
	viper.SetDefault("database.name", "linkak.db")
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 1)
	viper.SetDefault("analytics.buffer_size", 1000)
	viper.SetDefault("analytics.worker_count", 5)
	viper.SetDefault("security.slow_request_seconds", 5)
	viper.SetDefault("monitor.interval_minutes", 5)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Not fatal; defaults and env vars cover everything.
			log.Println("Config file not found, using default values")
		} else {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	log.Printf("Configuration loaded: Server Port=%d, DB Name=%s, Redis=%q, Analytics Buffer=%d",
		cfg.Server.Port, cfg.Database.Name, cfg.Redis.Addr, cfg.Analytics.BufferSize)

	return &cfg, nil
}
