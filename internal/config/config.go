package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	Redis struct {
		Host string
		Port int
		DB   int
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	HTTP struct {
		Port int
	}
	WebSocket struct {
		Port int
	}
	Routing struct {
		BaseURL        string // OSRM-compatible endpoint
		GeocodeURL     string // Nominatim-compatible endpoint
		TimeoutSeconds int
	}
	JWT struct {
		SecretKey string `yaml:"secret_key"`
	}
}

// LoadFromFile loads config from a YAML file to a Config struct, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// Redis
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// HTTP + WebSocket
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.WebSocket.Port == 0 {
		cfg.WebSocket.Port = 8080
	}

	// Routing
	if cfg.Routing.BaseURL == "" {
		cfg.Routing.BaseURL = "http://localhost:5000"
	}
	if cfg.Routing.GeocodeURL == "" {
		cfg.Routing.GeocodeURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.Routing.TimeoutSeconds == 0 {
		cfg.Routing.TimeoutSeconds = 5
	}

	if cfg.JWT.SecretKey == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			// fallback: time-based bytes
			key = []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
		}
		cfg.JWT.SecretKey = base64.StdEncoding.EncodeToString(key)
	}
}

// validate checks required fields and basic ranges.
func (c *Config) validate() error {
	var problems []string

	// DB
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		problems = append(problems, "database.port must be in 1..65535")
	}
	if c.Database.User == "" {
		problems = append(problems, "database.user is required")
	}
	if c.Database.Password == "" {
		problems = append(problems, "database.password is required")
	}
	if c.Database.Name == "" {
		problems = append(problems, "database.name is required")
	}

	// Redis
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		problems = append(problems, "redis.port must be in 1..65535")
	}
	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		problems = append(problems, "redis.db must be in 0..15")
	}

	// RabbitMQ
	if c.RabbitMQ.Port <= 0 || c.RabbitMQ.Port > 65535 {
		problems = append(problems, "rabbitmq.port must be in 1..65535")
	}
	if c.RabbitMQ.User == "" {
		problems = append(problems, "rabbitmq.user is required")
	}
	if c.RabbitMQ.Password == "" {
		problems = append(problems, "rabbitmq.password is required")
	}

	// HTTP + WebSocket
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, "http.port must be in 1..65535")
	}
	if c.WebSocket.Port <= 0 || c.WebSocket.Port > 65535 {
		problems = append(problems, "websocket.port must be in 1..65535")
	}

	// Routing
	if !strings.HasPrefix(c.Routing.BaseURL, "http://") && !strings.HasPrefix(c.Routing.BaseURL, "https://") {
		problems = append(problems, "routing.base_url must be an http(s) URL")
	}
	if !strings.HasPrefix(c.Routing.GeocodeURL, "http://") && !strings.HasPrefix(c.Routing.GeocodeURL, "https://") {
		problems = append(problems, "routing.geocode_url must be an http(s) URL")
	}
	if c.Routing.TimeoutSeconds <= 0 {
		problems = append(problems, "routing.timeout_seconds must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// RoutingTimeout returns the routing client timeout as a duration.
func (c *Config) RoutingTimeout() time.Duration {
	return time.Duration(c.Routing.TimeoutSeconds) * time.Second
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
