package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Manager handles loading and validating configuration from various sources.
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager with default configuration.
func NewManager() *Manager {
	return &Manager{config: defaultConfig()}
}

// Config returns the current configuration.
func (m *Manager) Config() *Config {
	return m.config
}

// LoadFromFile loads configuration from a YAML or JSON file.
// The file format is determined by the file extension (.yaml, .yml, or .json).
func (m *Manager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return m.LoadFromYAML(data)
	case ".json":
		return m.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data.
func (m *Manager) LoadFromYAML(data []byte) error {
	config := defaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := m.validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = config
	return nil
}

// LoadFromJSON loads configuration from JSON data.
func (m *Manager) LoadFromJSON(data []byte) error {
	config := defaultConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}

	if err := m.validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = config
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables follow the pattern: INCIDENTCORE_<SECTION>_<KEY>
// Examples:
//   - INCIDENTCORE_SERVER_PORT=8080
//   - INCIDENTCORE_DATABASE_HOST=localhost
//   - INCIDENTCORE_CACHE_TYPE=redis
//   - INCIDENTCORE_REPOSITORY_MAX_ATTEMPTS=10
func (m *Manager) LoadFromEnv() error {
	config := defaultConfig()

	// Server configuration
	if val := os.Getenv("INCIDENTCORE_SERVER_HOST"); val != "" {
		config.Server.Host = val
	}
	if val := os.Getenv("INCIDENTCORE_SERVER_PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil {
			config.Server.Port = port
		}
	}
	if val := os.Getenv("INCIDENTCORE_SERVER_RATE_LIMIT"); val != "" {
		var limit float64
		if _, err := fmt.Sscanf(val, "%f", &limit); err == nil {
			config.Server.RateLimit = limit
		}
	}

	// Database configuration
	if val := os.Getenv("INCIDENTCORE_DATABASE_HOST"); val != "" {
		config.Database.Host = val
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_PORT"); val != "" {
		var port int
		if _, err := fmt.Sscanf(val, "%d", &port); err == nil {
			config.Database.Port = port
		}
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_DATABASE"); val != "" {
		config.Database.Database = val
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_USERNAME"); val != "" {
		config.Database.Username = val
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_PASSWORD"); val != "" {
		config.Database.Password = val
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_MAX_OPEN_CONNS"); val != "" {
		var maxOpen int
		if _, err := fmt.Sscanf(val, "%d", &maxOpen); err == nil {
			config.Database.MaxOpenConns = maxOpen
		}
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_MAX_IDLE_CONNS"); val != "" {
		var maxIdle int
		if _, err := fmt.Sscanf(val, "%d", &maxIdle); err == nil {
			config.Database.MaxIdleConns = maxIdle
		}
	}
	if val := os.Getenv("INCIDENTCORE_DATABASE_CONNECTION_TIMEOUT"); val != "" {
		if timeout, err := time.ParseDuration(val); err == nil {
			config.Database.ConnectionTimeout = timeout
		}
	}

	// Repository configuration
	if val := os.Getenv("INCIDENTCORE_REPOSITORY_MAX_ATTEMPTS"); val != "" {
		var attempts int
		if _, err := fmt.Sscanf(val, "%d", &attempts); err == nil {
			config.Repository.MaxAttempts = attempts
		}
	}
	if val := os.Getenv("INCIDENTCORE_REPOSITORY_ID_LENGTH"); val != "" {
		var length int
		if _, err := fmt.Sscanf(val, "%d", &length); err == nil {
			config.Repository.IDLength = length
		}
	}

	// Cache configuration
	if val := os.Getenv("INCIDENTCORE_CACHE_ENABLED"); val != "" {
		config.Cache.Enabled = (val == "true" || val == "1")
	}
	if val := os.Getenv("INCIDENTCORE_CACHE_TYPE"); val != "" {
		config.Cache.Type = val
	}
	if val := os.Getenv("INCIDENTCORE_CACHE_TTL"); val != "" {
		if ttl, err := time.ParseDuration(val); err == nil {
			config.Cache.TTL = ttl
		}
	}
	if val := os.Getenv("INCIDENTCORE_CACHE_ENDPOINTS"); val != "" {
		config.Cache.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	if val := os.Getenv("INCIDENTCORE_CACHE_PASSWORD"); val != "" {
		config.Cache.RedisConfig.Password = val
	}

	// Events configuration
	if val := os.Getenv("INCIDENTCORE_EVENTS_TYPE"); val != "" {
		config.Events.Type = val
	}
	if val := os.Getenv("INCIDENTCORE_EVENTS_BROKERS"); val != "" {
		config.Events.KafkaConfig.Brokers = strings.Split(val, ",")
	}
	if val := os.Getenv("INCIDENTCORE_EVENTS_TOPIC"); val != "" {
		config.Events.KafkaConfig.Topic = val
	}

	// Failures configuration
	if val := os.Getenv("INCIDENTCORE_FAILURES_DIR"); val != "" {
		config.Failures.Dir = val
	}

	if err := m.validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m.config = config
	return nil
}

// validate validates the configuration and returns an error if invalid.
// Cache backend validation uses the Strategy registry keyed by cache type.
func (m *Manager) validate(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if config.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be greater than 0")
	}
	if config.Server.Burst <= 0 {
		return fmt.Errorf("server.burst must be greater than 0")
	}

	if config.Database.Type != "mysql" {
		return fmt.Errorf("database.type must be 'mysql'")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if config.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be greater than 0")
	}

	if config.Repository.MaxAttempts <= 0 {
		return fmt.Errorf("repository.max_attempts must be greater than 0")
	}
	if config.Repository.IDLength <= 0 {
		return fmt.Errorf("repository.id_length must be greater than 0")
	}

	if config.Cache.Enabled {
		if config.Cache.Type == "" {
			return fmt.Errorf("cache.type is required")
		}
		validator, exists := GetCacheValidator(config.Cache.Type)
		if !exists {
			return fmt.Errorf("unsupported cache type: %s", config.Cache.Type)
		}
		if err := validator.Validate(&config.Cache); err != nil {
			return fmt.Errorf("cache validation failed: %w", err)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be greater than 0")
		}
	}

	if config.Events.Type != "memory" && config.Events.Type != "kafka" {
		return fmt.Errorf("events.type must be 'memory' or 'kafka'")
	}
	if config.Events.Type == "kafka" {
		if len(config.Events.KafkaConfig.Brokers) == 0 {
			return fmt.Errorf("kafka_config.brokers is required when events.type is 'kafka'")
		}
		if config.Events.KafkaConfig.Topic == "" {
			return fmt.Errorf("kafka_config.topic is required when events.type is 'kafka'")
		}
	}
	if config.Events.Type == "memory" && config.Events.BufferSize <= 0 {
		return fmt.Errorf("events.buffer_size must be greater than 0")
	}

	return nil
}
