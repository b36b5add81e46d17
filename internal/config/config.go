// Package config holds the process-wide configuration: HTTP server, record
// store pool sizing, repository retry budget, cache and event backends, and
// the failure-report directory. Configuration is loaded once at startup and
// injected explicitly; there is no ambient global.
package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Database   DatabaseConfig   `yaml:"database" json:"database"`
	Repository RepositoryConfig `yaml:"repository" json:"repository"`
	Cache      CacheConfig      `yaml:"cache" json:"cache"`
	Events     EventsConfig     `yaml:"events" json:"events"`
	Failures   FailuresConfig   `yaml:"failures" json:"failures"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	// RateLimit is the sustained request rate (requests per second) allowed
	// per process; Burst is the token-bucket burst size.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// DatabaseConfig contains configuration for the persistent record store.
type DatabaseConfig struct {
	Type              string        `yaml:"type" json:"type"`
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	Database          string        `yaml:"database" json:"database"`
	Username          string        `yaml:"username" json:"username"`
	Password          string        `yaml:"password" json:"password"`
	MaxOpenConns      int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns      int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"`
}

// RepositoryConfig contains configuration for the retrying CRUD façade.
type RepositoryConfig struct {
	// MaxAttempts is the number of times any repository operation is tried
	// before its failure is surfaced to the caller.
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// IDLength is the length of generated unique identifiers.
	IDLength int `yaml:"id_length" json:"id_length"`
}

// CacheConfig contains configuration for the read-through cache.
// Supports multiple backends (Redis, DynamoDB) through a factory registry.
type CacheConfig struct {
	Enabled        bool           `yaml:"enabled" json:"enabled"`
	Type           string         `yaml:"type" json:"type"`
	TTL            time.Duration  `yaml:"ttl" json:"ttl"`
	RedisConfig    RedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	DynamoDBConfig DynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
	DialTimeout    time.Duration  `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout    time.Duration  `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout   time.Duration  `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// RedisConfig contains Redis-specific configuration.
type RedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	Password     string   `yaml:"password,omitempty" json:"password,omitempty"`
	DB           int      `yaml:"db" json:"db"`
	PoolSize     int      `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// DynamoDBConfig contains DynamoDB-specific configuration.
type DynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// EventsConfig contains configuration for change-event publishing.
type EventsConfig struct {
	Type        string      `yaml:"type" json:"type"`
	BufferSize  int         `yaml:"buffer_size" json:"buffer_size"`
	KafkaConfig KafkaConfig `yaml:"kafka_config" json:"kafka_config"`
}

// KafkaConfig contains Kafka-specific configuration.
type KafkaConfig struct {
	Brokers         []string      `yaml:"brokers" json:"brokers"`
	Topic           string        `yaml:"topic" json:"topic"`
	BatchSize       int           `yaml:"batch_size" json:"batch_size"`
	BatchTimeout    time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	RequiredAcks    int           `yaml:"required_acks" json:"required_acks"`
	MaxMessageBytes int           `yaml:"max_message_bytes" json:"max_message_bytes"`
}

// FailuresConfig contains configuration for the failure-report sink.
type FailuresConfig struct {
	// Dir is the directory failure reports are persisted to. When empty,
	// failures are logged instead of persisted.
	Dir string `yaml:"dir" json:"dir"`
}

// defaultConfig returns a configuration with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			RateLimit: 100,
			Burst:     200,
		},
		Database: DatabaseConfig{
			Type:              "mysql",
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Repository: RepositoryConfig{
			MaxAttempts: 10,
			IDLength:    12,
		},
		Cache: CacheConfig{
			Enabled: false,
			Type:    "redis",
			TTL:     1 * time.Hour,
			RedisConfig: RedisConfig{
				Endpoints:    []string{"localhost:6379"},
				DB:           0,
				PoolSize:     10,
				MinIdleConns: 5,
			},
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Events: EventsConfig{
			Type:       "memory",
			BufferSize: 10000,
			KafkaConfig: KafkaConfig{
				Brokers:         []string{"localhost:9092"},
				Topic:           "incidentcore-changes",
				BatchSize:       100,
				BatchTimeout:    10 * time.Millisecond,
				WriteTimeout:    10 * time.Second,
				RequiredAcks:    -1,      // All replicas
				MaxMessageBytes: 1000000, // 1MB
			},
		},
		Failures: FailuresConfig{
			Dir: "",
		},
	}
}
