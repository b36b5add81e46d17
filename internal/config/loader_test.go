package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// stubValidator stands in for a cache backend so validation paths can be
// exercised without importing an implementation package.
type stubValidator struct {
	err error
}

func (v stubValidator) Validate(cfg *CacheConfig) error { return v.err }
func (v stubValidator) Type() string                    { return "stub" }

func init() {
	RegisterCacheValidator(stubValidator{})
}

func TestDefaults(t *testing.T) {
	cfg := NewManager().Config()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RateLimit != 100 || cfg.Server.Burst != 200 {
		t.Errorf("rate limit = %v/%d", cfg.Server.RateLimit, cfg.Server.Burst)
	}
	if cfg.Database.Type != "mysql" || cfg.Database.Port != 3306 {
		t.Errorf("database = %s:%d", cfg.Database.Type, cfg.Database.Port)
	}
	if cfg.Repository.MaxAttempts != 10 {
		t.Errorf("Repository.MaxAttempts = %d, want 10", cfg.Repository.MaxAttempts)
	}
	if cfg.Repository.IDLength != 12 {
		t.Errorf("Repository.IDLength = %d, want 12", cfg.Repository.IDLength)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
	if cfg.Events.Type != "memory" || cfg.Events.BufferSize != 10000 {
		t.Errorf("events = %s/%d", cfg.Events.Type, cfg.Events.BufferSize)
	}
}

func TestLoadFromYAML(t *testing.T) {
	manager := NewManager()
	data := []byte(`
server:
  port: 9090
repository:
  max_attempts: 5
database:
  host: db.internal
`)
	if err := manager.LoadFromYAML(data); err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	cfg := manager.Config()
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Repository.MaxAttempts != 5 {
		t.Errorf("Repository.MaxAttempts = %d, want 5", cfg.Repository.MaxAttempts)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q", cfg.Database.Host)
	}
	// Untouched sections keep their defaults.
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want default 3306", cfg.Database.Port)
	}
}

func TestLoadFromJSON(t *testing.T) {
	manager := NewManager()
	data := []byte(`{"server": {"port": 9091}, "failures": {"dir": "/var/log/failures"}}`)
	if err := manager.LoadFromJSON(data); err != nil {
		t.Fatalf("LoadFromJSON() error = %v", err)
	}
	cfg := manager.Config()
	if cfg.Server.Port != 9091 {
		t.Errorf("Server.Port = %d, want 9091", cfg.Server.Port)
	}
	if cfg.Failures.Dir != "/var/log/failures" {
		t.Errorf("Failures.Dir = %q", cfg.Failures.Dir)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9092\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	manager := NewManager()
	if err := manager.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if manager.Config().Server.Port != 9092 {
		t.Errorf("Server.Port = %d, want 9092", manager.Config().Server.Port)
	}

	badPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(badPath, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := manager.LoadFromFile(badPath); err == nil || !strings.Contains(err.Error(), "unsupported config file format") {
		t.Errorf("LoadFromFile(.toml) error = %v, want unsupported format", err)
	}

	if err := manager.LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INCIDENTCORE_SERVER_PORT", "9093")
	t.Setenv("INCIDENTCORE_DATABASE_HOST", "db.env")
	t.Setenv("INCIDENTCORE_REPOSITORY_MAX_ATTEMPTS", "7")
	t.Setenv("INCIDENTCORE_CACHE_TTL", "30m")
	t.Setenv("INCIDENTCORE_EVENTS_TOPIC", "env-changes")

	manager := NewManager()
	if err := manager.LoadFromEnv(); err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	cfg := manager.Config()
	if cfg.Server.Port != 9093 {
		t.Errorf("Server.Port = %d, want 9093", cfg.Server.Port)
	}
	if cfg.Database.Host != "db.env" {
		t.Errorf("Database.Host = %q", cfg.Database.Host)
	}
	if cfg.Repository.MaxAttempts != 7 {
		t.Errorf("Repository.MaxAttempts = %d, want 7", cfg.Repository.MaxAttempts)
	}
	if cfg.Cache.TTL != 30*time.Minute {
		t.Errorf("Cache.TTL = %v, want 30m", cfg.Cache.TTL)
	}
	if cfg.Events.KafkaConfig.Topic != "env-changes" {
		t.Errorf("Kafka topic = %q", cfg.Events.KafkaConfig.Topic)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:    "bad server port",
			mutate:  func(cfg *Config) { cfg.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "bad rate limit",
			mutate:  func(cfg *Config) { cfg.Server.RateLimit = 0 },
			wantErr: "server.rate_limit",
		},
		{
			name:    "unsupported database type",
			mutate:  func(cfg *Config) { cfg.Database.Type = "postgres" },
			wantErr: "database.type",
		},
		{
			name:    "zero retry budget",
			mutate:  func(cfg *Config) { cfg.Repository.MaxAttempts = 0 },
			wantErr: "repository.max_attempts",
		},
		{
			name:    "zero id length",
			mutate:  func(cfg *Config) { cfg.Repository.IDLength = 0 },
			wantErr: "repository.id_length",
		},
		{
			name: "unknown cache type",
			mutate: func(cfg *Config) {
				cfg.Cache.Enabled = true
				cfg.Cache.Type = "memcached"
			},
			wantErr: "unsupported cache type",
		},
		{
			name: "cache ttl required when enabled",
			mutate: func(cfg *Config) {
				cfg.Cache.Enabled = true
				cfg.Cache.Type = "stub"
				cfg.Cache.TTL = 0
			},
			wantErr: "cache.ttl",
		},
		{
			name:    "unknown events type",
			mutate:  func(cfg *Config) { cfg.Events.Type = "rabbitmq" },
			wantErr: "events.type",
		},
		{
			name: "kafka needs brokers",
			mutate: func(cfg *Config) {
				cfg.Events.Type = "kafka"
				cfg.Events.KafkaConfig.Brokers = nil
			},
			wantErr: "kafka_config.brokers",
		},
		{
			name:    "memory needs buffer",
			mutate:  func(cfg *Config) { cfg.Events.BufferSize = 0 },
			wantErr: "events.buffer_size",
		},
		{
			name:   "valid with stub cache",
			mutate: func(cfg *Config) { cfg.Cache.Enabled = true; cfg.Cache.Type = "stub" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager()
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := manager.validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestCacheValidatorRegistry(t *testing.T) {
	if _, exists := GetCacheValidator("nope"); exists {
		t.Error("unknown type should not resolve")
	}
	validator, exists := GetCacheValidator("stub")
	if !exists {
		t.Fatal("stub validator not registered")
	}
	if validator.Type() != "stub" {
		t.Errorf("Type() = %q", validator.Type())
	}
	if err := validator.Validate(&CacheConfig{}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
