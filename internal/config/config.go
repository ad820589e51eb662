// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"fleet-admin/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Policy contains tier policy configuration
	Policy PolicyConfig `json:"policy"`

	// Database contains database configuration
	Database DatabaseConfig `json:"database,omitempty"`

	// Events contains event publishing configuration
	Events EventsConfig `json:"events,omitempty"`

	// Locks contains operator lock configuration
	Locks LocksConfig `json:"locks"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`

	// ReadTimeoutSeconds bounds request reads
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds response writes
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
}

// PolicyConfig contains tier policy settings
type PolicyConfig struct {
	// Path is the HCL policy file; empty uses the built-in table
	Path string `json:"path,omitempty"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	// DSN is the PostgreSQL connection string; empty uses in-memory stores
	DSN string `json:"dsn,omitempty"`

	// MaxOpenConns limits the connection pool
	MaxOpenConns int `json:"max_open_conns"`
}

// EventsConfig contains event publishing settings
type EventsConfig struct {
	// NATSURL is the NATS server URL; empty disables publishing
	NATSURL string `json:"nats_url,omitempty"`

	// SubjectPrefix prefixes published subjects
	SubjectPrefix string `json:"subject_prefix"`
}

// LocksConfig contains operator lock settings
type LocksConfig struct {
	// Backend selects the lock backend (memory, redis)
	Backend string `json:"backend"`

	// RedisAddr is the Redis address for the redis backend
	RedisAddr string `json:"redis_addr,omitempty"`

	// WaitMS is the bounded lock acquisition wait in milliseconds
	WaitMS int `json:"wait_ms"`

	// TTLSeconds is the redis lock expiry
	TTLSeconds int `json:"ttl_seconds"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:                ":8080",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 10,
		},
		Policy: PolicyConfig{},
		Database: DatabaseConfig{
			MaxOpenConns: 10,
		},
		Events: EventsConfig{
			SubjectPrefix: "fleet.transitions",
		},
		Locks: LocksConfig{
			Backend:    "memory",
			WaitMS:     2000,
			TTLSeconds: 30,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
